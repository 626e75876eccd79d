package mock

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"apiauto/internal/template"
	"apiauto/pkg/logging"
)

// Server is a mock HTTP API serving the configured routes
type Server struct {
	routes         []*RouteHandler
	templateEngine *template.Engine
	clock          Clock

	mu       sync.Mutex
	requests []RecordedRequest
}

// Option configures a Server
type Option func(*Server)

// WithClock sets the clock rendered into {{ now }}.
func WithClock(clock Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// NewServer creates a mock server from config
func NewServer(config Config, opts ...Option) (*Server, error) {
	s := &Server{
		templateEngine: template.New(),
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, route := range config.Routes {
		if route.Path == "" {
			return nil, fmt.Errorf("route %d: path is required", i)
		}
		if len(route.Responses) == 0 {
			return nil, fmt.Errorf("route %d (%s): at least one response is required", i, route.Path)
		}
		for j, response := range route.Responses {
			if response.Delay == "" {
				continue
			}
			if _, err := time.ParseDuration(response.Delay); err != nil {
				return nil, fmt.Errorf("route %d (%s) response %d: invalid delay %q", i, route.Path, j, response.Delay)
			}
		}
		s.routes = append(s.routes, NewRouteHandler(route, s.templateEngine))
	}

	logging.Debug("MockServer", "Mock API initialized with %d routes", len(s.routes))
	return s, nil
}

// NewServerFromFile creates a new mock server from a YAML configuration file
func NewServerFromFile(configPath string, opts ...Option) (*Server, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mock config file %s: %w", configPath, err)
	}

	var config Config
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("failed to parse mock config file %s: %w", configPath, err)
	}

	return NewServer(config, opts...)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err))
		return
	}
	s.record(r, rawBody)

	handler, params, status := s.findRoute(r.Method, r.URL.Path)
	if handler == nil {
		writeError(w, status, fmt.Sprintf("no mock route for %s %s", r.Method, r.URL.Path))
		return
	}

	args := requestArgs(r, params, rawBody)
	args["now"] = s.clock().UTC().Format(time.RFC3339)

	wait := func(d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-r.Context().Done():
			return r.Context().Err()
		case <-timer.C:
			return nil
		}
	}

	response, err := handler.HandleCall(args, wait)
	if err != nil {
		logging.Warn("MockServer", "%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for k, v := range response.Headers {
		w.Header().Set(k, v)
	}
	writeBody(w, response.Status, response.Body)
}

// findRoute returns the first route matching method and path. Without one
// the status tells whether only the method was wrong.
func (s *Server) findRoute(method, path string) (*RouteHandler, map[string]string, int) {
	status := http.StatusNotFound
	for _, route := range s.routes {
		params, ok := route.MatchPath(path)
		if !ok {
			continue
		}
		if !route.MatchMethod(method) {
			status = http.StatusMethodNotAllowed
			continue
		}
		return route, params, http.StatusOK
	}
	return nil, nil, status
}

// requestArgs collects what conditions and placeholders may reference: path
// and query parameters at the top level plus the decoded body under "body".
func requestArgs(r *http.Request, params map[string]string, rawBody []byte) map[string]interface{} {
	args := map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			args[k] = v[0]
		}
	}
	for k, v := range params {
		args[k] = v
	}

	if len(rawBody) > 0 {
		var body interface{}
		if err := json.Unmarshal(rawBody, &body); err == nil {
			args["body"] = body
		} else {
			args["body"] = string(rawBody)
		}
	}
	return args
}

func (s *Server) record(r *http.Request, rawBody []byte) {
	recorded := RecordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   make(map[string]string),
		Headers: make(map[string]string),
		Body:    string(rawBody),
	}
	for k, v := range r.URL.Query() {
		recorded.Query[k] = v[0]
	}
	for k, v := range r.Header {
		recorded.Headers[k] = v[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, recorded)
}

// Requests returns the requests received so far, oldest first
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Reset forgets the recorded requests
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Routes lists the configured routes as "METHOD path", sorted
func (s *Server) Routes() []string {
	out := make([]string, 0, len(s.routes))
	for _, route := range s.routes {
		method := route.config.Method
		if method == "" {
			method = "*"
		}
		out = append(out, method+" "+route.config.Path)
	}
	sort.Strings(out)
	return out
}

func writeBody(w http.ResponseWriter, status int, body interface{}) {
	switch b := body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		if w.Header().Get("Content-Type") == "" {
			if json.Valid([]byte(b)) {
				w.Header().Set("Content-Type", "application/json")
			} else {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			}
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode response: %v", err))
			return
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = w.Write(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
