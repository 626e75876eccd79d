package mock

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"apiauto/internal/template"
	"apiauto/pkg/logging"
)

// RouteHandler handles requests of one mock route with configurable responses
type RouteHandler struct {
	config         RouteConfig
	segments       []string
	templateEngine *template.Engine
}

// NewRouteHandler creates a new mock route handler
func NewRouteHandler(config RouteConfig, templateEngine *template.Engine) *RouteHandler {
	return &RouteHandler{
		config:         config,
		segments:       splitPath(config.Path),
		templateEngine: templateEngine,
	}
}

// MatchPath returns the path parameters when path matches the route pattern.
func (h *RouteHandler) MatchPath(path string) (map[string]string, bool) {
	parts := splitPath(path)
	if len(parts) != len(h.segments) {
		return nil, false
	}

	params := make(map[string]string)
	for i, segment := range h.segments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			params[segment[1:len(segment)-1]] = parts[i]
			continue
		}
		if segment != parts[i] {
			return nil, false
		}
	}
	return params, true
}

// MatchMethod reports whether the route accepts method.
func (h *RouteHandler) MatchMethod(method string) bool {
	return h.config.Method == "" || strings.EqualFold(h.config.Method, method)
}

// HandleCall selects the response for args, waits for its delay and returns
// it with every placeholder resolved.
func (h *RouteHandler) HandleCall(args map[string]interface{}, wait func(time.Duration) error) (*RouteResponse, error) {
	logging.Debug("MockServer", "Route %s %s called with args: %v", h.config.Method, h.config.Path, args)

	// Find the first matching response
	var selectedResponse *RouteResponse
	for i := range h.config.Responses {
		if h.matchesCondition(h.config.Responses[i].Condition, args) {
			selectedResponse = &h.config.Responses[i]
			break
		}
	}

	// If no specific response matched, use the first one as fallback
	if selectedResponse == nil && len(h.config.Responses) > 0 {
		selectedResponse = &h.config.Responses[0]
	}

	if selectedResponse == nil {
		return nil, fmt.Errorf("no response configured for %s %s", h.config.Method, h.config.Path)
	}

	if selectedResponse.Delay != "" {
		duration, err := time.ParseDuration(selectedResponse.Delay)
		if err != nil {
			return nil, fmt.Errorf("invalid delay %q: %w", selectedResponse.Delay, err)
		}
		logging.Debug("MockServer", "Simulating delay of %s for %s", selectedResponse.Delay, h.config.Path)
		if err := wait(duration); err != nil {
			return nil, err
		}
	}

	body, err := h.templateEngine.Replace(selectedResponse.Body, args)
	if err != nil {
		return nil, fmt.Errorf("failed to render response: %w", err)
	}

	var headers map[string]string
	if selectedResponse.Headers != nil {
		rendered, err := h.templateEngine.Replace(selectedResponse.Headers, args)
		if err != nil {
			return nil, fmt.Errorf("failed to render headers: %w", err)
		}
		headers = rendered.(map[string]string)
	}

	status := selectedResponse.Status
	if status == 0 {
		status = http.StatusOK
	}

	return &RouteResponse{
		Status:  status,
		Headers: headers,
		Body:    body,
	}, nil
}

// matchesCondition checks if the given args match the response condition
func (h *RouteHandler) matchesCondition(condition map[string]interface{}, args map[string]interface{}) bool {
	if len(condition) == 0 {
		return true // No condition means it matches everything
	}

	for key, expectedValue := range condition {
		actualValue, exists := template.Context(args).Lookup(key)
		if !exists || !valuesEqual(expectedValue, actualValue) {
			return false
		}
	}

	return true
}

// valuesEqual compares two values for equality, handling type conversions
func valuesEqual(expected, actual interface{}) bool {
	if reflect.DeepEqual(expected, actual) {
		return true
	}
	return fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual)
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
