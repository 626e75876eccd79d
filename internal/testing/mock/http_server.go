package mock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"apiauto/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// HTTPServer serves a mock API on a TCP port.
type HTTPServer struct {
	api *Server

	mu       sync.Mutex
	srv      *http.Server
	port     int
	serveErr chan error
}

// NewHTTPServer wraps api without listening yet.
func NewHTTPServer(api *Server) *HTTPServer {
	return &HTTPServer{api: api}
}

// NewHTTPServerFromConfig loads the mock API configured in configPath.
func NewHTTPServerFromConfig(configPath string, opts ...Option) (*HTTPServer, error) {
	api, err := NewServerFromFile(configPath, opts...)
	if err != nil {
		return nil, err
	}
	return NewHTTPServer(api), nil
}

// Start listens on a free loopback port and returns it.
func (s *HTTPServer) Start(ctx context.Context) (int, error) {
	if err := s.Listen(ctx, "127.0.0.1:0"); err != nil {
		return 0, err
	}
	return s.Port(), nil
}

// StartOnPort listens on port on every interface.
func (s *HTTPServer) StartOnPort(ctx context.Context, port int) error {
	return s.Listen(ctx, ":"+strconv.Itoa(port))
}

// Listen binds addr and serves in the background. Connections are accepted
// as soon as it returns.
func (s *HTTPServer) Listen(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return fmt.Errorf("mock API already listening on port %d", s.port)
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: s.api, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		err := srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else {
			logging.Error("MockServer", err, "Mock API stopped serving")
		}
		serveErr <- err
	}()

	s.srv = srv
	s.serveErr = serveErr
	s.port = listener.Addr().(*net.TCPAddr).Port
	logging.Info("MockServer", "Mock API listening on port %d", s.port)
	return nil
}

// Stop shuts the server down, closing it forcibly when ctx expires first.
// It returns the error serving stopped with, if any.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		logging.Warn("MockServer", "Forcing mock API on port %d closed: %v", s.port, err)
		_ = s.srv.Close()
	}
	err := <-s.serveErr

	s.srv = nil
	s.serveErr = nil
	logging.Info("MockServer", "Mock API on port %d stopped", s.port)
	return err
}

// Port is the port last listened on.
func (s *HTTPServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Running reports whether the server is listening.
func (s *HTTPServer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srv != nil
}

// Endpoint is the base URL requests should go to, empty when stopped.
func (s *HTTPServer) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return ""
	}
	return "http://localhost:" + strconv.Itoa(s.port)
}

// API returns the mock API being served.
func (s *HTTPServer) API() *Server {
	return s.api
}
