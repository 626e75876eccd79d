package agent

import (
	"fmt"
	"path/filepath"
	"sync"

	"apiauto/internal/config"
	"apiauto/internal/testing"
	"apiauto/pkg/logging"

	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "apiauto"
	serverVersion = "1.0.0"

	// DefaultScriptFileName is used by generate_k6_script without scriptFileName.
	DefaultScriptFileName = "k6_script.js"
)

// Options configures a Server.
type Options struct {
	// Root is the project directory relative paths are resolved against.
	// The working directory when empty.
	Root string
	// Version is reported to clients, serverVersion when empty.
	Version string
	Debug   bool
	// ClientFactory overrides how scenario requests reach the API. The
	// configured environment hosts are used when nil.
	ClientFactory testing.ClientFactory
}

// Server exposes curl parsing, test generation and the scenario runner as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	cfg       config.Config
	root      string
	debug     bool

	runner   testing.TestRunner
	reporter testing.StructuredTestReporter

	// runMu serializes scenario runs, the structured reporter holds one run.
	runMu      sync.Mutex
	mu         sync.RWMutex
	lastResult *testing.TestSuiteResult
}

// NewServer creates a Server with every tool registered.
func NewServer(cfg config.Config, opts Options) (*Server, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	newClient := opts.ClientFactory
	if newClient == nil {
		newClient = testing.NewConfigClientFactory(cfg)
	}
	framework, err := testing.NewTestFrameworkWithClients(newClient, testing.FrameworkOptions{
		Mode:    testing.ExecutionModeMCPServer,
		Verbose: true,
		Debug:   opts.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test framework: %w", err)
	}
	reporter, ok := framework.Reporter.(testing.StructuredTestReporter)
	if !ok {
		return nil, fmt.Errorf("test framework has no structured reporter")
	}

	version := opts.Version
	if version == "" {
		version = serverVersion
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithPromptCapabilities(false),
		),
		cfg:      cfg,
		root:     absRoot,
		debug:    opts.Debug,
		runner:   framework.Runner,
		reporter: reporter,
	}
	s.registerGeneratorTools()
	s.registerScenarioTools()
	return s, nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve blocks serving MCP over stdin and stdout.
func (s *Server) Serve() error {
	logging.Info("Agent", "Serving MCP tools on stdio (root %s)", s.root)
	return server.ServeStdio(s.mcpServer)
}

// resolve makes path absolute against the server root.
func (s *Server) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

func (s *Server) dirOrDefault(dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	return s.resolve(dir)
}

func (s *Server) setLastResult(result *testing.TestSuiteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = result
}

func (s *Server) getLastResult() *testing.TestSuiteResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}
