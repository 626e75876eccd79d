package testing

import (
	"fmt"
	"io"
	"os"
	"time"

	"apiauto/internal/apiclient"
	"apiauto/internal/config"
)

// DefaultTestConfiguration returns the run configuration derived from the
// suite configuration: scenario directory, retry policy, environment and
// credentials.
func DefaultTestConfiguration(cfg config.Config) TestConfiguration {
	return TestConfiguration{
		Timeout:     10 * time.Minute,
		Parallel:    1,
		ConfigPath:  GetScenarioPath(cfg.ScenarioDir),
		Environment: cfg.Environment,
		Retry: RetryConfig{
			Count: cfg.Retry.Count,
			Delay: cfg.Retry.Sleep,
		},
		Credentials: cfg.Credentials,
	}
}

// TestFramework holds all components needed for testing
type TestFramework struct {
	Runner   TestRunner
	Loader   TestScenarioLoader
	Reporter TestReporter
	Logger   TestLogger
}

// FrameworkOptions selects the output of a TestFramework.
type FrameworkOptions struct {
	Mode       ExecutionMode
	Verbose    bool
	Debug      bool
	ReportPath string
	// Output receives CLI reporter output, os.Stdout when nil.
	Output io.Writer
	// Reporter replaces the reporter of Mode when set.
	Reporter TestReporter
}

// NewConfigClientFactory creates clients for the scenario's service in the
// active environment of cfg.
func NewConfigClientFactory(cfg config.Config) ClientFactory {
	return func(scenario TestScenario) (*apiclient.Client, error) {
		return apiclient.NewFromConfig(cfg, scenario.Service)
	}
}

// NewTestFramework creates a fully configured test framework
//
// Execution Modes:
//   - ExecutionModeCLI: reports to the terminal
//   - ExecutionModeMCPServer: uses structured reporting that captures data
//     without stdio output to avoid contaminating the MCP protocol stream
func NewTestFramework(cfg config.Config, opts FrameworkOptions) (*TestFramework, error) {
	return NewTestFrameworkWithClients(NewConfigClientFactory(cfg), opts)
}

// NewTestFrameworkWithClients creates a test framework sending requests with
// clients from newClient.
func NewTestFrameworkWithClients(newClient ClientFactory, opts FrameworkOptions) (*TestFramework, error) {
	if newClient == nil {
		return nil, fmt.Errorf("client factory is required")
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var logger TestLogger
	var reporter TestReporter
	switch opts.Mode {
	case ExecutionModeMCPServer:
		logger = NewSilentLogger(opts.Verbose, opts.Debug)
		reporter = NewStructuredReporter(opts.ReportPath)
	case ExecutionModeCLI, "":
		logger = NewWriterLogger(opts.Verbose, opts.Debug, out, os.Stderr)
		reporter = NewTestReporterWithWriter(out, opts.Verbose, opts.Debug, opts.ReportPath)
	default:
		return nil, fmt.Errorf("unknown execution mode %q", opts.Mode)
	}

	if opts.Reporter != nil {
		reporter = opts.Reporter
	}

	loader := NewTestScenarioLoaderWithLogger(opts.Debug, logger)
	runner := NewTestRunnerWithLogger(newClient, loader, reporter, opts.Debug, logger)

	return &TestFramework{
		Runner:   runner,
		Loader:   loader,
		Reporter: reporter,
		Logger:   logger,
	}, nil
}

// ValidateConfiguration validates a test configuration
func ValidateConfiguration(config TestConfiguration) error {
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if config.Parallel < 1 {
		return fmt.Errorf("parallel scenarios must be at least 1")
	}
	if config.Retry.Count < 0 {
		return fmt.Errorf("retry count cannot be negative")
	}
	if config.Retry.Delay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	return nil
}
