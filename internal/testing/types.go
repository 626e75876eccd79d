package testing

import (
	"context"
	"time"

	"apiauto/internal/config"
)

// TestResult represents the result of test execution
type TestResult string

const (
	// ResultPassed indicates the test passed successfully
	ResultPassed TestResult = "PASSED"
	// ResultFailed indicates the test failed
	ResultFailed TestResult = "FAILED"
	// ResultSkipped indicates the test was skipped
	ResultSkipped TestResult = "SKIPPED"
	// ResultError indicates an error occurred during test execution
	ResultError TestResult = "ERROR"
)

// ExecutionMode represents the mode of test execution
type ExecutionMode string

const (
	// ExecutionModeCLI represents command line interface execution
	ExecutionModeCLI ExecutionMode = "cli"
	// ExecutionModeMCPServer represents MCP server execution via stdio
	ExecutionModeMCPServer ExecutionMode = "mcp-server"
)

// TestLogger provides centralized logging for test execution
type TestLogger interface {
	// Debug logs debug-level messages (only shown when debug=true)
	Debug(format string, args ...interface{})
	// Info logs info-level messages (shown when verbose=true or debug=true)
	Info(format string, args ...interface{})
	// Error logs error-level messages (always shown)
	Error(format string, args ...interface{})
	// IsDebugEnabled returns whether debug logging is enabled
	IsDebugEnabled() bool
	// IsVerboseEnabled returns whether verbose logging is enabled
	IsVerboseEnabled() bool
}

// TestConfiguration defines the overall test execution configuration
type TestConfiguration struct {
	// Timeout is the overall test execution timeout
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// Scenario filter for specific scenario execution
	Scenario string `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	// Tags restricts execution to scenarios carrying at least one of them
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	// Parallel is the number of scenarios executed concurrently
	Parallel int `json:"parallel" yaml:"parallel"`
	// FailFast stops execution on first failure
	FailFast bool `json:"fail_fast" yaml:"fail_fast"`
	// Verbose enables detailed output
	Verbose bool `json:"verbose" yaml:"verbose"`
	// Debug enables debug logging
	Debug bool `json:"debug" yaml:"debug"`
	// ConfigPath is the path to test scenario definitions
	ConfigPath string `json:"config_path,omitempty" yaml:"config_path,omitempty"`
	// ReportPath is the directory detailed JSON reports are written to
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	// Environment is the configured environment hosts are taken from
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`
	// Retry is the default retry policy for steps without their own
	Retry RetryConfig `json:"retry" yaml:"retry"`
	// Credentials are used by scenarios that log in
	Credentials config.Credentials `json:"-" yaml:"-"`
}

// TestScenario defines a single API test scenario
type TestScenario struct {
	// Name is the unique identifier for the scenario
	Name string `json:"name" yaml:"name"`
	// Description provides human-readable scenario description
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Service names the host in the active environment requests go to.
	// Without it, request paths must be absolute URLs.
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
	// Login authenticates with the configured credentials before the steps run
	Login *LoginConfig `json:"login,omitempty" yaml:"login,omitempty"`
	// Variables seed the values available to {{ placeholders }}
	Variables map[string]interface{} `json:"variables,omitempty" yaml:"variables,omitempty"`
	// Steps define the test execution steps
	Steps []TestStep `json:"steps" yaml:"steps"`
	// Cleanup defines teardown steps, run regardless of the outcome
	Cleanup []TestStep `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`
	// Timeout for this specific scenario
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Tags for additional categorization
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	// Skip indicates whether this scenario should be skipped
	Skip bool `json:"skip,omitempty" yaml:"skip,omitempty"`
	// SourceFile is the file the scenario was loaded from
	SourceFile string `json:"source_file,omitempty" yaml:"-"`
}

// LoginConfig describes the login request of a scenario
type LoginConfig struct {
	// Path is the login endpoint, "api/login" by default
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// TestStep defines a single request within a test scenario
type TestStep struct {
	// ID is the step identifier
	ID string `json:"id" yaml:"id"`
	// Description explains what the step does
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Request is the HTTP request to send
	Request StepRequest `json:"request" yaml:"request"`
	// Expected defines the expected outcome
	Expected TestExpectation `json:"expected" yaml:"expected"`
	// Store maps variable names to JMESPath expressions evaluated against
	// the response body. Stored values feed later placeholders.
	Store map[string]string `json:"store,omitempty" yaml:"store,omitempty"`
	// Retry configuration for this step
	Retry *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// Timeout for this specific step
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// StepRequest is the request half of a step. Every string may carry
// {{ placeholders }}.
type StepRequest struct {
	Method  string            `json:"method" yaml:"method"`
	Path    string            `json:"path" yaml:"path"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Query   map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
	Body    interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
	// File is uploaded as multipart/form-data instead of a JSON body
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	// Form is sent as multipart/form-data fields instead of a JSON body
	Form map[string]string `json:"form,omitempty" yaml:"form,omitempty"`
}

// TestExpectation defines what response is expected from a step
type TestExpectation struct {
	// Status is the expected HTTP status code, 200 when unset
	Status int `json:"status,omitempty" yaml:"status,omitempty"`
	// Body is an expected template matched with the response matcher
	Body interface{} `json:"body,omitempty" yaml:"body,omitempty"`
	// ExactBody requires the body to equal Body instead of matching it
	ExactBody bool `json:"exact_body,omitempty" yaml:"exact_body,omitempty"`
	// Contains checks if response contains specific text
	Contains []string `json:"contains,omitempty" yaml:"contains,omitempty"`
	// NotContains checks if response does not contain specific text
	NotContains []string `json:"not_contains,omitempty" yaml:"not_contains,omitempty"`
	// MaxDuration fails the step when the response takes longer
	MaxDuration time.Duration `json:"max_duration,omitempty" yaml:"max_duration,omitempty"`
}

// RetryConfig defines retry behavior for test steps
type RetryConfig struct {
	// Count is the number of retry attempts
	Count int `json:"count" yaml:"count"`
	// Delay between retry attempts
	Delay time.Duration `json:"delay" yaml:"delay"`
	// BackoffMultiplier for exponential backoff
	BackoffMultiplier float64 `json:"backoff_multiplier,omitempty" yaml:"backoff_multiplier,omitempty"`
}

// TestSuiteResult is the outcome of one run over the selected scenarios.
type TestSuiteResult struct {
	RunID     string        `json:"run_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	TotalScenarios   int `json:"total_scenarios"`
	PassedScenarios  int `json:"passed_scenarios"`
	FailedScenarios  int `json:"failed_scenarios"`
	SkippedScenarios int `json:"skipped_scenarios"`
	ErrorScenarios   int `json:"error_scenarios"`

	// ScenarioResults keeps the order the scenarios were selected in
	ScenarioResults []TestScenarioResult `json:"scenario_results"`
	Configuration   TestConfiguration    `json:"configuration"`
}

// Succeeded reports whether no scenario failed or errored.
func (r TestSuiteResult) Succeeded() bool {
	return r.FailedScenarios == 0 && r.ErrorScenarios == 0
}

// tally counts one finished scenario.
func (r *TestSuiteResult) tally(result TestScenarioResult) {
	switch result.Result {
	case ResultPassed:
		r.PassedScenarios++
	case ResultFailed:
		r.FailedScenarios++
	case ResultSkipped:
		r.SkippedScenarios++
	case ResultError:
		r.ErrorScenarios++
	}
}

// TestScenarioResult is the outcome of one scenario.
type TestScenarioResult struct {
	Scenario    TestScenario     `json:"scenario"`
	Result      TestResult       `json:"result"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Duration    time.Duration    `json:"duration"`
	StepResults []TestStepResult `json:"step_results"`
	// Error is the first failure, cleanup failures included
	Error string `json:"error,omitempty"`
}

// TestStepResult is the outcome of one step, after retries.
type TestStepResult struct {
	ScenarioName string        `json:"scenario_name"`
	Step         TestStep      `json:"step"`
	Result       TestResult    `json:"result"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`

	// Method and URL of the request actually sent, placeholders rendered
	Method     string `json:"method,omitempty"`
	URL        string `json:"url,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	// Response is the raw body of the last attempt
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	// Warnings lists response keys the expected body did not mention
	Warnings   []string `json:"warnings,omitempty"`
	RetryCount int      `json:"retry_count"`
}

// TestRunner interface defines the test execution engine
type TestRunner interface {
	// Run executes test scenarios according to the configuration
	Run(ctx context.Context, config TestConfiguration, scenarios []TestScenario) (*TestSuiteResult, error)
}

// TestScenarioLoader interface defines how test scenarios are loaded
type TestScenarioLoader interface {
	// LoadScenarios loads test scenarios from the given path
	LoadScenarios(configPath string) ([]TestScenario, error)
	// FilterScenarios filters scenarios based on the configuration
	FilterScenarios(scenarios []TestScenario, config TestConfiguration) []TestScenario
}

// TestReporter interface defines how test results are reported
type TestReporter interface {
	// ReportStart is called when test execution begins
	ReportStart(config TestConfiguration)
	// ReportScenarioStart is called when a scenario begins
	ReportScenarioStart(scenario TestScenario)
	// ReportStepResult is called when a step completes
	ReportStepResult(stepResult TestStepResult)
	// ReportScenarioResult is called when a scenario completes
	ReportScenarioResult(scenarioResult TestScenarioResult)
	// ReportSuiteResult is called when all tests complete
	ReportSuiteResult(suiteResult TestSuiteResult)
	// SetParallelMode enables or disables parallel output buffering
	SetParallelMode(parallel bool)
}

// StructuredTestReporter is a TestReporter whose results can be queried
// while and after a run. The MCP server uses it since stdout carries the
// protocol.
type StructuredTestReporter interface {
	TestReporter
	// SuiteResult returns a copy of the current run, nil before any run started
	SuiteResult() *TestSuiteResult
	// Progress returns a snapshot of every scenario of the current run
	Progress() map[string]ScenarioProgress
	// ResultsJSON renders SuiteResult as indented JSON
	ResultsJSON() (string, error)
}
