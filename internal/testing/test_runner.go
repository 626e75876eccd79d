package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"apiauto/internal/apiclient"
	"apiauto/internal/matcher"
	"apiauto/internal/template"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultLoginPath is posted to when a scenario logs in without a path.
const DefaultLoginPath = "api/login"

// ClientFactory creates the HTTP client a scenario sends its requests with.
type ClientFactory func(scenario TestScenario) (*apiclient.Client, error)

// testRunner implements the TestRunner interface
type testRunner struct {
	newClient ClientFactory
	loader    TestScenarioLoader
	reporter  TestReporter
	debug     bool
	logger    TestLogger
}

// NewTestRunner creates a new test runner
func NewTestRunner(newClient ClientFactory, loader TestScenarioLoader, reporter TestReporter, debug bool) TestRunner {
	return NewTestRunnerWithLogger(newClient, loader, reporter, debug, NewStdoutLogger(false, debug))
}

// NewTestRunnerWithLogger creates a new test runner with custom logger
func NewTestRunnerWithLogger(newClient ClientFactory, loader TestScenarioLoader, reporter TestReporter, debug bool, logger TestLogger) TestRunner {
	return &testRunner{
		newClient: newClient,
		loader:    loader,
		reporter:  reporter,
		debug:     debug,
		logger:    logger,
	}
}

// Run executes test scenarios according to the configuration
func (r *testRunner) Run(ctx context.Context, config TestConfiguration, scenarios []TestScenario) (*TestSuiteResult, error) {
	result := &TestSuiteResult{
		RunID:           uuid.NewString(),
		StartTime:       time.Now(),
		ScenarioResults: make([]TestScenarioResult, 0, len(scenarios)),
		Configuration:   config,
	}

	r.reporter.ReportStart(config)

	filteredScenarios := r.loader.FilterScenarios(scenarios, config)
	result.TotalScenarios = len(filteredScenarios)

	if len(filteredScenarios) == 0 {
		result.EndTime = time.Now()
		r.reporter.ReportSuiteResult(*result)
		return result, nil
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	if config.Parallel <= 1 {
		r.reporter.SetParallelMode(false)
		for _, scenario := range filteredScenarios {
			if ctx.Err() != nil {
				break
			}
			scenarioResult := r.runScenario(ctx, scenario, config)
			result.ScenarioResults = append(result.ScenarioResults, scenarioResult)
			result.tally(scenarioResult)
			r.reporter.ReportScenarioResult(scenarioResult)

			if config.FailFast && isFailure(scenarioResult.Result) {
				r.logger.Debug("🛑 Fail-fast triggered by scenario: %s\n", scenario.Name)
				break
			}
		}
	} else {
		r.reporter.SetParallelMode(true)
		result.ScenarioResults = r.runScenariosParallel(ctx, filteredScenarios, config, result)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	r.reporter.ReportSuiteResult(*result)

	return result, nil
}

// runScenariosParallel executes up to config.Parallel scenarios at a time.
// Results keep the input order. With fail-fast, scenarios not yet started
// when a failure is reported are not run; running ones finish.
func (r *testRunner) runScenariosParallel(ctx context.Context, scenarios []TestScenario, config TestConfiguration, suiteResult *TestSuiteResult) []TestScenarioResult {
	var (
		mu      sync.Mutex
		stopped atomic.Bool
		results = make([]*TestScenarioResult, len(scenarios))
	)

	g := new(errgroup.Group)
	g.SetLimit(config.Parallel)

	for i, scenario := range scenarios {
		g.Go(func() error {
			if stopped.Load() || ctx.Err() != nil {
				return nil
			}
			r.logger.Debug("🔄 Executing scenario: %s\n", scenario.Name)
			scenarioResult := r.runScenario(ctx, scenario, config)

			mu.Lock()
			defer mu.Unlock()
			results[i] = &scenarioResult
			suiteResult.tally(scenarioResult)
			r.reporter.ReportScenarioResult(scenarioResult)

			if config.FailFast && isFailure(scenarioResult.Result) {
				r.logger.Debug("🛑 Fail-fast triggered by scenario: %s\n", scenario.Name)
				stopped.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	collected := make([]TestScenarioResult, 0, len(scenarios))
	for _, res := range results {
		if res != nil {
			collected = append(collected, *res)
		}
	}
	return collected
}

// runScenario executes a single test scenario with its own client and variables
func (r *testRunner) runScenario(ctx context.Context, scenario TestScenario, config TestConfiguration) TestScenarioResult {
	result := TestScenarioResult{
		Scenario:    scenario,
		StartTime:   time.Now(),
		StepResults: make([]TestStepResult, 0, len(scenario.Steps)),
		Result:      ResultPassed,
	}

	r.reporter.ReportScenarioStart(scenario)

	finish := func(res TestResult, msg string) TestScenarioResult {
		if res != "" {
			result.Result = res
			result.Error = msg
		}
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	if scenario.Skip {
		return finish(ResultSkipped, "")
	}

	scenarioCtx := ctx
	if scenario.Timeout > 0 {
		var cancel context.CancelFunc
		scenarioCtx, cancel = context.WithTimeout(ctx, scenario.Timeout)
		defer cancel()
	}

	client, err := r.newClient(scenario)
	if err != nil {
		return finish(ResultError, fmt.Sprintf("failed to create client: %v", err))
	}

	if scenario.Login != nil {
		if !config.Credentials.HasCredentials() {
			return finish(ResultError, "scenario requires login but no credentials are configured")
		}
		path := scenario.Login.Path
		if path == "" {
			path = DefaultLoginPath
		}
		if err := client.Login(scenarioCtx, path, config.Credentials); err != nil {
			return finish(ResultError, err.Error())
		}
	}

	scenarioContext := NewScenarioContext(scenario.Variables)

	for _, step := range scenario.Steps {
		stepResult := r.runStep(scenarioCtx, scenario.Name, step, config, client, scenarioContext)
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(stepResult)

		if isFailure(stepResult.Result) {
			result.Result = stepResult.Result
			result.Error = fmt.Sprintf("step %s: %s", step.ID, stepResult.Error)
			break
		}
	}

	// Cleanup steps run with a fresh context so an expired scenario timeout
	// does not prevent teardown.
	for _, cleanupStep := range scenario.Cleanup {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout(cleanupStep))
		stepResult := r.runStep(cleanupCtx, scenario.Name, cleanupStep, config, client, scenarioContext)
		cancel()
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(stepResult)

		if isFailure(stepResult.Result) && result.Result == ResultPassed {
			result.Result = stepResult.Result
			result.Error = fmt.Sprintf("cleanup step %s: %s", cleanupStep.ID, stepResult.Error)
		}
	}

	return finish("", "")
}

func cleanupTimeout(step TestStep) time.Duration {
	if step.Timeout > 0 {
		return step.Timeout
	}
	return 30 * time.Second
}

// runStep resolves the step's placeholders, sends the request and checks
// the expectations, retrying according to the step's or the suite's policy.
func (r *testRunner) runStep(ctx context.Context, scenarioName string, step TestStep, config TestConfiguration, client *apiclient.Client, scenarioContext *ScenarioContext) TestStepResult {
	result := TestStepResult{
		ScenarioName: scenarioName,
		Step:         step,
		StartTime:    time.Now(),
		Result:       ResultPassed,
	}
	finish := func(res TestResult, err error) TestStepResult {
		result.Result = res
		if err != nil {
			result.Error = err.Error()
		}
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	processor := NewTemplateProcessor(scenarioContext)
	request, err := processor.ResolveRequest(step.Request)
	if err != nil {
		return finish(ResultError, resolutionError(err))
	}
	expectedBody, err := processor.ResolveValue(step.Expected.Body)
	if err != nil {
		return finish(ResultError, resolutionError(fmt.Errorf("expected body: %w", err)))
	}

	retry := config.Retry
	if step.Retry != nil {
		retry = *step.Retry
	}
	delay := retry.Delay

	for attempt := 0; ; attempt++ {
		res, attemptErr := r.attemptStep(stepCtx, client, request, step, expectedBody, scenarioContext, &result)
		if attemptErr == nil {
			return finish(ResultPassed, nil)
		}
		if attempt >= retry.Count || stepCtx.Err() != nil {
			return finish(res, attemptErr)
		}

		result.RetryCount++
		r.logger.Debug("🔁 Step %s attempt %d failed, retrying in %v: %v\n", step.ID, attempt+1, delay, attemptErr)
		if err := sleepContext(stepCtx, delay); err != nil {
			return finish(res, attemptErr)
		}
		if retry.BackoffMultiplier > 0 {
			delay = time.Duration(float64(delay) * retry.BackoffMultiplier)
		}
	}
}

func resolutionError(err error) error {
	if template.IsMissing(err) {
		return fmt.Errorf("template resolution failed: %w (declare it under variables or store it from an earlier step)", err)
	}
	return fmt.Errorf("template resolution failed: %w", err)
}

// attemptStep sends the request once. It returns ResultError for requests
// that could not complete and ResultFailed for unmet expectations.
func (r *testRunner) attemptStep(ctx context.Context, client *apiclient.Client, request StepRequest, step TestStep, expectedBody interface{}, scenarioContext *ScenarioContext, result *TestStepResult) (TestResult, error) {
	method := strings.ToUpper(request.Method)
	path := withQuery(request.Path, request.Query)
	result.Method = method
	result.URL = client.URL(path)
	result.StatusCode = 0
	result.Response = ""
	result.Warnings = nil

	var resp *apiclient.Response
	var err error
	switch {
	case request.File != "":
		resp, err = client.SendFile(ctx, method, path, request.File, request.Headers)
	case len(request.Form) > 0:
		resp, err = client.SendMultipart(ctx, method, path, request.Form, request.Headers)
	default:
		resp, err = client.Send(ctx, method, path, request.Body, request.Headers)
	}
	if resp == nil {
		return ResultError, fmt.Errorf("request failed: %w", err)
	}
	result.StatusCode = resp.StatusCode
	result.Response = resp.String()

	expected := step.Expected
	status := expected.Status
	if status == 0 {
		status = http.StatusOK
	}
	if err != nil && !(apiclient.IsStatusError(err) && resp.StatusCode == status) {
		return ResultError, err
	}

	if err := apiclient.VerifyResponseCode(resp, status); err != nil {
		return ResultFailed, err
	}

	if expectedBody != nil {
		if expected.ExactBody {
			err = apiclient.VerifyResponse(resp, expectedBody, status)
		} else {
			var warnings matcher.Collector
			err = apiclient.VerifyResponseTemplate(resp, expectedBody, status, matcher.WithWarningCollector(&warnings))
			for _, w := range warnings.Warnings() {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s (%s)", w, w.Path))
			}
		}
		if err != nil {
			return ResultFailed, err
		}
	}

	if err := apiclient.VerifyBodyContains(resp, expected.Contains...); err != nil {
		return ResultFailed, err
	}
	for _, text := range expected.NotContains {
		if strings.Contains(resp.String(), text) {
			return ResultFailed, fmt.Errorf("response contains unexpected text %q", text)
		}
	}

	if expected.MaxDuration > 0 && resp.Duration > expected.MaxDuration {
		return ResultFailed, fmt.Errorf("response took %v, expected at most %v", resp.Duration, expected.MaxDuration)
	}

	if len(step.Store) > 0 {
		var body interface{}
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			return ResultFailed, fmt.Errorf("cannot store values from a non-JSON response: %w", err)
		}
		if err := scenarioContext.StoreFromBody(step.Store, body); err != nil {
			return ResultFailed, err
		}
	}

	return ResultPassed, nil
}

// withQuery appends query parameters in sorted order.
func withQuery(path string, query map[string]string) string {
	if len(query) == 0 {
		return path
	}
	values := url.Values{}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		values.Set(k, query[k])
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + values.Encode()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isFailure(result TestResult) bool {
	return result == ResultFailed || result == ResultError
}
