package testing

import (
	"encoding/json"
	"sync"
	"time"

	"apiauto/pkg/logging"
)

// ScenarioStatus is where a scenario stands within the current run.
type ScenarioStatus string

const (
	StatusRunning ScenarioStatus = "running"
	StatusPassed  ScenarioStatus = "passed"
	StatusFailed  ScenarioStatus = "failed"
	StatusSkipped ScenarioStatus = "skipped"
	StatusErrored ScenarioStatus = "errored"
)

// ScenarioProgress is what is known about a scenario while it runs.
type ScenarioProgress struct {
	Status      ScenarioStatus `json:"status"`
	StartTime   time.Time      `json:"start_time"`
	StepsRun    int            `json:"steps_run"`
	StepsFailed int            `json:"steps_failed"`
	LastError   string         `json:"last_error,omitempty"`
}

// structuredReporter keeps results in memory instead of printing them.
type structuredReporter struct {
	mu         sync.RWMutex
	reportPath string
	suite      *TestSuiteResult
	progress   map[string]*ScenarioProgress
}

// NewStructuredReporter returns a reporter that collects results without
// writing to stdio. A non-empty reportPath also receives a JSON report of
// every finished run.
func NewStructuredReporter(reportPath string) StructuredTestReporter {
	return &structuredReporter{
		reportPath: reportPath,
		progress:   make(map[string]*ScenarioProgress),
	}
}

func (r *structuredReporter) ReportStart(config TestConfiguration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.suite = &TestSuiteResult{
		StartTime:       time.Now(),
		ScenarioResults: []TestScenarioResult{},
		Configuration:   config,
	}
	r.progress = make(map[string]*ScenarioProgress)
}

func (r *structuredReporter) ReportScenarioStart(scenario TestScenario) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress[scenario.Name] = &ScenarioProgress{Status: StatusRunning, StartTime: time.Now()}
}

func (r *structuredReporter) ReportStepResult(stepResult TestStepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.progress[stepResult.ScenarioName]
	if !ok {
		return
	}
	p.StepsRun++
	if isFailure(stepResult.Result) {
		p.StepsFailed++
		p.LastError = stepResult.Error
	}
}

func (r *structuredReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.progress[scenarioResult.Scenario.Name]
	if !ok {
		p = &ScenarioProgress{StartTime: scenarioResult.StartTime}
		r.progress[scenarioResult.Scenario.Name] = p
	}
	p.Status = statusOf(scenarioResult.Result)
	if scenarioResult.Error != "" {
		p.LastError = scenarioResult.Error
	}

	if r.suite != nil {
		r.suite.ScenarioResults = append(r.suite.ScenarioResults, scenarioResult)
		r.suite.TotalScenarios = len(r.suite.ScenarioResults)
		r.suite.tally(scenarioResult)
	}
}

// ReportSuiteResult replaces the collected counts with the runner's final
// ones, which also cover scenarios dropped by fail-fast.
func (r *structuredReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	r.mu.Lock()
	r.suite = &suiteResult
	r.mu.Unlock()

	if r.reportPath == "" {
		return
	}
	if _, err := SaveReport(r.reportPath, suiteResult); err != nil {
		logging.Error("TestFramework", err, "Failed to save report to %s", r.reportPath)
	}
}

func (r *structuredReporter) SetParallelMode(bool) {}

func (r *structuredReporter) SuiteResult() *TestSuiteResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.suite == nil {
		return nil
	}
	suite := *r.suite
	suite.ScenarioResults = append([]TestScenarioResult(nil), r.suite.ScenarioResults...)
	return &suite
}

func (r *structuredReporter) Progress() map[string]ScenarioProgress {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]ScenarioProgress, len(r.progress))
	for name, p := range r.progress {
		snapshot[name] = *p
	}
	return snapshot
}

func (r *structuredReporter) ResultsJSON() (string, error) {
	suite := r.SuiteResult()
	if suite == nil {
		return `{"status": "no_results", "message": "No test results available"}`, nil
	}
	data, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func statusOf(result TestResult) ScenarioStatus {
	switch result {
	case ResultPassed:
		return StatusPassed
	case ResultSkipped:
		return StatusSkipped
	case ResultError:
		return StatusErrored
	default:
		return StatusFailed
	}
}
