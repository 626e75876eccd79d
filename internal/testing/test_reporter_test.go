package testing

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSuiteResult() TestSuiteResult {
	start := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	return TestSuiteResult{
		RunID:           "run-1",
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		Duration:        2 * time.Second,
		TotalScenarios:  2,
		PassedScenarios: 1,
		FailedScenarios: 1,
		ScenarioResults: []TestScenarioResult{
			{
				Scenario: TestScenario{Name: "zeta"},
				Result:   ResultFailed,
				Duration: time.Second,
				Error:    "step get: name is wrong!",
				StepResults: []TestStepResult{
					{Step: TestStep{ID: "get"}, Result: ResultFailed, RetryCount: 2},
				},
			},
			{
				Scenario:    TestScenario{Name: "alpha"},
				Result:      ResultPassed,
				Duration:    time.Second,
				StepResults: []TestStepResult{{Step: TestStep{ID: "get"}, Result: ResultPassed}},
			},
		},
		Configuration: TestConfiguration{Parallel: 1, Environment: "dev"},
	}
}

func TestTestReporter_SuiteSummary(t *testing.T) {
	var out bytes.Buffer
	dir := t.TempDir()
	reporter := NewTestReporterWithWriter(&out, false, false, dir)

	reporter.ReportSuiteResult(sampleSuiteResult())

	text := out.String()
	assert.Contains(t, text, "Test Suite Complete (run run-1)")
	// go-pretty upper-cases header and footer rows.
	assert.Contains(t, text, "SCENARIO")
	assert.Contains(t, text, "RETRIES")
	assert.Contains(t, text, "1 PASSED, 1 FAILED, 0 ERRORS, 0 SKIPPED")
	assert.Contains(t, text, "Success Rate: 50.0%")
	assert.Contains(t, text, "Some tests failed")
	assert.Less(t, strings.Index(text, "alpha"), strings.Index(text, "zeta"))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "apiauto-report-20240301-123000-run-1.json", files[0].Name())
	assert.Contains(t, text, "Detailed report saved to: "+filepath.Join(dir, files[0].Name()))
}

func TestTestReporter_ScenarioLines(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		parallel bool
		want     []string
	}{
		{name: "compact", want: []string{"🎯 login... ❌", "   step s: boom"}},
		{name: "parallel", parallel: true, want: []string{"🎯 login... ❌", "   step s: boom"}},
		{name: "verbose", verbose: true, want: []string{
			"🎯 Starting scenario: login",
			"❌ Step: s",
			"🌐 Request: GET http://api/x",
			"📤 Status: 500",
			"⚠️  extra is not expected",
			"❌ Scenario completed: login",
			"Scenario Error: step s: boom",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			reporter := NewTestReporterWithWriter(&out, tt.verbose, false, "")
			reporter.SetParallelMode(tt.parallel)

			scenario := TestScenario{Name: "login"}
			reporter.ReportScenarioStart(scenario)
			reporter.ReportStepResult(TestStepResult{
				ScenarioName: "login",
				Step:         TestStep{ID: "s"},
				Result:       ResultFailed,
				Method:       "GET",
				URL:          "http://api/x",
				StatusCode:   500,
				Warnings:     []string{"extra is not expected (/extra)"},
				Error:        "boom",
			})
			reporter.ReportScenarioResult(TestScenarioResult{Scenario: scenario, Result: ResultFailed, Error: "step s: boom"})

			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestQuietReporter(t *testing.T) {
	var out bytes.Buffer
	reporter := NewQuietReporter(&out)

	suite := sampleSuiteResult()
	for _, res := range suite.ScenarioResults {
		reporter.ReportScenarioResult(res)
	}
	reporter.ReportSuiteResult(suite)

	assert.Contains(t, out.String(), "❌ zeta: step get: name is wrong!")
	assert.NotContains(t, out.String(), "alpha")
	assert.Contains(t, out.String(), "1/2 tests failed")
}

func TestJSONReporter(t *testing.T) {
	var out bytes.Buffer
	NewJSONReporter(&out).ReportSuiteResult(sampleSuiteResult())

	var decoded TestSuiteResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.ScenarioResults, 2)
}

func TestSaveReport_OmitsCredentials(t *testing.T) {
	suite := sampleSuiteResult()
	suite.Configuration.Credentials.Password = "hunter2"

	path, err := SaveReport(t.TempDir(), suite)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
}

func TestFormatResponse(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", formatResponse(`{"a":1}`))
	assert.Equal(t, "plain", formatResponse("plain"))
	long := strings.Repeat("x", 300)
	assert.Equal(t, long[:200]+"...", formatResponse(long))
	assert.Equal(t, "  a\n  b", indentText("a\nb", "  "))
}

func TestStructuredReporter(t *testing.T) {
	_, ts := newMockAPI(t)
	dir := t.TempDir()
	reporter := NewStructuredReporter(dir)

	assert.Nil(t, reporter.SuiteResult())
	js, err := reporter.ResultsJSON()
	require.NoError(t, err)
	assert.Contains(t, js, "no_results")

	runner := newRunner(ts.URL, reporter)
	skipped := TestScenario{Name: "skipped", Skip: true, Steps: []TestStep{{ID: "s", Request: StepRequest{Method: "GET", Path: "/"}}}}
	failing := TestScenario{Name: "failing", Steps: []TestStep{{ID: "s", Request: StepRequest{Method: "GET", Path: "/api/unknown"}}}}
	passing := TestScenario{Name: "passing", Steps: []TestStep{{ID: "s", Request: StepRequest{Method: "GET", Path: "/api/users/1"}}}}

	result, err := runner.Run(context.Background(), defaultRunConfig(), []TestScenario{passing, failing, skipped})
	require.NoError(t, err)

	current := reporter.SuiteResult()
	require.NotNil(t, current)
	assert.Equal(t, result.RunID, current.RunID)
	assert.Equal(t, 1, current.PassedScenarios)
	assert.Equal(t, 1, current.FailedScenarios)
	assert.Equal(t, 1, current.SkippedScenarios)
	assert.Len(t, current.ScenarioResults, 3)

	progress := reporter.Progress()
	require.Len(t, progress, 3)
	assert.Equal(t, StatusPassed, progress["passing"].Status)
	assert.Equal(t, 1, progress["passing"].StepsRun)
	assert.Equal(t, StatusFailed, progress["failing"].Status)
	assert.Equal(t, 1, progress["failing"].StepsFailed)
	assert.NotEmpty(t, progress["failing"].LastError)
	assert.Equal(t, StatusSkipped, progress["skipped"].Status)
	assert.Zero(t, progress["skipped"].StepsRun)

	js, err = reporter.ResultsJSON()
	require.NoError(t, err)
	assert.Contains(t, js, result.RunID)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
