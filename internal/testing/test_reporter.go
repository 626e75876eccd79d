package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// testReporter implements the TestReporter interface for terminals
type testReporter struct {
	out             io.Writer
	verbose         bool
	debug           bool
	reportPath      string
	parallelMode    bool
	scenarioBuffers map[string]string
	mu              sync.Mutex
}

// NewTestReporter creates a reporter writing to stdout. When reportPath is
// set, a detailed JSON report is saved there after the suite completes.
func NewTestReporter(verbose, debug bool, reportPath string) TestReporter {
	return NewTestReporterWithWriter(os.Stdout, verbose, debug, reportPath)
}

// NewTestReporterWithWriter creates a reporter writing to out.
func NewTestReporterWithWriter(out io.Writer, verbose, debug bool, reportPath string) TestReporter {
	return &testReporter{
		out:             out,
		verbose:         verbose,
		debug:           debug,
		reportPath:      reportPath,
		scenarioBuffers: make(map[string]string),
	}
}

func (r *testReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// SetParallelMode enables or disables parallel output buffering
func (r *testReporter) SetParallelMode(parallel bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parallelMode = parallel
	if parallel {
		r.scenarioBuffers = make(map[string]string)
	}
}

// ReportStart is called when test execution begins
func (r *testReporter) ReportStart(config TestConfiguration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("🧪 Starting API test run\n")
	if config.Environment != "" {
		r.printf("🌍 Environment: %s\n", config.Environment)
	}

	if r.verbose {
		r.printf("\n⚙️  Configuration:\n")
		r.printf("   • Scenario: %s\n", stringOrDefault(config.Scenario, "all"))
		r.printf("   • Tags: %s\n", stringOrDefault(strings.Join(config.Tags, ", "), "all"))
		r.printf("   • Parallel scenarios: %d\n", config.Parallel)
		r.printf("   • Fail fast: %t\n", config.FailFast)
		r.printf("   • Retries: %d (delay %v)\n", config.Retry.Count, config.Retry.Delay)
		r.printf("   • Timeout: %v\n", config.Timeout)
		if config.ConfigPath != "" {
			r.printf("   • Scenario path: %s\n", config.ConfigPath)
		}
		if config.ReportPath != "" {
			r.printf("   • Report path: %s\n", config.ReportPath)
		}
		r.printf("\n")
	}
}

// ReportScenarioStart is called when a scenario begins
func (r *testReporter) ReportScenarioStart(scenario TestScenario) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.verbose {
		r.printf("🎯 Starting scenario: %s\n", scenario.Name)
		if scenario.Description != "" {
			r.printf("   📝 Description: %s\n", scenario.Description)
		}
		if len(scenario.Tags) > 0 {
			r.printf("   🏷️  Tags: %s\n", strings.Join(scenario.Tags, ", "))
		}
		r.printf("   📋 Steps: %d\n", len(scenario.Steps))
		if len(scenario.Cleanup) > 0 {
			r.printf("   🧹 Cleanup steps: %d\n", len(scenario.Cleanup))
		}
		if scenario.Timeout > 0 {
			r.printf("   ⏱️  Timeout: %v\n", scenario.Timeout)
		}
		r.printf("\n")
		return
	}

	if r.parallelMode {
		r.scenarioBuffers[scenario.Name] = fmt.Sprintf("🎯 %s... ", scenario.Name)
	} else {
		r.printf("🎯 %s... ", scenario.Name)
	}
}

// ReportStepResult is called when a step completes
func (r *testReporter) ReportStepResult(stepResult TestStepResult) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("   %s Step: %s (%v)\n", getResultSymbol(stepResult.Result), stepResult.Step.ID, stepResult.Duration)
	if stepResult.Step.Description != "" {
		r.printf("      📝 Description: %s\n", stepResult.Step.Description)
	}
	if stepResult.Method != "" {
		r.printf("      🌐 Request: %s %s\n", stepResult.Method, stepResult.URL)
	}
	if stepResult.StatusCode > 0 {
		r.printf("      📤 Status: %d\n", stepResult.StatusCode)
	}
	if stepResult.RetryCount > 0 {
		r.printf("      🔄 Retries: %d\n", stepResult.RetryCount)
	}
	for _, w := range stepResult.Warnings {
		r.printf("      ⚠️  %s\n", w)
	}
	if r.debug && stepResult.Response != "" {
		r.printf("      📦 Response:\n%s\n", indentText(formatResponse(stepResult.Response), "         "))
	}
	if stepResult.Error != "" {
		r.printf("      ❌ Error: %s\n", strings.ReplaceAll(stepResult.Error, "\n", "\n         "))
	}
	r.printf("\n")
}

// ReportScenarioResult is called when a scenario completes
func (r *testReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	symbol := getResultSymbol(scenarioResult.Result)

	if r.verbose {
		r.printf("%s Scenario completed: %s (%v)\n", symbol, scenarioResult.Scenario.Name, scenarioResult.Duration)
		if scenarioResult.Error != "" {
			r.printf("   ❌ Scenario Error: %s\n", scenarioResult.Error)
		}
		r.printf("\n")
		return
	}

	if r.parallelMode {
		bufferedStart, exists := r.scenarioBuffers[scenarioResult.Scenario.Name]
		delete(r.scenarioBuffers, scenarioResult.Scenario.Name)
		if !exists {
			bufferedStart = fmt.Sprintf("🎯 %s... ", scenarioResult.Scenario.Name)
		}
		r.printf("%s%s (%v)\n", bufferedStart, symbol, scenarioResult.Duration)
	} else {
		r.printf("%s (%v)\n", symbol, scenarioResult.Duration)
	}
	if scenarioResult.Error != "" {
		r.printf("   %s\n", strings.ReplaceAll(scenarioResult.Error, "\n", "\n   "))
	}
}

// ReportSuiteResult prints a summary table and saves the detailed report
func (r *testReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("\n🏁 Test Suite Complete (run %s)\n", suiteResult.RunID)
	r.printf("%s\n", summaryTable(suiteResult))

	successRate := 0.0
	if suiteResult.TotalScenarios > 0 {
		successRate = float64(suiteResult.PassedScenarios) / float64(suiteResult.TotalScenarios) * 100
	}
	r.printf("📏 Success Rate: %.1f%% in %v\n", successRate, suiteResult.Duration)

	if suiteResult.Succeeded() {
		r.printf("\n🎉 All tests passed!\n")
	} else {
		r.printf("\n💔 Some tests failed\n")
	}

	if r.reportPath != "" {
		path, err := SaveReport(r.reportPath, suiteResult)
		if err != nil {
			r.printf("⚠️  Failed to save detailed report: %v\n", err)
		} else {
			r.printf("📄 Detailed report saved to: %s\n", path)
		}
	}
}

// summaryTable renders one row per executed scenario plus a totals footer.
func summaryTable(suiteResult TestSuiteResult) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Scenario", "Result", "Steps", "Retries", "Duration"})

	results := make([]TestScenarioResult, len(suiteResult.ScenarioResults))
	copy(results, suiteResult.ScenarioResults)
	sort.SliceStable(results, func(i, j int) bool { return results[i].Scenario.Name < results[j].Scenario.Name })

	for _, res := range results {
		retries := 0
		for _, step := range res.StepResults {
			retries += step.RetryCount
		}
		t.AppendRow(table.Row{
			res.Scenario.Name,
			resultColor(res.Result).Sprint(res.Result),
			len(res.StepResults),
			retries,
			res.Duration.Round(time.Millisecond),
		})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("Total %d", suiteResult.TotalScenarios),
		fmt.Sprintf("%d passed, %d failed, %d errors, %d skipped",
			suiteResult.PassedScenarios, suiteResult.FailedScenarios, suiteResult.ErrorScenarios, suiteResult.SkippedScenarios),
		"", "",
		suiteResult.Duration.Round(time.Millisecond),
	})
	return t.Render()
}

func resultColor(result TestResult) text.Colors {
	switch result {
	case ResultPassed:
		return text.Colors{text.FgGreen}
	case ResultFailed:
		return text.Colors{text.FgRed}
	case ResultError:
		return text.Colors{text.FgHiRed, text.Bold}
	default:
		return text.Colors{text.FgYellow}
	}
}

// SaveReport writes suiteResult as indented JSON into dir and returns the
// file path. The file name carries the run ID.
func SaveReport(dir string, suiteResult TestSuiteResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	name := fmt.Sprintf("apiauto-report-%s-%s.json", suiteResult.StartTime.Format("20060102-150405"), suiteResult.RunID)
	fullPath := filepath.Join(dir, name)

	jsonData, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(fullPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return fullPath, nil
}

func getResultSymbol(result TestResult) string {
	switch result {
	case ResultPassed:
		return "✅"
	case ResultFailed:
		return "❌"
	case ResultSkipped:
		return "⏭️"
	case ResultError:
		return "💥"
	default:
		return "❓"
	}
}

// formatResponse pretty prints JSON bodies and truncates anything else.
func formatResponse(body string) string {
	var data interface{}
	if err := json.Unmarshal([]byte(body), &data); err == nil {
		if pretty, err := json.MarshalIndent(data, "", "  "); err == nil {
			return string(pretty)
		}
	}
	const maxLength = 200
	if len(body) > maxLength {
		return body[:maxLength] + "..."
	}
	return body
}

func indentText(s string, indent string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// NewQuietReporter creates a reporter that only outputs failures and the summary
func NewQuietReporter(out io.Writer) TestReporter {
	return &quietReporter{out: out}
}

// quietReporter implements minimal output for CI/CD integration
type quietReporter struct {
	mu  sync.Mutex
	out io.Writer
}

func (r *quietReporter) ReportStart(config TestConfiguration) {}

func (r *quietReporter) ReportScenarioStart(scenario TestScenario) {}

func (r *quietReporter) ReportStepResult(stepResult TestStepResult) {}

func (r *quietReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {
	if !isFailure(scenarioResult.Result) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s: %s\n", getResultSymbol(scenarioResult.Result), scenarioResult.Scenario.Name, scenarioResult.Error)
}

func (r *quietReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	if suiteResult.Succeeded() {
		fmt.Fprintf(r.out, "✅ All %d tests passed (%v)\n", suiteResult.TotalScenarios, suiteResult.Duration)
	} else {
		fmt.Fprintf(r.out, "❌ %d/%d tests failed (%v)\n",
			suiteResult.FailedScenarios+suiteResult.ErrorScenarios,
			suiteResult.TotalScenarios,
			suiteResult.Duration)
	}
}

func (r *quietReporter) SetParallelMode(parallel bool) {}

// NewJSONReporter creates a reporter that writes the suite result as JSON
// once all scenarios completed
func NewJSONReporter(out io.Writer) TestReporter {
	return &jsonReporter{out: out}
}

type jsonReporter struct {
	out io.Writer
}

func (r *jsonReporter) ReportStart(config TestConfiguration) {}

func (r *jsonReporter) ReportScenarioStart(scenario TestScenario) {}

func (r *jsonReporter) ReportStepResult(stepResult TestStepResult) {}

func (r *jsonReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {}

func (r *jsonReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	jsonBytes, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		fmt.Fprintf(r.out, `{"error": %q}`+"\n", err.Error())
		return
	}
	fmt.Fprintln(r.out, string(jsonBytes))
}

func (r *jsonReporter) SetParallelMode(parallel bool) {}
