package testing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jmespath/go-jmespath"

	"apiauto/internal/template"
)

// Validation error types
const (
	ValidationStructure    = "invalid_structure"
	ValidationExpression   = "invalid_store_expression"
	ValidationUndefinedVar = "undefined_variable"
)

// ScenarioValidationResults represents the results of validating multiple scenarios
type ScenarioValidationResults struct {
	TotalScenarios    int                        `json:"total_scenarios"`
	ValidScenarios    int                        `json:"valid_scenarios"`
	TotalErrors       int                        `json:"total_errors"`
	ScenarioResults   []ScenarioValidationResult `json:"scenario_results"`
	ValidationSummary map[string]int             `json:"validation_summary"`
}

// Valid reports whether every scenario passed validation.
func (r *ScenarioValidationResults) Valid() bool {
	return r.ValidScenarios == r.TotalScenarios
}

// ScenarioValidationResult represents the validation result for a single scenario
type ScenarioValidationResult struct {
	ScenarioName string                 `json:"scenario_name"`
	Valid        bool                   `json:"valid"`
	Errors       []ValidationError      `json:"errors,omitempty"`
	StepResults  []StepValidationResult `json:"step_results"`
}

// StepValidationResult represents the validation result for a single step
type StepValidationResult struct {
	StepID string            `json:"step_id"`
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a validation error
type ValidationError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidateScenarios checks scenarios without sending any request: the
// structure of every scenario, that store expressions compile, and that every
// placeholder names a scenario variable or a value stored by an earlier step.
func ValidateScenarios(scenarios []TestScenario) *ScenarioValidationResults {
	results := &ScenarioValidationResults{
		TotalScenarios:    len(scenarios),
		ScenarioResults:   make([]ScenarioValidationResult, 0, len(scenarios)),
		ValidationSummary: make(map[string]int),
	}

	engine := template.New()
	for _, scenario := range scenarios {
		scenarioResult := validateScenarioReferences(engine, scenario)
		results.ScenarioResults = append(results.ScenarioResults, scenarioResult)

		if scenarioResult.Valid {
			results.ValidScenarios++
		} else {
			results.TotalErrors += len(scenarioResult.Errors)
		}

		for _, err := range scenarioResult.Errors {
			results.ValidationSummary[err.Type]++
		}
		for _, stepResult := range scenarioResult.StepResults {
			if stepResult.Valid {
				results.ValidationSummary["valid_steps"]++
			} else {
				results.ValidationSummary["invalid_steps"]++
			}
		}
	}

	return results
}

func validateScenarioReferences(engine *template.Engine, scenario TestScenario) ScenarioValidationResult {
	result := ScenarioValidationResult{
		ScenarioName: scenario.Name,
		Valid:        true,
		StepResults:  make([]StepValidationResult, 0, len(scenario.Steps)+len(scenario.Cleanup)),
	}

	if err := ValidateScenario(scenario); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Type:    ValidationStructure,
			Message: err.Error(),
		})
	}

	known := make(map[string]bool, len(scenario.Variables))
	for name := range scenario.Variables {
		known[name] = true
	}

	// Cleanup steps see everything the main steps stored.
	allSteps := append(append([]TestStep{}, scenario.Steps...), scenario.Cleanup...)
	for _, step := range allSteps {
		stepResult := validateStepReferences(engine, step, known)
		result.StepResults = append(result.StepResults, stepResult)

		for name := range step.Store {
			known[name] = true
		}

		if !stepResult.Valid {
			result.Valid = false
			for _, err := range stepResult.Errors {
				result.Errors = append(result.Errors, ValidationError{
					Type:       err.Type,
					Message:    fmt.Sprintf("Step %s: %s", step.ID, err.Message),
					Field:      err.Field,
					Suggestion: err.Suggestion,
				})
			}
		}
	}

	return result
}

func validateStepReferences(engine *template.Engine, step TestStep, known map[string]bool) StepValidationResult {
	result := StepValidationResult{StepID: step.ID, Valid: true}

	names := make([]string, 0, len(step.Store))
	for name := range step.Store {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := jmespath.Compile(step.Store[name]); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:    ValidationExpression,
				Message: fmt.Sprintf("store expression %q for '%s' does not compile: %v", step.Store[name], name, err),
				Field:   "store." + name,
			})
		}
	}

	fields := []struct {
		name  string
		value interface{}
	}{
		{"request.path", step.Request.Path},
		{"request.headers", step.Request.Headers},
		{"request.query", step.Request.Query},
		{"request.body", step.Request.Body},
		{"request.file", step.Request.File},
		{"request.form", step.Request.Form},
		{"expected.body", step.Expected.Body},
	}
	for _, field := range fields {
		for _, varName := range engine.ExtractVariables(field.value) {
			if known[template.RootName(varName)] {
				continue
			}
			result.Errors = append(result.Errors, ValidationError{
				Type:       ValidationUndefinedVar,
				Message:    fmt.Sprintf("placeholder '%s' is not defined before this step", varName),
				Field:      field.name,
				Suggestion: "Declare it under variables or store it from an earlier step",
			})
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// FormatValidationResults renders results for the terminal. Valid scenarios
// are only listed when verbose is set.
func FormatValidationResults(results *ScenarioValidationResults, verbose bool) string {
	var b strings.Builder

	b.WriteString("🔍 Scenario validation\n")
	fmt.Fprintf(&b, "Total scenarios: %d\n", results.TotalScenarios)
	fmt.Fprintf(&b, "Valid scenarios: %d\n", results.ValidScenarios)
	fmt.Fprintf(&b, "Invalid scenarios: %d\n", results.TotalScenarios-results.ValidScenarios)
	fmt.Fprintf(&b, "Total errors: %d\n", results.TotalErrors)

	if len(results.ValidationSummary) > 0 {
		checks := make([]string, 0, len(results.ValidationSummary))
		for check := range results.ValidationSummary {
			checks = append(checks, check)
		}
		sort.Strings(checks)

		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Check", "Count"})
		for _, check := range checks {
			t.AppendRow(table.Row{check, results.ValidationSummary[check]})
		}
		b.WriteString("\n" + t.Render() + "\n")
	}

	if !verbose && results.TotalErrors == 0 {
		return b.String()
	}
	b.WriteString("\n")
	for _, sr := range results.ScenarioResults {
		if sr.Valid {
			if verbose {
				fmt.Fprintf(&b, "✅ %s\n", sr.ScenarioName)
			}
			continue
		}
		fmt.Fprintf(&b, "❌ %s\n", sr.ScenarioName)
		for _, e := range sr.Errors {
			fmt.Fprintf(&b, "   • %s: %s\n", e.Type, e.Message)
			if e.Suggestion != "" {
				fmt.Fprintf(&b, "     💡 %s\n", e.Suggestion)
			}
		}
	}
	return b.String()
}
