package testing

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultScenarioPath is used when no scenario path is configured.
const DefaultScenarioPath = "scenarios"

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// scenarioLoader implements the TestScenarioLoader interface
type scenarioLoader struct {
	debug  bool
	logger TestLogger
}

// NewTestScenarioLoader creates a new test scenario loader
func NewTestScenarioLoader(debug bool) TestScenarioLoader {
	return &scenarioLoader{
		debug:  debug,
		logger: NewStdoutLogger(false, debug),
	}
}

// NewTestScenarioLoaderWithLogger creates a new test scenario loader with custom logger
func NewTestScenarioLoaderWithLogger(debug bool, logger TestLogger) TestScenarioLoader {
	return &scenarioLoader{
		debug:  debug,
		logger: logger,
	}
}

// LoadScenarios loads the scenarios of a YAML file or, recursively, of every
// .yaml/.yml file below a directory. A file may hold several scenarios as
// separate YAML documents. Scenarios are ordered by name.
func (l *scenarioLoader) LoadScenarios(configPath string) ([]TestScenario, error) {
	l.logger.Debug("📁 Loading test scenarios from: %s\n", configPath)

	info, err := os.Stat(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scenario path does not exist: %s", configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario path: %w", err)
	}

	var scenarios []TestScenario
	if info.IsDir() {
		scenarios, err = l.walkScenarioDir(configPath)
	} else {
		scenarios, err = l.readScenarioFile(configPath)
		if err == nil && len(scenarios) == 0 {
			err = fmt.Errorf("%s holds no scenarios", configPath)
		}
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(scenarios))
	for _, s := range scenarios {
		if other, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, other, s.SourceFile)
		}
		seen[s.Name] = s.SourceFile
	}
	sort.SliceStable(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })

	l.logger.Debug("📋 Loaded %d test scenarios\n", len(scenarios))
	for _, scenario := range scenarios {
		l.logger.Debug("  • %s - %d steps\n", scenario.Name, len(scenario.Steps))
	}
	return scenarios, nil
}

func (l *scenarioLoader) walkScenarioDir(dir string) ([]TestScenario, error) {
	var scenarios []TestScenario
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}
		fromFile, err := l.readScenarioFile(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, fromFile...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios from %s: %w", dir, err)
	}
	return scenarios, nil
}

// readScenarioFile decodes every YAML document of path as a scenario. Empty
// documents are skipped.
func (l *scenarioLoader) readScenarioFile(path string) ([]TestScenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	l.logger.Debug("📄 Loading scenario file: %s\n", path)

	var scenarios []TestScenario
	dec := yaml.NewDecoder(bytes.NewReader(content))
	for doc := 1; ; doc++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
		}
		if isEmptyDocument(&node) {
			continue
		}

		var scenario TestScenario
		if err := node.Decode(&scenario); err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s (document %d): %w", path, doc, err)
		}
		scenario.SourceFile = path
		if err := ValidateScenario(scenario); err != nil {
			return nil, fmt.Errorf("invalid scenario in %s (document %d): %w", path, doc, err)
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

func isEmptyDocument(node *yaml.Node) bool {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		node = node.Content[0]
	}
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// ValidateScenario checks that a scenario has the fields execution relies on.
func ValidateScenario(scenario TestScenario) error {
	if scenario.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(scenario.Steps) == 0 {
		return fmt.Errorf("scenario must have at least one step")
	}

	ids := make(map[string]bool)
	for i, step := range scenario.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if ids[step.ID] {
			return fmt.Errorf("step %d: duplicate step id %q", i+1, step.ID)
		}
		ids[step.ID] = true
	}
	for i, step := range scenario.Cleanup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("cleanup step %d: %w", i+1, err)
		}
	}
	return nil
}

func validateStep(step TestStep) error {
	if step.ID == "" {
		return fmt.Errorf("step id is required")
	}
	if step.Request.Path == "" {
		return fmt.Errorf("step %s: request path is required", step.ID)
	}
	method := strings.ToUpper(step.Request.Method)
	if method == "" {
		return fmt.Errorf("step %s: request method is required", step.ID)
	}
	if !allowedMethods[method] {
		return fmt.Errorf("step %s: unsupported request method %q", step.ID, step.Request.Method)
	}
	payloads := 0
	for _, set := range []bool{step.Request.Body != nil, step.Request.File != "", len(step.Request.Form) > 0} {
		if set {
			payloads++
		}
	}
	if payloads > 1 {
		return fmt.Errorf("step %s: request body, file and form are mutually exclusive", step.ID)
	}
	if step.Expected.Status != 0 && (step.Expected.Status < 100 || step.Expected.Status > 599) {
		return fmt.Errorf("step %s: invalid expected status %d", step.ID, step.Expected.Status)
	}

	if step.Retry != nil {
		if step.Retry.Count < 0 {
			return fmt.Errorf("retry count cannot be negative")
		}
		if step.Retry.Delay < 0 {
			return fmt.Errorf("retry delay cannot be negative")
		}
		if step.Retry.BackoffMultiplier < 0 {
			return fmt.Errorf("backoff multiplier cannot be negative")
		}
	}
	return nil
}

// FilterScenarios keeps the scenarios selected by name and tags.
func (l *scenarioLoader) FilterScenarios(scenarios []TestScenario, config TestConfiguration) []TestScenario {
	l.logger.Debug("🔍 Filtering scenarios (scenario: %s, tags: %s)\n",
		stringOrDefault(config.Scenario, "all"), stringOrDefault(strings.Join(config.Tags, ","), "all"))

	var filtered []TestScenario
	for _, scenario := range scenarios {
		if config.Scenario != "" && scenario.Name != config.Scenario {
			continue
		}
		if len(config.Tags) > 0 && !hasAnyTag(scenario, config.Tags) {
			continue
		}
		filtered = append(filtered, scenario)
	}

	l.logger.Debug("📊 Filtered to %d scenarios\n", len(filtered))
	return filtered
}

func hasAnyTag(scenario TestScenario, tags []string) bool {
	for _, want := range tags {
		for _, tag := range scenario.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// GetScenarioNames returns all scenario names
func GetScenarioNames(scenarios []TestScenario) []string {
	names := make([]string, 0, len(scenarios))
	for _, scenario := range scenarios {
		names = append(names, scenario.Name)
	}
	return names
}

// GetScenarioPath determines the actual scenario path to use, handling empty/default cases
func GetScenarioPath(configPath string) string {
	if configPath == "" {
		return DefaultScenarioPath
	}
	return configPath
}

// LoadAndFilterScenarios provides a unified way to load and filter scenarios
func LoadAndFilterScenarios(configPath string, config TestConfiguration, logger TestLogger) ([]TestScenario, error) {
	actualPath := GetScenarioPath(configPath)

	var loader TestScenarioLoader
	if logger != nil {
		loader = NewTestScenarioLoaderWithLogger(config.Debug, logger)
	} else {
		loader = NewTestScenarioLoader(config.Debug)
	}

	scenarios, err := loader.LoadScenarios(actualPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios from %s: %w", actualPath, err)
	}
	return loader.FilterScenarios(scenarios, config), nil
}

// LoadScenariosForCompletion loads scenarios for shell completion, returning
// an empty list instead of an error.
func LoadScenariosForCompletion(configPath string) ([]TestScenario, error) {
	loader := NewTestScenarioLoaderWithLogger(false, NewSilentLogger(false, false))
	scenarios, err := loader.LoadScenarios(GetScenarioPath(configPath))
	if err != nil {
		return []TestScenario{}, nil
	}
	return scenarios, nil
}

func stringOrDefault(s, defaultValue string) string {
	if s == "" {
		return defaultValue
	}
	return s
}
