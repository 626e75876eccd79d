package cmd

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"apiauto/internal/testing/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersMockConfig = `routes:
  - method: GET
    path: /api/users/{id}
    responses:
      - body:
          id: "{{ id }}"
          name: alice
`

const getUserScenarioYAML = `name: get-user
description: Fetch a single user by id
service: users
tags: [smoke]
steps:
  - id: get
    request:
      method: GET
      path: api/users/7
    expected:
      status: 200
      body:
        id: "7"
        name: alice
`

const wrongNameScenarioYAML = `name: wrong-name
service: users
tags: [regression]
steps:
  - id: get
    request:
      method: GET
      path: api/users/8
    expected:
      status: 200
      body:
        name: bob
`

// newRunProject writes a config pointing the users service at a mock API
// and returns the config path and scenario directory.
func newRunProject(t *testing.T) (string, string) {
	t.Helper()
	t.Setenv("APP_ENV", "")

	dir := t.TempDir()
	mockConfig := writeTestFile(t, filepath.Join(dir, "mock.yaml"), usersMockConfig)
	api, err := mock.NewServerFromFile(mockConfig)
	require.NoError(t, err)
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	scenarioDir := filepath.Join(dir, "scenarios")
	writeTestFile(t, filepath.Join(scenarioDir, "get_user.yaml"), getUserScenarioYAML)
	writeTestFile(t, filepath.Join(scenarioDir, "wrong_name.yaml"), wrongNameScenarioYAML)

	configPath := writeTestFile(t, filepath.Join(dir, "apiauto.yaml"), `default_environment: local
environments:
  local:
    hosts:
      users: `+ts.URL+`
  staging:
    hosts:
      users: http://127.0.0.1:1
scenario_dir: `+scenarioDir+`
log_level: error
`)
	return configPath, scenarioDir
}

func TestRunCommand(t *testing.T) {
	configPath, scenarioDir := newRunProject(t)

	out, _, err := executeCommand(t, "", "--config", configPath, "run", "--tags", "smoke")
	require.NoError(t, err)
	assert.Contains(t, out, "All tests passed!")

	out, _, err = executeCommand(t, "", "--config", configPath, "run", filepath.Join(scenarioDir, "get_user.yaml"), "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_scenarios": 1`)
	assert.Contains(t, out, `"passed_scenarios": 1`)

	out, _, err = executeCommand(t, "", "--config", configPath, "run", "--quiet", "--parallel", "2")
	require.Error(t, err)
	var failed *ScenariosFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 1, failed.Failed)
	assert.Equal(t, ExitCodeMismatch, getExitCode(err))
	assert.Contains(t, out, "wrong-name")
	assert.Contains(t, out, "1/2 tests failed")
	assert.NotContains(t, out, "get-user:")
}

func TestRunCommand_Report(t *testing.T) {
	configPath, _ := newRunProject(t)
	reportDir := filepath.Join(t.TempDir(), "reports")

	out, _, err := executeCommand(t, "", "--config", configPath, "run", "--scenario", "get-user", "--quiet", "--report", reportDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Report saved to "+reportDir)

	files, err := filepath.Glob(filepath.Join(reportDir, "apiauto-report-*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestRunCommand_Environment(t *testing.T) {
	configPath, _ := newRunProject(t)

	out, _, err := executeCommand(t, "", "--config", configPath, "run", "--tags", "smoke", "--env", "staging", "--json", "--timeout", "10s")
	require.Error(t, err)
	assert.Contains(t, out, `"environment": "staging"`)

	_, _, err = executeCommand(t, "", "--config", configPath, "run", "--env", "production")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment")
}

func TestRunCommand_Validate(t *testing.T) {
	configPath, scenarioDir := newRunProject(t)

	out, _, err := executeCommand(t, "", "--config", configPath, "run", "--validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Valid scenarios: 2")

	writeTestFile(t, filepath.Join(scenarioDir, "broken.yaml"), `name: broken
steps:
  - id: get
    request:
      method: GET
      path: api/users/{{ missing_id }}
`)
	_, _, err = executeCommand(t, "", "--config", configPath, "run", "--validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario validation found errors")
}

func TestRunCommand_Flags(t *testing.T) {
	_, _, err := executeCommand(t, "", "run", "--parallel", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel workers must be between 1 and 50")

	_, _, err = executeCommand(t, "", "run", "--quiet", "--json")
	require.Error(t, err)
}

func TestRunCommand_NoScenarios(t *testing.T) {
	configPath, _ := newRunProject(t)
	empty := t.TempDir()

	_, errOut, err := executeCommand(t, "", "--config", configPath, "run", empty)
	require.NoError(t, err)
	assert.Contains(t, errOut, "No test scenarios found in "+empty)
}

func TestListScenarios(t *testing.T) {
	configPath, _ := newRunProject(t)

	out, _, err := executeCommand(t, "", "--config", configPath, "list", "scenarios")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, out, "get-user")
	assert.Contains(t, out, "smoke")
	assert.Contains(t, out, "Fetch a single user by id")

	out, _, err = executeCommand(t, "", "--config", configPath, "list", "scenarios", "--tags", "regression", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "wrong-name"`)
	assert.NotContains(t, out, "get-user")

	out, _, err = executeCommand(t, "", "--config", configPath, "list", "scenarios", "--no-headers")
	require.NoError(t, err)
	assert.NotContains(t, out, "NAME")
}

func TestListSpecs(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "api", "users_spec.rb"), "")
	writeTestFile(t, filepath.Join(dir, "api", "orders_spec.rb"), "")
	writeTestFile(t, filepath.Join(dir, "spec_helper.rb"), "")

	out, _, err := executeCommand(t, "", "list", "specs", dir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "api", "users_spec.rb"))
	assert.Contains(t, out, filepath.Join(dir, "api", "orders_spec.rb"))
	assert.NotContains(t, out, "spec_helper.rb")

	out, _, err = executeCommand(t, "", "list", "specs", dir, "--pattern", "users", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "users_spec.rb")
	assert.NotContains(t, out, "orders_spec.rb")

	_, errOut, err := executeCommand(t, "", "list", "specs", filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Contains(t, errOut, "No spec files found")
}

func TestMockCommand(t *testing.T) {
	dir := t.TempDir()
	mockConfig := writeTestFile(t, filepath.Join(dir, "mock.yaml"), usersMockConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		time.Sleep(300 * time.Millisecond)
		cancel()
	}()

	out, _, err := executeCommandContext(t, ctx, "", "mock", mockConfig)
	require.NoError(t, err)
	assert.Contains(t, out, "Mock API listening on http://localhost:")
	assert.Contains(t, out, "GET /api/users/{id}")
}

func TestMockCommand_Errors(t *testing.T) {
	_, _, err := executeCommand(t, "", "mock", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, _, err = executeCommand(t, "", "mock")
	require.Error(t, err)
}
