package testing

import (
	"bytes"
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiauto/internal/config"
)

func TestDefaultTestConfiguration(t *testing.T) {
	cfg := config.Config{
		ScenarioDir: "api-scenarios",
		Environment: "staging",
		Retry:       config.RetryConfig{Count: 3, Sleep: 2 * time.Second},
		Credentials: config.Credentials{Username: "qa", Password: "pw"},
	}

	tc := DefaultTestConfiguration(cfg)
	assert.Equal(t, "api-scenarios", tc.ConfigPath)
	assert.Equal(t, "staging", tc.Environment)
	assert.Equal(t, RetryConfig{Count: 3, Delay: 2 * time.Second}, tc.Retry)
	assert.Equal(t, cfg.Credentials, tc.Credentials)
	assert.Equal(t, 1, tc.Parallel)
	assert.NoError(t, ValidateConfiguration(tc))

	assert.Equal(t, DefaultScenarioPath, DefaultTestConfiguration(config.Config{}).ConfigPath)
}

func TestValidateConfiguration(t *testing.T) {
	valid := TestConfiguration{Timeout: time.Minute, Parallel: 1}

	tests := []struct {
		name    string
		mutate  func(*TestConfiguration)
		wantErr string
	}{
		{name: "valid", mutate: func(*TestConfiguration) {}},
		{name: "zero timeout", mutate: func(c *TestConfiguration) { c.Timeout = 0 }, wantErr: "timeout must be positive"},
		{name: "zero parallel", mutate: func(c *TestConfiguration) { c.Parallel = 0 }, wantErr: "at least 1"},
		{name: "negative retries", mutate: func(c *TestConfiguration) { c.Retry.Count = -1 }, wantErr: "retry count"},
		{name: "negative delay", mutate: func(c *TestConfiguration) { c.Retry.Delay = -time.Second }, wantErr: "retry delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := ValidateConfiguration(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewTestFramework_Modes(t *testing.T) {
	_, err := NewTestFramework(config.Config{}, FrameworkOptions{Mode: "gui"})
	require.Error(t, err)

	_, err = NewTestFrameworkWithClients(nil, FrameworkOptions{})
	require.Error(t, err)

	fw, err := NewTestFramework(config.Config{}, FrameworkOptions{Mode: ExecutionModeMCPServer})
	require.NoError(t, err)
	_, structured := fw.Reporter.(StructuredTestReporter)
	assert.True(t, structured)
}

func TestNewTestFramework_RunsAgainstConfiguredHost(t *testing.T) {
	_, ts := newMockAPI(t)
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	cfg := config.Config{
		Environment: "local",
		Environments: map[string]config.Environment{
			"local": {Scheme: u.Scheme, Hosts: map[string]string{"users": u.Host}},
		},
	}

	var out bytes.Buffer
	fw, err := NewTestFramework(cfg, FrameworkOptions{Mode: ExecutionModeCLI, Output: &out})
	require.NoError(t, err)

	scenario := TestScenario{Name: "get-user", Service: "users", Steps: []TestStep{
		{ID: "get", Request: StepRequest{Method: "GET", Path: "api/users/5"}, Expected: TestExpectation{Body: map[string]interface{}{"id": "5"}}},
	}}

	result, err := fw.Runner.Run(context.Background(), TestConfiguration{Timeout: time.Minute, Parallel: 1}, []TestScenario{scenario})
	require.NoError(t, err)
	assert.True(t, result.Succeeded(), result.ScenarioResults[0].Error)
	assert.Contains(t, out.String(), "All tests passed!")
}

func TestNewTestFramework_ReporterOverride(t *testing.T) {
	var out bytes.Buffer
	reporter := NewQuietReporter(&out)
	fw, err := NewTestFramework(config.Config{}, FrameworkOptions{Mode: ExecutionModeCLI, Reporter: reporter})
	require.NoError(t, err)
	assert.Same(t, reporter, fw.Reporter)

	result, err := fw.Runner.Run(context.Background(), TestConfiguration{Timeout: time.Minute, Parallel: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalScenarios)
	assert.Contains(t, out.String(), "All 0 tests passed")
}
