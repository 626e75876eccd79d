package config

import "time"

// Config is the top-level configuration of the API test suite.
type Config struct {
	// DefaultEnvironment is used when APP_ENV is not set.
	DefaultEnvironment string `yaml:"default_environment,omitempty"`
	// Environments maps an environment name to its hosts.
	Environments map[string]Environment `yaml:"environments,omitempty"`

	Headers     map[string]string `yaml:"headers,omitempty"`     // Headers sent with every request
	Cookies     map[string]string `yaml:"cookies,omitempty"`     // Cookies sent with every request
	Credentials Credentials       `yaml:"credentials,omitempty"` // Default test user
	Retry       RetryConfig       `yaml:"retry,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty"` // Per-request timeout

	SpecDir     string `yaml:"spec_dir,omitempty"`     // Where generated RSpec files go
	PerfDir     string `yaml:"perf_dir,omitempty"`     // Where generated k6 scripts go
	ScenarioDir string `yaml:"scenario_dir,omitempty"` // Where YAML scenarios live
	LogLevel    string `yaml:"log_level,omitempty"`

	// Environment is the resolved active environment name. It is never read from the file.
	Environment string `yaml:"-"`
}

// Environment holds the hosts of one deployment stage.
type Environment struct {
	// Scheme defaults to https.
	Scheme string            `yaml:"scheme,omitempty"`
	Hosts  map[string]string `yaml:"hosts"`
}

// Credentials identify the default test user.
type Credentials struct {
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// RetryConfig controls how often a failing scenario step is retried.
type RetryConfig struct {
	Count int           `yaml:"count,omitempty"`
	Sleep time.Duration `yaml:"sleep,omitempty"`
}

// HasCredentials reports whether both username and password are set.
func (c Credentials) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}
