package config

import "time"

const (
	// DefaultEnvironmentName is the environment used when neither APP_ENV nor
	// default_environment is set.
	DefaultEnvironmentName = "dev"

	// DefaultScheme is prepended to hosts that do not carry their own scheme.
	DefaultScheme = "https"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
)

// GetDefaultConfig returns the configuration used when no config file exists.
func GetDefaultConfig() Config {
	return Config{
		DefaultEnvironment: DefaultEnvironmentName,
		Environments:       map[string]Environment{},
		Headers: map[string]string{
			"Accept": "application/json",
		},
		Timeout:     DefaultTimeout,
		SpecDir:     "spec/api",
		PerfDir:     "perf",
		ScenarioDir: "scenarios",
		LogLevel:    "info",
	}
}
