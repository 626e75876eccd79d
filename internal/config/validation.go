package config

import (
	"fmt"
	"sort"
	"strings"

	"apiauto/pkg/logging"
)

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// FieldError is a problem with one configuration field.
type FieldError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors holds every problem Validate found.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	if len(ve) == 1 {
		return ve[0].Error()
	}
	messages := make([]string, len(ve))
	for i, e := range ve {
		messages[i] = e.Error()
	}
	return fmt.Sprintf("%d problems: %s", len(ve), strings.Join(messages, "; "))
}

func (ve *ValidationErrors) add(field string, value interface{}, format string, args ...interface{}) {
	*ve = append(*ve, FieldError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

// Validate checks a loaded configuration. An environment that is selected but
// not configured is only an error when environments are configured at all,
// so suites that pass absolute URLs work without any hosts.
func Validate(c Config) error {
	var errs ValidationErrors

	if len(c.Environments) > 0 {
		names := c.EnvironmentNames()
		if _, ok := c.Environments[c.Environment]; !ok {
			errs.add("environment", c.Environment, "not configured, choose one of: %s", strings.Join(names, ", "))
		}
		for _, name := range names {
			env := c.Environments[name]
			if env.Scheme != "" && env.Scheme != "http" && env.Scheme != "https" {
				errs.add("environments."+name+".scheme", env.Scheme, "must be http or https")
			}
			for service, host := range env.Hosts {
				if strings.TrimSpace(host) == "" {
					errs.add("environments."+name+".hosts."+service, host, "must not be empty")
				}
			}
		}
	} else if c.Environment != DefaultEnvironmentName {
		logging.Warn("ConfigLoader", "Environment %s selected but no environments are configured", c.Environment)
	}

	if c.Retry.Count < 0 {
		errs.add("retry.count", c.Retry.Count, "must not be negative")
	}
	if c.Retry.Sleep < 0 {
		errs.add("retry.sleep", c.Retry.Sleep, "must not be negative")
	}
	if c.Timeout < 0 {
		errs.add("timeout", c.Timeout, "must not be negative")
	}
	if c.LogLevel != "" && !contains(logLevels, strings.ToLower(c.LogLevel)) {
		errs.add("log_level", c.LogLevel, "must be one of: %s", strings.Join(logLevels, ", "))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EnvironmentNames returns the configured environment names, sorted.
func (c Config) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
