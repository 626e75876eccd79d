package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"apiauto/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is looked up in the working directory when no path is given.
	ConfigFileName = "apiauto.yaml"
	dotEnvFileName = ".env"
)

// lookupEnv is a package variable so tests can replace the environment.
var lookupEnv = os.LookupEnv

// LoadConfig reads the YAML config file at configFilePath, loads a .env file
// next to it, and applies environment overrides. A missing config file is not
// an error: the defaults are used instead.
//
// Environment overrides:
//   - APP_ENV (or app_env) selects the environment
//   - USERNAME/PASSWORD (or username/password) replace the credentials, both must be set
//   - RETRY_COUNT/RETRY_SLEEP (or retry_count/retry_sleep, sleep in seconds) replace the retry settings
func LoadConfig(configFilePath string) (Config, error) {
	if configFilePath == "" {
		configFilePath = ConfigFileName
	}
	if err := loadDotEnv(filepath.Join(filepath.Dir(configFilePath), dotEnvFileName)); err != nil {
		return Config{}, err
	}

	config := GetDefaultConfig()
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "Error loading %s: %s", configFilePath, err)
			return Config{}, err
		}
		logging.Info("ConfigLoader", "No %s found, using defaults", configFilePath)
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	if err := applyEnvOverrides(&config); err != nil {
		return Config{}, err
	}
	if err := Validate(config); err != nil {
		// the parsed config is still returned for callers that only inspect it
		return config, fmt.Errorf("invalid configuration in %s: %w", configFilePath, err)
	}
	logging.Debug("ConfigLoader", "Active environment is %s", config.Environment)
	return config, nil
}

// loadDotEnv exports the variables of path unless they are already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logging.Debug("ConfigLoader", "Loaded environment from %s", path)
	return nil
}

func getenv(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := lookupEnv(name); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func applyEnvOverrides(c *Config) error {
	c.Environment = c.DefaultEnvironment
	if env, ok := getenv("APP_ENV", "app_env"); ok {
		c.Environment = env
	}
	if c.Environment == "" {
		c.Environment = DefaultEnvironmentName
	}

	user, hasUser := getenv("USERNAME", "username")
	pass, hasPass := getenv("PASSWORD", "password")
	if hasUser && hasPass {
		c.Credentials = Credentials{Username: user, Password: pass}
		logging.Debug("ConfigLoader", "Using credentials of %s from the environment", user)
	}

	if v, ok := getenv("RETRY_COUNT", "retry_count"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid retry count %q: %w", v, err)
		}
		c.Retry.Count = n
	}
	if v, ok := getenv("RETRY_SLEEP", "retry_sleep"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid retry sleep %q: %w", v, err)
		}
		c.Retry.Sleep = time.Duration(n) * time.Second
	}
	return nil
}

// ActiveEnvironment returns the hosts of the selected environment.
func (c Config) ActiveEnvironment() (Environment, bool) {
	env, ok := c.Environments[c.Environment]
	return env, ok
}

// HostURL returns the base URL of service in the active environment, e.g.
// "https://reqres.in". Hosts that already carry a scheme are returned as-is.
func (c Config) HostURL(service string) (string, error) {
	env, ok := c.ActiveEnvironment()
	if !ok {
		return "", fmt.Errorf("environment %q is not configured", c.Environment)
	}
	host, ok := env.Hosts[service]
	if !ok || host == "" {
		return "", fmt.Errorf("no host for %q in environment %q", service, c.Environment)
	}
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/"), nil
	}
	scheme := env.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	return scheme + "://" + strings.TrimRight(host, "/"), nil
}
