package cmd

import (
	"errors"
	"fmt"
	"os"

	"apiauto/internal/config"
	"apiauto/internal/curl"
	"apiauto/internal/matcher"
	"apiauto/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeMismatch indicates a response did not match its expectation or
	// a scenario run had failures.
	ExitCodeMismatch = 2
	// ExitCodeParseError indicates a curl command could not be parsed.
	ExitCodeParseError = 3
)

var (
	// configFile is the path of the suite configuration file.
	configFile string
	// logLevel overrides the log_level of the configuration file when set.
	logLevel string
)

// rootCmd represents the base command for the apiauto application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "apiauto",
	Short: "Generate and run API tests from curl commands",
	Long: `apiauto turns curl commands into RSpec request specs and k6 load scripts,
matches API responses against expected documents and runs YAML test
scenarios against the configured environments.

It can also run as an MCP server so AI assistants can use the same
generators and runner as tools.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging(logLevel, logging.LevelWarn)
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	// SetVersionTemplate defines a custom template for displaying the version.
	// This is used when the --version flag is invoked.
	rootCmd.SetVersionTemplate(`{{printf "apiauto version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var matchErr *matcher.MatchError
	if errors.As(err, &matchErr) {
		return ExitCodeMismatch
	}

	var failedErr *ScenariosFailedError
	if errors.As(err, &failedErr) {
		return ExitCodeMismatch
	}

	var parseErr *curl.ParseError
	if errors.As(err, &parseErr) {
		return ExitCodeParseError
	}

	return ExitCodeError
}

// ScenariosFailedError is returned by run when scenarios failed or errored.
type ScenariosFailedError struct {
	Failed  int
	Errored int
}

func (e *ScenariosFailedError) Error() string {
	return fmt.Sprintf("%d scenario(s) failed, %d errored", e.Failed, e.Errored)
}

// initLogging sets up CLI logging on stderr. An empty level selects fallback.
func initLogging(level string, fallback logging.LogLevel) error {
	if level == "" {
		logging.InitForCLI(fallback, os.Stderr)
		return nil
	}
	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	logging.InitForCLI(parsed, os.Stderr)
	return nil
}

// loadConfig reads the configuration file named by --config. Unless
// --log-level was given, logging switches to the level of the file.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel == "" && cfg.LogLevel != "" {
		if err := initLogging(cfg.LogLevel, logging.LevelWarn); err != nil {
			return config.Config{}, fmt.Errorf("invalid log_level in %s: %w", configFileOrDefault(), err)
		}
	}
	return cfg, nil
}

func configFileOrDefault() string {
	if configFile == "" {
		return config.ConfigFileName
	}
	return configFile
}

// init is a special Go function that is executed when the package is initialized.
// It is used here to add global flags and subcommands to the root command.
func init() {
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("Path to the suite configuration file (default %s)", config.ConfigFileName))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to the log_level of the config file")
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
}
