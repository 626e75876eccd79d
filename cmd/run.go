package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"apiauto/internal/cli"
	"apiauto/internal/config"
	"apiauto/internal/testing"
	"apiauto/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	runTimeout  time.Duration
	runVerbose  bool
	runDebug    bool
	runScenario string
	runTags     []string
	runReport   string
	runFailFast bool
	runParallel int
	runEnv      string
	runWatch    bool
	runValidate bool
	runQuiet    bool
	runJSON     bool
)

// completeScenarioFlag provides shell completion for the scenario flag by loading available scenarios
func completeScenarioFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else if cfg, err := config.LoadConfig(configFile); err == nil {
		path = cfg.ScenarioDir
	}
	scenarios, _ := testing.LoadScenariosForCompletion(path)
	return testing.GetScenarioNames(scenarios), cobra.ShellCompDirectiveNoFileComp
}

// completeEnvFlag offers the configured environments. The configuration may
// fail validation because of the very APP_ENV being completed.
func completeEnvFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, _ := config.LoadConfig(configFile)
	return cfg.EnvironmentNames(), cobra.ShellCompDirectiveNoFileComp
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Run YAML API test scenarios",
	Long: `Runs API test scenarios against the hosts of the active environment.

A scenario is a YAML document with a name, the service its requests go to
and a list of steps. Each step sends one request, checks the status code
and matches the response body against an expected document. Values can be
stored from responses with JMESPath expressions and used by later steps as
{{ name }} placeholders.

path is a scenario file or a directory searched recursively for *.yaml
files. It defaults to scenario_dir from the configuration file.

The active environment is taken from --env, APP_ENV, or default_environment
in that order.

Example usage:
  apiauto run                              # Run all scenarios in scenario_dir
  apiauto run scenarios/users.yaml         # Run one file
  apiauto run --tags smoke --parallel 4    # Run smoke scenarios, 4 at a time
  apiauto run --scenario create-user -v    # Run one scenario with step details
  apiauto run --env staging --fail-fast    # Stop on the first failure
  apiauto run --report reports/            # Save a JSON report
  apiauto run --watch                      # Re-run whenever a scenario changes
  apiauto run --validate                   # Check scenarios without sending requests

Scenario failures exit with code 2.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScenarios,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "Overall test execution timeout")

	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Show step details and responses")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Enable debug output of requests and template resolution")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Only report failures and the summary")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the suite result as JSON")

	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Run specific test scenario by name")
	runCmd.Flags().StringSliceVar(&runTags, "tags", nil, "Run scenarios carrying any of these tags")

	runCmd.Flags().StringVar(&runReport, "report", "", "Directory to save a detailed JSON report to")
	runCmd.Flags().StringVar(&runEnv, "env", "", "Environment to run against (overrides APP_ENV)")

	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Stop test execution on first failure")
	runCmd.Flags().IntVar(&runParallel, "parallel", 1, "Number of scenarios run concurrently (1-50)")

	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Re-run the scenarios whenever a scenario file changes")
	runCmd.Flags().BoolVar(&runValidate, "validate", false, "Validate scenarios and placeholders without sending requests")

	_ = runCmd.RegisterFlagCompletionFunc("scenario", completeScenarioFlag)
	_ = runCmd.RegisterFlagCompletionFunc("env", completeEnvFlag)

	runCmd.MarkFlagsMutuallyExclusive("quiet", "json")
	runCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")
	runCmd.MarkFlagsMutuallyExclusive("json", "verbose")
	runCmd.MarkFlagsMutuallyExclusive("validate", "watch")
	runCmd.MarkFlagsMutuallyExclusive("validate", "fail-fast")
	runCmd.MarkFlagsMutuallyExclusive("validate", "parallel")

	runCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if runParallel < 1 || runParallel > 50 {
			return fmt.Errorf("parallel workers must be between 1 and 50, got %d", runParallel)
		}
		return nil
	}
}

func runScenarios(cmd *cobra.Command, args []string) error {
	// Create context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt signal, stopping tests gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if runEnv != "" {
		if err := os.Setenv("APP_ENV", runEnv); err != nil {
			return fmt.Errorf("failed to select environment: %w", err)
		}
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runDebug {
		logging.InitForCLI(logging.LevelDebug, os.Stderr)
	}

	testConfig := testing.DefaultTestConfiguration(cfg)
	if len(args) > 0 {
		testConfig.ConfigPath = args[0]
	}
	testConfig.Timeout = runTimeout
	testConfig.Parallel = runParallel
	testConfig.FailFast = runFailFast
	testConfig.Verbose = runVerbose
	testConfig.Debug = runDebug
	testConfig.Scenario = runScenario
	testConfig.Tags = runTags
	testConfig.ReportPath = runReport
	if err := testing.ValidateConfiguration(testConfig); err != nil {
		return err
	}

	if runValidate {
		return validateScenarios(cmd.OutOrStdout(), testConfig)
	}

	suite := &scenarioSuite{
		out:        cmd.OutOrStdout(),
		errOut:     cmd.ErrOrStderr(),
		newClient:  testing.NewConfigClientFactory(cfg),
		testConfig: testConfig,
	}
	if !runWatch {
		return suite.run(ctx)
	}
	return suite.watch(ctx)
}

// scenarioSuite loads and runs the selected scenarios, once or on every change.
type scenarioSuite struct {
	out        io.Writer
	errOut     io.Writer
	newClient  testing.ClientFactory
	testConfig testing.TestConfiguration
}

func (s *scenarioSuite) run(ctx context.Context) error {
	testConfig := s.testConfig

	opts := testing.FrameworkOptions{
		Mode:       testing.ExecutionModeCLI,
		Verbose:    runVerbose,
		Debug:      runDebug,
		ReportPath: testConfig.ReportPath,
		Output:     s.out,
	}
	switch {
	case runJSON:
		opts.Reporter = testing.NewJSONReporter(s.out)
	case runQuiet:
		opts.Reporter = testing.NewQuietReporter(s.out)
	}
	if opts.Reporter != nil {
		progress := cli.StartProgress(s.errOut, "Running scenarios...", false)
		defer progress.Stop("")
		opts.Reporter = &progressReporter{TestReporter: opts.Reporter, progress: progress}
	}

	framework, err := testing.NewTestFrameworkWithClients(s.newClient, opts)
	if err != nil {
		return fmt.Errorf("failed to create test framework: %w", err)
	}

	scenarioPath := testing.GetScenarioPath(testConfig.ConfigPath)
	scenarios, err := framework.Loader.LoadScenarios(scenarioPath)
	if err != nil {
		return fmt.Errorf("failed to load test scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		cli.Warnf(s.errOut, "No test scenarios found in %s", scenarioPath)
		return nil
	}

	result, err := framework.Runner.Run(ctx, testConfig, scenarios)
	if err != nil {
		return fmt.Errorf("test execution failed: %w", err)
	}

	// The CLI reporter saves its own report.
	if opts.Reporter != nil && testConfig.ReportPath != "" {
		path, err := testing.SaveReport(testConfig.ReportPath, *result)
		if err != nil {
			return err
		}
		if !runJSON {
			fmt.Fprintf(s.out, "Report saved to %s\n", path)
		}
	}

	if !result.Succeeded() {
		return &ScenariosFailedError{Failed: result.FailedScenarios, Errored: result.ErrorScenarios}
	}
	return nil
}

// watch runs the suite, then runs it again after every scenario file
// change until ctx is cancelled. Failing runs are reported, not returned.
func (s *scenarioSuite) watch(ctx context.Context) error {
	changed := make(chan struct{}, 1)
	watcher, err := testing.NewScenarioWatcher(testing.ScenarioWatcherConfig{
		Path: testing.GetScenarioPath(s.testConfig.ConfigPath),
		OnChange: func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		return err
	}

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Run(ctx)
	}()

	for {
		if err := s.run(ctx); err != nil {
			cli.Failf(s.errOut, "%v", err)
		}
		fmt.Fprintln(s.errOut, "Watching for scenario changes (Ctrl+C to stop)...")

		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			return err
		case <-changed:
			logging.Info("Run", "Scenario files changed, re-running")
		}
	}
}

func validateScenarios(out io.Writer, testConfig testing.TestConfiguration) error {
	scenarios, err := testing.LoadAndFilterScenarios(testConfig.ConfigPath, testConfig, testing.NewSilentLogger(false, false))
	if err != nil {
		return fmt.Errorf("scenario validation failed: %w", err)
	}
	results := testing.ValidateScenarios(scenarios)
	fmt.Fprint(out, testing.FormatValidationResults(results, runVerbose))
	if !results.Valid() {
		return fmt.Errorf("scenario validation found errors")
	}
	return nil
}

// progressReporter keeps the spinner message in step with the run.
type progressReporter struct {
	testing.TestReporter
	progress *cli.Progress

	mu       sync.Mutex
	finished int
}

func (r *progressReporter) ReportScenarioStart(scenario testing.TestScenario) {
	r.TestReporter.ReportScenarioStart(scenario)
	r.progress.Update(fmt.Sprintf("Running %s...", scenario.Name))
}

func (r *progressReporter) ReportScenarioResult(scenarioResult testing.TestScenarioResult) {
	r.mu.Lock()
	r.finished++
	finished := r.finished
	r.mu.Unlock()

	r.progress.Update(fmt.Sprintf("%d scenario(s) finished, last: %s %s", finished, scenarioResult.Scenario.Name, scenarioResult.Result))
	r.TestReporter.ReportScenarioResult(scenarioResult)
}

func (r *progressReporter) ReportSuiteResult(suiteResult testing.TestSuiteResult) {
	r.progress.Stop("")
	r.TestReporter.ReportSuiteResult(suiteResult)
}
