package cmd

import (
	"fmt"
	"path/filepath"

	"apiauto/internal/cli"
	"apiauto/internal/curl"
	"apiauto/internal/generator"
	"apiauto/internal/specfile"
	"apiauto/pkg/logging"

	"github.com/spf13/cobra"
)

// defaultScriptFileName is the k6 script written into perf_dir when --out is not given.
const defaultScriptFileName = "k6_script.js"

// generateInput holds the flags every generate subcommand shares.
type generateInput struct {
	file        string
	description string
	mode        string
}

func (in *generateInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.file, "file", "f", "", "Read the curl command from a file")
	cmd.Flags().StringVarP(&in.description, "description", "d", "", "Top-level describe text (default \"<METHOD> <endpoint>\")")
	cmd.Flags().StringVarP(&in.mode, "mode", "m", string(specfile.ModeCreate), "How to treat an existing file (create, update, append)")
	_ = cmd.RegisterFlagCompletionFunc("mode", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"create", "update", "append"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func (in *generateInput) request(cmd *cobra.Command, args []string) (*curl.Request, specfile.Mode, error) {
	mode, err := specfile.ParseMode(in.mode)
	if err != nil {
		return nil, "", err
	}
	req, err := readCurlRequest(cmd.InOrStdin(), args, in.file)
	if err != nil {
		return nil, "", err
	}
	return req, mode, nil
}

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generate RSpec request specs and k6 scripts from curl commands",
	Long: `Generates test code for the request described by a curl command.

Subcommands:
  tests          RSpec request spec with functional, component and non-functional blocks
  k6             k6 load test script
  nonfunctional  RSpec file with only the non-functional checks
  split          functional/component spec plus a separate non-functional spec

Without --out (or --spec), the generated code is printed to stdout.`,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.AddCommand(newGenerateTestsCmd())
	generateCmd.AddCommand(newGenerateLoadCmd())
	generateCmd.AddCommand(newGenerateNonFunctionalCmd())
	generateCmd.AddCommand(newGenerateSplitCmd())
}

func newGenerateTestsCmd() *cobra.Command {
	var (
		in       generateInput
		testType string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "tests [curl-command | -]",
		Short: "Generate an RSpec request spec",
		Example: `  apiauto generate tests "curl https://api.example.com/api/users/1"
  apiauto generate tests --file req.sh --type all --out spec/api/users_spec.rb --mode append`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tt, err := generator.ParseTestType(testType)
			if err != nil {
				return err
			}
			req, mode, err := in.request(cmd, args)
			if err != nil {
				return err
			}
			tests, err := generator.EmitTests(req, generator.TestOptions{TestType: tt, Description: in.description})
			if err != nil {
				return err
			}
			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), tests)
				return err
			}
			return writeGenerated(cmd, out, tests, mode)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&testType, "type", "t", string(generator.TestBoth), "Test type (functional, component, non-functional, both, all)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Spec file to write")
	_ = cmd.RegisterFlagCompletionFunc("type", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(generator.TestTypes))
		for i, t := range generator.TestTypes {
			names[i] = string(t)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newGenerateLoadCmd() *cobra.Command {
	var (
		in         generateInput
		vus        int
		duration   string
		iterations int
		thresholds []string
		sleep      float64
		maxLatency int
		out        string
		stdout     bool
	)
	cmd := &cobra.Command{
		Use:   "k6 [curl-command | -]",
		Short: "Generate a k6 load test script",
		Long: `Generates a k6 script that sends the request in a loop and checks for a
2xx status within the latency limit.

The script is written to perf_dir/k6_script.js unless --out or --stdout is given.
Existing scripts are replaced unless --mode says otherwise.`,
		Example: `  apiauto generate k6 "curl https://api.example.com/api/users" --vus 20 --duration 1m
  apiauto generate k6 --file req.sh --threshold "p(95)<500" --threshold "p(99)<1500" --stdout`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := generator.LoadOptions{
				VUs:          vus,
				Duration:     duration,
				MaxLatencyMs: maxLatency,
			}
			if vus < 1 {
				return fmt.Errorf("--vus must be at least 1")
			}
			if cmd.Flags().Changed("iterations") {
				if iterations < 0 {
					return fmt.Errorf("--iterations cannot be negative")
				}
				opts.Iterations = &iterations
			}
			if cmd.Flags().Changed("threshold") {
				opts.Thresholds = thresholds
			}
			if cmd.Flags().Changed("sleep") {
				if sleep < 0 {
					return fmt.Errorf("--sleep cannot be negative")
				}
				opts.SleepDuration = &sleep
			}
			if !cmd.Flags().Changed("mode") {
				in.mode = string(specfile.ModeUpdate)
			}

			req, mode, err := in.request(cmd, args)
			if err != nil {
				return err
			}
			script, err := generator.EmitLoadScript(req, opts)
			if err != nil {
				return err
			}
			if stdout {
				_, err := fmt.Fprint(cmd.OutOrStdout(), script)
				return err
			}

			path := out
			if path == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				path = filepath.Join(cfg.PerfDir, defaultScriptFileName)
			}
			return writeGenerated(cmd, path, script, mode)
		},
	}
	in.register(cmd)
	cmd.Flags().IntVar(&vus, "vus", generator.DefaultVUs, "Number of virtual users")
	cmd.Flags().StringVar(&duration, "duration", generator.DefaultDuration, "Test duration (k6 syntax, e.g. 30s, 5m)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Total iterations shared by all VUs")
	cmd.Flags().StringArrayVar(&thresholds, "threshold", nil, "http_req_duration threshold, repeatable (default \"p(95)<800\")")
	cmd.Flags().Float64Var(&sleep, "sleep", generator.DefaultSleepDuration, "Seconds to sleep between iterations")
	cmd.Flags().IntVar(&maxLatency, "max-latency", generator.DefaultMaxLatencyMs, "Per-request latency limit in milliseconds")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Script file to write (default <perf_dir>/k6_script.js)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the script instead of writing it")
	cmd.MarkFlagsMutuallyExclusive("out", "stdout")
	return cmd
}

func newGenerateNonFunctionalCmd() *cobra.Command {
	var (
		in   generateInput
		spec string
	)
	cmd := &cobra.Command{
		Use:   "nonfunctional [curl-command | -]",
		Short: "Generate a spec file with only non-functional checks",
		Long: `Generates the non-functional RSpec file for a request. With --spec, the file
is written next to the given spec: users_spec.rb becomes
users_non_functional_spec.rb.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, mode, err := in.request(cmd, args)
			if err != nil {
				return err
			}
			tests, err := generator.EmitNonFunctionalFile(req, in.description)
			if err != nil {
				return err
			}
			if spec == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), tests)
				return err
			}
			return writeGenerated(cmd, specfile.NonFunctionalPath(spec), tests, mode)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&spec, "spec", "s", "", "Functional spec file the non-functional file belongs to")
	return cmd
}

func newGenerateSplitCmd() *cobra.Command {
	var (
		in   generateInput
		spec string
	)
	cmd := &cobra.Command{
		Use:   "split [curl-command | -]",
		Short: "Generate functional and non-functional spec files",
		Long: `Generates the functional and component checks into --spec and the
non-functional checks into the sibling *_non_functional_spec.rb file.`,
		Example: `  apiauto generate split "curl -X POST https://api.example.com/api/users -d '{}'" --spec spec/api/users_spec.rb`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, mode, err := in.request(cmd, args)
			if err != nil {
				return err
			}
			functional, err := generator.EmitFunctionalFile(req, in.description)
			if err != nil {
				return err
			}
			nonFunctional, err := generator.EmitNonFunctionalFile(req, in.description)
			if err != nil {
				return err
			}
			if err := writeGenerated(cmd, spec, functional, mode); err != nil {
				return err
			}
			return writeGenerated(cmd, specfile.NonFunctionalPath(spec), nonFunctional, mode)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&spec, "spec", "s", "", "Functional spec file to write")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func writeGenerated(cmd *cobra.Command, path, content string, mode specfile.Mode) error {
	if _, err := specfile.Write(path, content, mode); err != nil {
		return err
	}
	logging.Debug("Generate", "Wrote %d bytes to %s", len(content), path)
	cli.Successf(cmd.OutOrStdout(), "%s %s", modeVerb(mode), path)
	return nil
}

func modeVerb(mode specfile.Mode) string {
	switch mode {
	case specfile.ModeUpdate:
		return "Updated"
	case specfile.ModeAppend:
		return "Appended to"
	default:
		return "Created"
	}
}
