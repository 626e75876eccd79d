package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"apiauto/internal/cli"
	"apiauto/internal/matcher"

	"github.com/spf13/cobra"
)

var (
	matchActual   string
	matchExpected string
	matchOutput   cli.OutputFlags
)

// matchReport is the structured result of the match command.
type matchReport struct {
	Match    bool     `json:"match"`
	Error    string   `json:"error,omitempty"`
	Key      string   `json:"key,omitempty"`
	Path     string   `json:"path,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

var matchCmd = &cobra.Command{
	Use:   "match --actual response.json --expected expected.json",
	Short: "Check a JSON response against an expected document",
	Long: `Matches an actual JSON response against an expected JSON document.

Expected objects only constrain the keys they name. Arrays match element by
element. Expected strings may be directives instead of literals:
"skip", "should_not_be_null", "only_digits", "only_chars" and
"match_regex/<pattern>/".

Keys present in the response but missing from the expectation are reported
as warnings. A mismatch exits with code 2. Either file may be "-" to read
it from stdin.`,
	Args: cobra.NoArgs,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&matchActual, "actual", "a", "", "File with the actual JSON response")
	matchCmd.Flags().StringVarP(&matchExpected, "expected", "e", "", "File with the expected JSON document")
	_ = matchCmd.MarkFlagRequired("actual")
	_ = matchCmd.MarkFlagRequired("expected")
	cli.RegisterOutputFlags(matchCmd, &matchOutput, cli.OutputFormatTable)
}

func runMatch(cmd *cobra.Command, args []string) error {
	format, err := matchOutput.OutputFormat()
	if err != nil {
		return err
	}
	if matchActual == "-" && matchExpected == "-" {
		return fmt.Errorf("only one of --actual and --expected can read from stdin")
	}

	actual, err := readJSONValue(cmd.InOrStdin(), matchActual)
	if err != nil {
		return fmt.Errorf("actual: %w", err)
	}
	expected, err := readJSONValue(cmd.InOrStdin(), matchExpected)
	if err != nil {
		return fmt.Errorf("expected: %w", err)
	}

	var warnings matcher.Collector
	report := matchReport{Match: true}
	matchErr := matcher.New(matcher.WithWarningCollector(&warnings)).MatchValues(actual, expected)
	if matchErr != nil {
		var me *matcher.MatchError
		if !errors.As(matchErr, &me) {
			return matchErr
		}
		report.Match = false
		report.Error = me.Error()
		report.Key = me.Key
		report.Path = me.Path
	}
	for _, w := range warnings.Warnings() {
		report.Warnings = append(report.Warnings, w.String())
	}

	out := cmd.OutOrStdout()
	if format == cli.OutputFormatTable {
		if !matchOutput.Quiet {
			for _, w := range report.Warnings {
				cli.Warnf(cmd.ErrOrStderr(), "%s", w)
			}
		}
		if report.Match && !matchOutput.Quiet {
			cli.Successf(out, "response matches")
		}
		return matchErr
	}

	if err := cli.Write(out, format, report, nil); err != nil {
		return err
	}
	return matchErr
}

func readJSONValue(stdin io.Reader, path string) (matcher.Value, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return matcher.Value{}, err
	}
	v, err := matcher.FromJSON(data)
	if err != nil {
		return matcher.Value{}, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return v, nil
}
