package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// OutputFormat selects how a command prints its result.
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// SupportedFormats lists the accepted --output values.
var SupportedFormats = []OutputFormat{OutputFormatTable, OutputFormatJSON, OutputFormatYAML}

// ParseOutputFormat validates s. An empty string selects the table format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	if s == "" {
		return OutputFormatTable, nil
	}
	for _, f := range SupportedFormats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	names := make([]string, len(SupportedFormats))
	for i, f := range SupportedFormats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unsupported output format %q (supported: %s)", s, strings.Join(names, ", "))
}

// OutputFlags holds the output flag values shared by commands that print
// structured results.
type OutputFlags struct {
	// Format is the raw --output value
	Format string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
}

// RegisterOutputFlags registers --output/-o, --no-headers and --quiet/-q on cmd.
func RegisterOutputFlags(cmd *cobra.Command, flags *OutputFlags, defaultFormat OutputFormat) {
	cmd.Flags().StringVarP(&flags.Format, "output", "o", string(defaultFormat), "Output format (table, json, yaml)")
	cmd.Flags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// OutputFormat returns the validated --output value.
func (f OutputFlags) OutputFormat() (OutputFormat, error) {
	return ParseOutputFormat(f.Format)
}
