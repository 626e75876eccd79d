package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"apiauto/internal/cli"
	"apiauto/internal/specfile"
	"apiauto/internal/testing"

	"github.com/spf13/cobra"
)

var (
	listOutput  cli.OutputFlags
	listTags    []string
	listPattern string
)

// scenarioRow is one entry of list scenarios in json and yaml output.
type scenarioRow struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Service     string   `json:"service,omitempty"`
	Steps       int      `json:"steps"`
	Tags        []string `json:"tags,omitempty"`
	Skip        bool     `json:"skip,omitempty"`
	SourceFile  string   `json:"source_file,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios or generated spec files",
	Long: `Lists the YAML scenarios the run command would load, or the RSpec files
found in the spec directory.

Output formats:
  table  kubectl-style columns (default)
  json   JSON array
  yaml   YAML list`,
}

var listScenariosCmd = &cobra.Command{
	Use:     "scenarios [path]",
	Aliases: []string{"scenario"},
	Short:   "List test scenarios",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runListScenarios,
}

var listSpecsCmd = &cobra.Command{
	Use:     "specs [dir]",
	Aliases: []string{"spec"},
	Short:   "List *_spec.rb files",
	Long: `Lists the *_spec.rb files below dir, which defaults to the parent of spec_dir
from the configuration file. --pattern keeps the files whose path contains it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runListSpecs,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listScenariosCmd)
	listCmd.AddCommand(listSpecsCmd)

	cli.RegisterOutputFlags(listScenariosCmd, &listOutput, cli.OutputFormatTable)
	cli.RegisterOutputFlags(listSpecsCmd, &listOutput, cli.OutputFormatTable)
	listScenariosCmd.Flags().StringSliceVar(&listTags, "tags", nil, "Only list scenarios carrying any of these tags")
	listSpecsCmd.Flags().StringVar(&listPattern, "pattern", "", "Only list files whose path contains this text")
}

func runListScenarios(cmd *cobra.Command, args []string) error {
	format, err := listOutput.OutputFormat()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	testConfig := testing.DefaultTestConfiguration(cfg)
	if len(args) > 0 {
		testConfig.ConfigPath = args[0]
	}
	testConfig.Tags = listTags

	scenarios, err := testing.LoadAndFilterScenarios(testConfig.ConfigPath, testConfig, testing.NewSilentLogger(false, false))
	if err != nil {
		return err
	}

	rows := make([]scenarioRow, len(scenarios))
	for i, s := range scenarios {
		rows[i] = scenarioRow{
			Name:        s.Name,
			Description: s.Description,
			Service:     s.Service,
			Steps:       len(s.Steps),
			Tags:        s.Tags,
			Skip:        s.Skip,
			SourceFile:  s.SourceFile,
		}
	}

	out := cmd.OutOrStdout()
	if format == cli.OutputFormatTable && len(rows) == 0 {
		if !listOutput.Quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "No scenarios found")
		}
		return nil
	}
	return cli.Write(out, format, rows, func() *cli.Table {
		t := cli.NewTable(out, cli.StylePlain, "name", "service", "steps", "tags", "description", "file")
		t.SetNoHeaders(listOutput.NoHeaders)
		for _, r := range rows {
			name := r.Name
			if r.Skip {
				name += " (skipped)"
			}
			t.AppendRow(name, dashIfEmpty(r.Service), strconv.Itoa(r.Steps), dashIfEmpty(strings.Join(r.Tags, ",")),
				dashIfEmpty(cli.TruncateCell(r.Description, cli.DefaultCellWidth)), r.SourceFile)
		}
		return t
	})
}

func runListSpecs(cmd *cobra.Command, args []string) error {
	format, err := listOutput.OutputFormat()
	if err != nil {
		return err
	}

	root := ""
	if len(args) > 0 {
		root = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		root = specRoot(cfg.SpecDir)
	}

	files, err := specfile.FindSpecFiles(root, listPattern)
	if err != nil {
		return err
	}
	if files == nil {
		files = []string{}
	}

	out := cmd.OutOrStdout()
	if format == cli.OutputFormatTable && len(files) == 0 {
		if !listOutput.Quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "No spec files found in %s\n", root)
		}
		return nil
	}
	return cli.Write(out, format, files, func() *cli.Table {
		t := cli.NewTable(out, cli.StylePlain, "file")
		t.SetNoHeaders(listOutput.NoHeaders)
		for _, f := range files {
			t.AppendRow(f)
		}
		return t
	})
}

// specRoot returns the top-level spec directory of specDir: "spec/api" gives "spec".
func specRoot(specDir string) string {
	if specDir == "" {
		return "spec"
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(specDir, "./"), "/")
	return first
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
