package cmd

import (
	"fmt"

	"apiauto/internal/agent"
	"apiauto/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	serveRoot  string
	serveDebug bool
)

// serveCmd runs the MCP tool server on stdio.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP tool server on stdio",
	Long: `Starts an MCP server on stdin/stdout that exposes the generators, the
response matcher and the scenario runner as tools for AI assistants.

Tools:
  parse_curl, generate_tests, generate_k6_script, manage_spec_file,
  analyze_framework, generate_complete_tests, generate_non_functional_tests_file,
  generate_functional_and_non_functional_split, match_response,
  run_scenarios, list_scenarios, validate_scenarios, get_results

Relative file paths in tool arguments are resolved against --root.
Logs go to stderr so they never mix with the protocol stream.

Example MCP client configuration:
  {
    "mcpServers": {
      "apiauto": {"command": "apiauto", "args": ["serve", "--root", "/path/to/project"]}
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveRoot, "root", ".", "Project directory relative paths are resolved against")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveDebug {
		if err := initLogging("debug", logging.LevelDebug); err != nil {
			return err
		}
	}

	server, err := agent.NewServer(cfg, agent.Options{
		Root:    serveRoot,
		Version: GetVersion(),
		Debug:   serveDebug,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Serve()
}
