package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"apiauto/internal/cli"
	"apiauto/internal/curl"

	"github.com/spf13/cobra"
)

var (
	parseFile   string
	parseOutput cli.OutputFlags
)

var parseCmd = &cobra.Command{
	Use:   "parse [curl-command | -]",
	Short: "Extract the request described by a curl command",
	Long: `Parses a curl command and prints the endpoint, method, headers, query
parameters and body it describes.

The command is taken from the argument, from --file, or from stdin when the
argument is "-". Line continuations are accepted.

Examples:
  apiauto parse "curl -X POST https://api.example.com/api/users -d '{\"name\":\"a\"}'"
  apiauto parse --file request.sh -o json
  pbpaste | apiauto parse - -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "Read the curl command from a file")
	cli.RegisterOutputFlags(parseCmd, &parseOutput, cli.OutputFormatTable)
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := parseOutput.OutputFormat()
	if err != nil {
		return err
	}
	req, err := readCurlRequest(cmd.InOrStdin(), args, parseFile)
	if err != nil {
		return err
	}
	return cli.Write(cmd.OutOrStdout(), format, req, func() *cli.Table {
		return requestTable(cmd.OutOrStdout(), req, parseOutput.NoHeaders)
	})
}

// readCurlCommand returns the curl command given as the only argument, read
// from stdin for "-", or read from file.
func readCurlCommand(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass the curl command either as an argument or with --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read curl command: %w", err)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read curl command from stdin: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", fmt.Errorf("a curl command is required (argument, --file or - for stdin)")
}

func readCurlRequest(stdin io.Reader, args []string, file string) (*curl.Request, error) {
	command, err := readCurlCommand(stdin, args, file)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("the curl command is empty")
	}
	return curl.Parse(command)
}

func requestTable(out io.Writer, req *curl.Request, noHeaders bool) *cli.Table {
	t := cli.NewTable(out, cli.StyleBox, "Field", "Value")
	t.SetTitle(req.Method + " " + req.Endpoint)
	t.SetNoHeaders(noHeaders)

	t.AppendRow("Method", req.Method)
	t.AppendRow("Endpoint", req.Endpoint)
	t.AppendRow("URL", req.FullURL)
	for _, h := range req.Headers.Entries() {
		t.AppendRow("Header "+h.Key, h.Value)
	}

	keys := make([]string, 0, len(req.QueryParams))
	for k := range req.QueryParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow("Query "+k, req.QueryParams[k])
	}

	if req.HasBody() {
		t.AppendRow("Body", req.RawBody)
	}
	return t
}
