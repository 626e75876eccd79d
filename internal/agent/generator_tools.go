package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"apiauto/internal/curl"
	"apiauto/internal/generator"
	"apiauto/internal/matcher"
	"apiauto/internal/specfile"
	"apiauto/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

func withTestType(description string) mcp.ToolOption {
	return mcp.WithString("testType",
		mcp.Enum("functional", "component", "non-functional", "both", "all"),
		mcp.Description(description),
	)
}

func withMode(description string, required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{
		mcp.Enum(string(specfile.ModeCreate), string(specfile.ModeUpdate), string(specfile.ModeAppend)),
		mcp.Description(description),
	}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString("mode", opts...)
}

func withCurlCommand(description string) mcp.ToolOption {
	return mcp.WithString("curlCommand", mcp.Required(), mcp.Description(description))
}

func withSuiteDescription() mcp.ToolOption {
	return mcp.WithString("description", mcp.Description("Description for the test suite"))
}

// registerGeneratorTools registers the curl, generation and spec file tools.
func (s *Server) registerGeneratorTools() {
	s.mcpServer.AddTool(mcp.NewTool("parse_curl",
		mcp.WithDescription("Parse a curl request and extract API details (URL, method, headers, body)"),
		withCurlCommand("The curl command to parse"),
	), s.handleParseCurl)

	s.mcpServer.AddTool(mcp.NewTool("generate_tests",
		mcp.WithDescription("Generate RSpec functional and component test cases from API details"),
		withCurlCommand("The curl command to generate tests for"),
		withTestType(`Type of tests to generate (default: both). Use "all" for functional + component + non-functional`),
		withSuiteDescription(),
	), s.handleGenerateTests)

	s.mcpServer.AddTool(mcp.NewTool("generate_k6_script",
		mcp.WithDescription("Generate a k6 performance test script from a curl command"),
		withCurlCommand("The curl command to convert"),
		mcp.WithNumber("vus", mcp.Description("Number of virtual users (default: 10)")),
		mcp.WithString("duration", mcp.Description("Test duration (default: 30s)")),
		mcp.WithNumber("iterations", mcp.Description("Fixed number of iterations (optional)")),
		mcp.WithArray("thresholds",
			mcp.Description("Thresholds for http_req_duration (optional)"),
			mcp.Items(map[string]interface{}{"type": "string"}),
		),
		mcp.WithNumber("sleepDuration", mcp.Description("Sleep between iterations in seconds (default: 1)")),
		mcp.WithNumber("maxLatencyMs", mcp.Description("Latency checked for every response in milliseconds (default: 800)")),
		mcp.WithString("scriptFileName", mcp.Description("Name of the k6 script file to create in the perf directory (default: k6_script.js)")),
	), s.handleGenerateLoadScript)

	s.mcpServer.AddTool(mcp.NewTool("manage_spec_file",
		mcp.WithDescription("Create new or edit existing RSpec spec file with generated tests"),
		mcp.WithString("filePath", mcp.Required(), mcp.Description("Path to the spec file (e.g., spec/api/users_spec.rb)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("The RSpec test content to write")),
		withMode("Operation mode: create new, update existing, or append to existing", true),
	), s.handleManageSpecFile)

	s.mcpServer.AddTool(mcp.NewTool("analyze_framework",
		mcp.WithDescription("Analyze the Ruby/RSpec framework structure to understand test patterns and helpers"),
	), s.handleAnalyzeFramework)

	s.mcpServer.AddTool(mcp.NewTool("generate_complete_tests",
		mcp.WithDescription("Complete workflow: parse curl, generate tests, and create/update spec file"),
		withCurlCommand("The curl command to generate tests for"),
		mcp.WithString("specFilePath", mcp.Required(), mcp.Description("Path where to save the spec file")),
		withTestType(`Type of tests to generate. Use "all" for functional + component + non-functional`),
		withSuiteDescription(),
		withMode("File operation mode (default: create)", false),
	), s.handleGenerateCompleteTests)

	s.mcpServer.AddTool(mcp.NewTool("generate_non_functional_tests_file",
		mcp.WithDescription("Generate only non-functional tests and save to a separate file (e.g., users_non_functional_spec.rb)"),
		withCurlCommand("The curl command to generate non-functional tests for"),
		mcp.WithString("specFilePath", mcp.Required(), mcp.Description("Base spec file path (will create non_functional variant)")),
		withSuiteDescription(),
		withMode("File operation mode (default: create)", false),
	), s.handleGenerateNonFunctionalFile)

	s.mcpServer.AddTool(mcp.NewTool("generate_functional_and_non_functional_split",
		mcp.WithDescription("Generate functional+component tests and non-functional tests in separate files"),
		withCurlCommand("The curl command to generate tests for"),
		mcp.WithString("specFilePath", mcp.Required(), mcp.Description("Path for main spec file (functional+component tests)")),
		withSuiteDescription(),
		withMode("File operation mode (default: create)", false),
	), s.handleGenerateSplit)

	s.mcpServer.AddTool(mcp.NewTool("match_response",
		mcp.WithDescription("Check a JSON response against an expected template using the matcher directives (skip, should_not_be_null, only_digits, only_chars, match_regex/.../)"),
		mcp.WithString("actual", mcp.Required(), mcp.Description("The actual response body as JSON")),
		mcp.WithString("expected", mcp.Required(), mcp.Description("The expected template as JSON")),
	), s.handleMatchResponse)
}

func (s *Server) handleParseCurl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, errResult := parseCurlArg(request)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(req), nil
}

func (s *Server) handleGenerateTests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, errResult := parseCurlArg(request)
	if errResult != nil {
		return errResult, nil
	}
	args := request.GetArguments()

	testType, err := generator.ParseTestType(stringArg(args, "testType"))
	if err != nil {
		return errorResult(err), nil
	}
	tests, err := generator.EmitTests(req, generator.TestOptions{
		TestType:    testType,
		Description: stringArg(args, "description"),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(tests), nil
}

func loadOptionsFromArgs(args map[string]interface{}) (generator.LoadOptions, error) {
	var opts generator.LoadOptions
	var err error

	if vus, ok, err := intArg(args, "vus"); err != nil {
		return opts, err
	} else if ok {
		if vus < 1 {
			return opts, fmt.Errorf("vus must be at least 1")
		}
		opts.VUs = vus
	}
	if iterations, ok, err := intArg(args, "iterations"); err != nil {
		return opts, err
	} else if ok {
		if iterations < 0 {
			return opts, fmt.Errorf("iterations cannot be negative")
		}
		opts.Iterations = &iterations
	}
	if latency, ok, err := intArg(args, "maxLatencyMs"); err != nil {
		return opts, err
	} else if ok {
		opts.MaxLatencyMs = latency
	}
	opts.Duration = stringArg(args, "duration")

	if opts.Thresholds, err = stringSliceArg(args, "thresholds"); err != nil {
		return opts, err
	}
	if opts.SleepDuration, err = floatArg(args, "sleepDuration"); err != nil {
		return opts, err
	}
	if opts.SleepDuration != nil && *opts.SleepDuration < 0 {
		return opts, fmt.Errorf("sleepDuration cannot be negative")
	}
	return opts, nil
}

func (s *Server) handleGenerateLoadScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, errResult := parseCurlArg(request)
	if errResult != nil {
		return errResult, nil
	}
	args := request.GetArguments()

	opts, err := loadOptionsFromArgs(args)
	if err != nil {
		return errorResult(err), nil
	}
	script, err := generator.EmitLoadScript(req, opts)
	if err != nil {
		return errorResult(err), nil
	}

	fileName := stringArg(args, "scriptFileName")
	if fileName == "" {
		fileName = DefaultScriptFileName
	}
	path := filepath.Join(s.dirOrDefault(s.cfg.PerfDir, "perf"), fileName)
	if _, err := specfile.Write(path, script, specfile.ModeUpdate); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating k6 script: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created k6 script: %s\n\n%s", path, script)), nil
}

func (s *Server) handleManageSpecFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("filePath")
	if err != nil || filePath == "" {
		return mcp.NewToolResultError("filePath parameter is required"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content parameter is required"), nil
	}
	rawMode, err := request.RequireString("mode")
	if err != nil || rawMode == "" {
		return mcp.NewToolResultError("mode parameter is required"), nil
	}
	mode, err := specfile.ParseMode(rawMode)
	if err != nil {
		return errorResult(err), nil
	}

	if _, err := specfile.Write(s.resolve(filePath), content, mode); err != nil {
		return errorResult(err), nil
	}

	var text string
	switch mode {
	case specfile.ModeCreate:
		text = fmt.Sprintf("Created new spec file: %s", filePath)
	case specfile.ModeUpdate:
		text = fmt.Sprintf("Updated spec file: %s", filePath)
	default:
		text = fmt.Sprintf("Appended to spec file: %s", filePath)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleAnalyzeFramework(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysis, err := specfile.AnalyzeFramework(s.root)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(analysis), nil
}

// generationRequest holds the arguments shared by the file generating tools.
type generationRequest struct {
	req          *curl.Request
	specFilePath string
	description  string
	mode         specfile.Mode
}

func parseGenerationRequest(request mcp.CallToolRequest) (*generationRequest, *mcp.CallToolResult) {
	req, errResult := parseCurlArg(request)
	if errResult != nil {
		return nil, errResult
	}
	specFilePath, err := request.RequireString("specFilePath")
	if err != nil || specFilePath == "" {
		return nil, mcp.NewToolResultError("specFilePath parameter is required")
	}
	args := request.GetArguments()
	mode, err := specfile.ParseMode(stringArg(args, "mode"))
	if err != nil {
		return nil, errorResult(err)
	}
	return &generationRequest{
		req:          req,
		specFilePath: specFilePath,
		description:  stringArg(args, "description"),
		mode:         mode,
	}, nil
}

func modeVerb(mode specfile.Mode) string {
	switch mode {
	case specfile.ModeUpdate:
		return "updated"
	case specfile.ModeAppend:
		return "appended to"
	default:
		return "created"
	}
}

func (s *Server) handleGenerateCompleteTests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gen, errResult := parseGenerationRequest(request)
	if errResult != nil {
		return errResult, nil
	}
	testType, err := generator.ParseTestType(stringArg(request.GetArguments(), "testType"))
	if err != nil {
		return errorResult(err), nil
	}

	tests, err := generator.EmitTests(gen.req, generator.TestOptions{TestType: testType, Description: gen.description})
	if err != nil {
		return errorResult(err), nil
	}
	if _, err := specfile.Write(s.resolve(gen.specFilePath), tests, gen.mode); err != nil {
		return errorResult(err), nil
	}

	details, err := formatJSON(gen.req)
	if err != nil {
		return errorResult(err), nil
	}
	logging.Debug("Agent", "Generated %s tests for %s %s", testType, gen.req.Method, gen.req.Endpoint)
	return mcp.NewToolResultText(fmt.Sprintf("Successfully generated tests and %s spec file: %s\n\nAPI Details:\n%s",
		modeVerb(gen.mode), gen.specFilePath, details)), nil
}

func (s *Server) handleGenerateNonFunctionalFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gen, errResult := parseGenerationRequest(request)
	if errResult != nil {
		return errResult, nil
	}

	tests, err := generator.EmitNonFunctionalFile(gen.req, gen.description)
	if err != nil {
		return errorResult(err), nil
	}
	path := specfile.NonFunctionalPath(gen.specFilePath)
	if _, err := specfile.Write(s.resolve(path), tests, gen.mode); err != nil {
		return errorResult(err), nil
	}

	details, err := formatJSON(gen.req)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully generated non-functional tests and %s file: %s\n\nAPI Details:\n%s",
		modeVerb(gen.mode), path, details)), nil
}

func (s *Server) handleGenerateSplit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gen, errResult := parseGenerationRequest(request)
	if errResult != nil {
		return errResult, nil
	}

	functional, err := generator.EmitFunctionalFile(gen.req, gen.description)
	if err != nil {
		return errorResult(err), nil
	}
	nonFunctional, err := generator.EmitNonFunctionalFile(gen.req, gen.description)
	if err != nil {
		return errorResult(err), nil
	}

	nonFunctionalPath := specfile.NonFunctionalPath(gen.specFilePath)
	if _, err := specfile.Write(s.resolve(gen.specFilePath), functional, gen.mode); err != nil {
		return errorResult(err), nil
	}
	if _, err := specfile.Write(s.resolve(nonFunctionalPath), nonFunctional, gen.mode); err != nil {
		return errorResult(err), nil
	}

	details, err := formatJSON(gen.req)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully generated split tests:\n- Functional & Component: %s\n- Non-Functional: %s\n\nAPI Details:\n%s",
		gen.specFilePath, nonFunctionalPath, details)), nil
}

// matchReport is the match_response result.
type matchReport struct {
	Match    bool     `json:"match"`
	Error    string   `json:"error,omitempty"`
	Key      string   `json:"key,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleMatchResponse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawActual, err := request.RequireString("actual")
	if err != nil {
		return mcp.NewToolResultError("actual parameter is required"), nil
	}
	rawExpected, err := request.RequireString("expected")
	if err != nil {
		return mcp.NewToolResultError("expected parameter is required"), nil
	}

	actual, err := matcher.FromJSON([]byte(rawActual))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: actual is not valid JSON: %v", err)), nil
	}
	expected, err := matcher.FromJSON([]byte(rawExpected))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: expected is not valid JSON: %v", err)), nil
	}

	var warnings matcher.Collector
	report := matchReport{Match: true}
	if err := matcher.New(matcher.WithWarningCollector(&warnings)).MatchValues(actual, expected); err != nil {
		var matchErr *matcher.MatchError
		if !errors.As(err, &matchErr) {
			return errorResult(err), nil
		}
		report.Match = false
		report.Error = matchErr.Error()
		report.Key = matchErr.Key
	}
	for _, w := range warnings.Warnings() {
		report.Warnings = append(report.Warnings, w.String())
	}

	result := jsonResult(report)
	result.IsError = !report.Match
	return result, nil
}
