package agent

import (
	"context"
	"fmt"
	"time"

	"apiauto/internal/testing"

	"github.com/mark3labs/mcp-go/mcp"
)

const maxParallel = 10

// registerScenarioTools registers the scenario runner tools.
func (s *Server) registerScenarioTools() {
	s.mcpServer.AddTool(mcp.NewTool("run_scenarios",
		mcp.WithDescription("Execute YAML API test scenarios against the configured environment"),
		mcp.WithString("config_path", mcp.Description("Path to a scenario file or directory (default: the configured scenario directory)")),
		mcp.WithString("scenario", mcp.Description("Run specific scenario by name")),
		mcp.WithArray("tags",
			mcp.Description("Only run scenarios carrying at least one of these tags"),
			mcp.Items(map[string]interface{}{"type": "string"}),
		),
		mcp.WithNumber("parallel", mcp.Description("Number of scenarios run concurrently (1-10)")),
		mcp.WithBoolean("fail_fast", mcp.Description("Stop on first failure")),
		mcp.WithString("timeout", mcp.Description("Overall timeout, e.g. 5m (default: 10m)")),
	), s.handleRunScenarios)

	s.mcpServer.AddTool(mcp.NewTool("list_scenarios",
		mcp.WithDescription("List available test scenarios with filtering"),
		mcp.WithString("config_path", mcp.Description("Path to scenario files")),
		mcp.WithArray("tags",
			mcp.Description("Only list scenarios carrying at least one of these tags"),
			mcp.Items(map[string]interface{}{"type": "string"}),
		),
	), s.handleListScenarios)

	s.mcpServer.AddTool(mcp.NewTool("validate_scenarios",
		mcp.WithDescription("Validate YAML scenario files: structure, store expressions and placeholder definitions"),
		mcp.WithString("scenario_path", mcp.Description("Path to scenario file or directory")),
	), s.handleValidateScenarios)

	s.mcpServer.AddTool(mcp.NewTool("get_results",
		mcp.WithDescription("Retrieve results from the last test execution"),
	), s.handleGetResults)
}

func (s *Server) scenarioPath(args map[string]interface{}, key string) string {
	if path := stringArg(args, key); path != "" {
		return s.resolve(path)
	}
	return s.resolve(testing.GetScenarioPath(s.cfg.ScenarioDir))
}

func (s *Server) handleRunScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	config := testing.DefaultTestConfiguration(s.cfg)
	config.Verbose = true
	config.Debug = s.debug
	config.ConfigPath = s.scenarioPath(args, "config_path")
	config.Scenario = stringArg(args, "scenario")

	tags, err := stringSliceArg(args, "tags")
	if err != nil {
		return errorResult(err), nil
	}
	config.Tags = tags

	if parallel, ok, err := intArg(args, "parallel"); err != nil {
		return errorResult(err), nil
	} else if ok {
		if parallel < 1 || parallel > maxParallel {
			return mcp.NewToolResultError(fmt.Sprintf("parallel workers must be between 1 and %d", maxParallel)), nil
		}
		config.Parallel = parallel
	}
	if failFast, ok := args["fail_fast"].(bool); ok {
		config.FailFast = failFast
	}
	if raw := stringArg(args, "timeout"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid timeout '%s': %v", raw, err)), nil
		}
		config.Timeout = timeout
	}
	if err := testing.ValidateConfiguration(config); err != nil {
		return errorResult(err), nil
	}

	scenarios, err := testing.LoadAndFilterScenarios(config.ConfigPath, config, testing.NewSilentLogger(false, s.debug))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load test scenarios: %v", err)), nil
	}
	if len(scenarios) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No test scenarios found in %s", config.ConfigPath)), nil
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	// The runner bounds the run by config.Timeout.
	result, err := s.runner.Run(ctx, config, scenarios)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Test execution failed: %v", err)), nil
	}
	s.setLastResult(result)

	return jsonResult(result), nil
}

// scenarioInfo is one list_scenarios entry.
type scenarioInfo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Service      string   `json:"service,omitempty"`
	SourceFile   string   `json:"source_file,omitempty"`
	StepCount    int      `json:"step_count"`
	CleanupCount int      `json:"cleanup_count"`
	Tags         []string `json:"tags,omitempty"`
	Skip         bool     `json:"skip,omitempty"`
	Timeout      string   `json:"timeout,omitempty"`
}

func (s *Server) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	tags, err := stringSliceArg(args, "tags")
	if err != nil {
		return errorResult(err), nil
	}
	config := testing.TestConfiguration{Tags: tags, Debug: s.debug}

	scenarios, err := testing.LoadAndFilterScenarios(s.scenarioPath(args, "config_path"), config, testing.NewSilentLogger(false, s.debug))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load scenarios: %v", err)), nil
	}

	list := make([]scenarioInfo, len(scenarios))
	for i, scenario := range scenarios {
		info := scenarioInfo{
			Name:         scenario.Name,
			Description:  scenario.Description,
			Service:      scenario.Service,
			SourceFile:   scenario.SourceFile,
			StepCount:    len(scenario.Steps),
			CleanupCount: len(scenario.Cleanup),
			Tags:         scenario.Tags,
			Skip:         scenario.Skip,
		}
		if scenario.Timeout > 0 {
			info.Timeout = scenario.Timeout.String()
		}
		list[i] = info
	}
	return jsonResult(list), nil
}

func (s *Server) handleValidateScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := s.scenarioPath(request.GetArguments(), "scenario_path")

	loader := testing.NewTestScenarioLoaderWithLogger(s.debug, testing.NewSilentLogger(false, s.debug))
	scenarios, err := loader.LoadScenarios(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Scenario validation failed: %v", err)), nil
	}
	if len(scenarios) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No test scenarios found in %s", path)), nil
	}
	return jsonResult(testing.ValidateScenarios(scenarios)), nil
}

func (s *Server) handleGetResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.reporter.SuiteResult() != nil {
		jsonData, err := s.reporter.ResultsJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get structured results: %v", err)), nil
		}
		return mcp.NewToolResultText(jsonData), nil
	}

	last := s.getLastResult()
	if last == nil {
		return mcp.NewToolResultText("No test results available. Run run_scenarios first."), nil
	}
	return jsonResult(last), nil
}
