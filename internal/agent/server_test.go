package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiauto/internal/config"
	apitesting "apiauto/internal/testing"
)

const createUserCurl = `curl -X POST 'https://api.example.com/api/users' -H 'Content-Type: application/json' -d '{"name":"alice"}'`

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T, factory apitesting.ClientFactory) (*Server, string) {
	t.Helper()

	root := t.TempDir()
	srv, err := NewServer(config.Config{PerfDir: "perf", ScenarioDir: "scenarios"}, Options{Root: root, ClientFactory: factory})
	require.NoError(t, err)
	return srv, root
}

func callTool(t *testing.T, handler toolHandler, args map[string]interface{}) (*mcp.CallToolResult, string) {
	t.Helper()

	var req mcp.CallToolRequest
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return result, text.Text
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewServer_RegistersTools(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := srv.MCPServer().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{
		"parse_curl", "generate_tests", "generate_k6_script", "manage_spec_file", "analyze_framework",
		"generate_complete_tests", "generate_non_functional_tests_file",
		"generate_functional_and_non_functional_split", "match_response",
		"run_scenarios", "list_scenarios", "validate_scenarios", "get_results",
	} {
		assert.Contains(t, string(data), `"name":"`+name+`"`)
	}
}

func TestNewServer_CallsToolOverProtocol(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	msg := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"parse_curl","arguments":{"curlCommand":"curl https://api.example.com/health"}}}`
	resp := srv.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://api.example.com/health")
}

func TestHandleParseCurl(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantError bool
		want      []string
	}{
		{
			name: "post with body",
			args: map[string]interface{}{"curlCommand": createUserCurl},
			want: []string{`"endpoint": "/api/users"`, `"method": "POST"`, `"Content-Type": "application/json"`, `"name": "alice"`},
		},
		{
			name:      "missing command",
			args:      map[string]interface{}{},
			wantError: true,
			want:      []string{"curlCommand parameter is required"},
		},
		{
			name:      "no url",
			args:      map[string]interface{}{"curlCommand": "curl -X POST"},
			wantError: true,
			want:      []string{"Error: Could not extract URL from curl command"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, text := callTool(t, srv.handleParseCurl, tt.args)
			assert.Equal(t, tt.wantError, result.IsError)
			for _, want := range tt.want {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestHandleGenerateTests(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	result, text := callTool(t, srv.handleGenerateTests, map[string]interface{}{
		"curlCommand": createUserCurl,
		"testType":    "all",
		"description": "Create user",
	})
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "RSpec.describe 'Create user', type: :request do")
	assert.Contains(t, text, "Non-Functional Tests")

	result, text = callTool(t, srv.handleGenerateTests, map[string]interface{}{"curlCommand": createUserCurl})
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "Component Tests")
	assert.NotContains(t, text, "Non-Functional Tests")

	result, text = callTool(t, srv.handleGenerateTests, map[string]interface{}{"curlCommand": createUserCurl, "testType": "smoke"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "unknown test type")
}

func TestHandleGenerateLoadScript(t *testing.T) {
	srv, root := newTestServer(t, nil)

	result, text := callTool(t, srv.handleGenerateLoadScript, map[string]interface{}{
		"curlCommand":    "curl https://api.example.com/api/items",
		"vus":            float64(25),
		"duration":       "2m",
		"iterations":     float64(100),
		"thresholds":     []interface{}{"p(95)<500", "p(99)<1500"},
		"sleepDuration":  0.5,
		"maxLatencyMs":   float64(300),
		"scriptFileName": "items.js",
	})
	require.False(t, result.IsError, text)

	path := filepath.Join(root, "perf", "items.js")
	assert.Contains(t, text, "Created k6 script: "+path)
	script := readFile(t, path)
	assert.Contains(t, script, "  vus: 25,\n  duration: '2m',\n  iterations: 100,\n")
	assert.Contains(t, script, "sleep(0.5);")
	assert.Contains(t, text, script)

	// The default file name is used and an existing script is replaced.
	for i := 0; i < 2; i++ {
		result, text = callTool(t, srv.handleGenerateLoadScript, map[string]interface{}{"curlCommand": "curl https://api.example.com/api/items"})
		require.False(t, result.IsError, text)
	}
	assert.FileExists(t, filepath.Join(root, "perf", DefaultScriptFileName))
}

func TestHandleGenerateLoadScript_InvalidArguments(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{name: "vus not a number", args: map[string]interface{}{"vus": "ten"}, want: "vus must be a number"},
		{name: "fractional vus", args: map[string]interface{}{"vus": 1.5}, want: "whole number"},
		{name: "zero vus", args: map[string]interface{}{"vus": float64(0)}, want: "at least 1"},
		{name: "thresholds not strings", args: map[string]interface{}{"thresholds": []interface{}{1.0}}, want: "array of strings"},
		{name: "negative sleep", args: map[string]interface{}{"sleepDuration": -1.0}, want: "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["curlCommand"] = "curl https://api.example.com/api/items"
			result, text := callTool(t, srv.handleGenerateLoadScript, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, text, tt.want)
		})
	}
}

func TestHandleManageSpecFile(t *testing.T) {
	srv, root := newTestServer(t, nil)
	path := filepath.Join(root, "spec", "api", "users_spec.rb")

	steps := []struct {
		mode      string
		content   string
		wantError bool
		wantText  string
		wantFile  string
	}{
		{mode: "create", content: "one", wantText: "Created new spec file: spec/api/users_spec.rb", wantFile: "one"},
		{mode: "create", content: "again", wantError: true, wantText: "already exists", wantFile: "one"},
		{mode: "append", content: "two", wantText: "Appended to spec file: spec/api/users_spec.rb", wantFile: "one\n\ntwo"},
		{mode: "update", content: "three", wantText: "Updated spec file: spec/api/users_spec.rb", wantFile: "three"},
		{mode: "replace", content: "four", wantError: true, wantText: "unknown write mode", wantFile: "three"},
	}

	for _, step := range steps {
		result, text := callTool(t, srv.handleManageSpecFile, map[string]interface{}{
			"filePath": "spec/api/users_spec.rb",
			"content":  step.content,
			"mode":     step.mode,
		})
		assert.Equal(t, step.wantError, result.IsError, step.mode)
		assert.Contains(t, text, step.wantText)
		assert.Equal(t, step.wantFile, readFile(t, path))
	}

	result, text := callTool(t, srv.handleManageSpecFile, map[string]interface{}{"filePath": "x_spec.rb", "content": "x"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "mode parameter is required")
}

func TestHandleAnalyzeFramework(t *testing.T) {
	srv, root := newTestServer(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "spec", "api"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "spec", "spec_helper.rb"), []byte("def login_as(user)\nend\n"), 0644))

	result, text := callTool(t, srv.handleAnalyzeFramework, map[string]interface{}{})
	require.False(t, result.IsError, text)
	assert.Contains(t, text, `"specHelperExists": true`)
	assert.Contains(t, text, `"railsHelperExists": false`)
}

func TestHandleGenerateCompleteTests(t *testing.T) {
	srv, root := newTestServer(t, nil)
	args := func(mode string) map[string]interface{} {
		return map[string]interface{}{
			"curlCommand":  createUserCurl,
			"specFilePath": "spec/api/users_spec.rb",
			"mode":         mode,
		}
	}
	path := filepath.Join(root, "spec", "api", "users_spec.rb")

	result, text := callTool(t, srv.handleGenerateCompleteTests, args(""))
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "Successfully generated tests and created spec file: spec/api/users_spec.rb")
	assert.Contains(t, text, "API Details:\n{")
	first := readFile(t, path)
	assert.Contains(t, first, "RSpec.describe 'POST /api/users', type: :request do")

	result, text = callTool(t, srv.handleGenerateCompleteTests, args("create"))
	assert.True(t, result.IsError)
	assert.Contains(t, text, "already exists")

	result, text = callTool(t, srv.handleGenerateCompleteTests, args("append"))
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "appended to spec file")
	assert.Equal(t, first+"\n\n"+first, readFile(t, path))

	result, text = callTool(t, srv.handleGenerateCompleteTests, args("update"))
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "updated spec file")
	assert.Equal(t, first, readFile(t, path))
}

func TestHandleGenerateNonFunctionalFile(t *testing.T) {
	srv, root := newTestServer(t, nil)

	result, text := callTool(t, srv.handleGenerateNonFunctionalFile, map[string]interface{}{
		"curlCommand":  createUserCurl,
		"specFilePath": "spec/api/users_spec.rb",
	})
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "Successfully generated non-functional tests and created file: spec/api/users_non_functional_spec.rb")

	content := readFile(t, filepath.Join(root, "spec", "api", "users_non_functional_spec.rb"))
	assert.Contains(t, content, "RSpec.describe 'POST /api/users Non-Functional Tests', type: :request do")
	assert.NoFileExists(t, filepath.Join(root, "spec", "api", "users_spec.rb"))
}

func TestHandleGenerateSplit(t *testing.T) {
	srv, root := newTestServer(t, nil)

	result, text := callTool(t, srv.handleGenerateSplit, map[string]interface{}{
		"curlCommand":  createUserCurl,
		"specFilePath": "spec/api/users_spec.rb",
		"description":  "Users",
	})
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "- Functional & Component: spec/api/users_spec.rb\n- Non-Functional: spec/api/users_non_functional_spec.rb")

	functional := readFile(t, filepath.Join(root, "spec", "api", "users_spec.rb"))
	assert.Contains(t, functional, "Component Tests")
	assert.NotContains(t, functional, "Non-Functional Tests")
	assert.Contains(t, readFile(t, filepath.Join(root, "spec", "api", "users_non_functional_spec.rb")), "Non-Functional Tests")

	result, text = callTool(t, srv.handleGenerateSplit, map[string]interface{}{
		"curlCommand":  createUserCurl,
		"specFilePath": "spec/api/users_spec.rb",
		"mode":         "sideways",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "unknown write mode")
}

func TestHandleMatchResponse(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name      string
		actual    string
		expected  string
		wantError bool
		want      []string
	}{
		{
			name:     "match with warning",
			actual:   `{"id": 5, "name": "alice", "extra": true}`,
			expected: `{"id": "skip", "name": "alice"}`,
			want:     []string{`"match": true`, "extra is not expected"},
		},
		{
			name:      "mismatch",
			actual:    `{"name": "alice"}`,
			expected:  `{"name": "bob"}`,
			wantError: true,
			want:      []string{`"match": false`, "name is wrong!", `"key": "name"`},
		},
		{
			name:      "invalid json",
			actual:    `{`,
			expected:  `{}`,
			wantError: true,
			want:      []string{"actual is not valid JSON"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, text := callTool(t, srv.handleMatchResponse, map[string]interface{}{
				"actual":   tt.actual,
				"expected": tt.expected,
			})
			assert.Equal(t, tt.wantError, result.IsError)
			for _, want := range tt.want {
				assert.Contains(t, text, want)
			}
		})
	}
}
