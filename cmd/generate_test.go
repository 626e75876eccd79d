package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apiauto/internal/curl"
	"apiauto/internal/matcher"
	"apiauto/internal/specfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createUserCurl = `curl -X POST 'https://api.example.com/api/users?page=2' -H 'Content-Type: application/json' -d '{"name":"alice"}'`

func TestParseCommand_Formats(t *testing.T) {
	out, _, err := executeCommand(t, "", "parse", createUserCurl, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"endpoint": "/api/users"`)
	assert.Contains(t, out, `"method": "POST"`)
	assert.Contains(t, out, `"page": "2"`)
	assert.Contains(t, out, `"Content-Type": "application/json"`)

	out, _, err = executeCommand(t, "", "parse", createUserCurl, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "method: POST\n")
	assert.Contains(t, out, "endpoint: /api/users\n")

	out, _, err = executeCommand(t, "", "parse", createUserCurl)
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(out), "POST /API/USERS")
	assert.Contains(t, out, "Header Content-Type")
	assert.Contains(t, out, "Query page")
	assert.Contains(t, out, `{"name":"alice"}`)
}

func TestParseCommand_Input(t *testing.T) {
	out, _, err := executeCommand(t, "curl https://api.example.com/health", "parse", "-", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"endpoint": "/health"`)

	file := writeTestFile(t, filepath.Join(t.TempDir(), "req.sh"), "curl \\\n  -X DELETE \\\n  https://api.example.com/api/users/3\n")
	out, _, err = executeCommand(t, "", "parse", "--file", file, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"method": "DELETE"`)
	assert.Contains(t, out, `"endpoint": "/api/users/3"`)
}

func TestParseCommand_Errors(t *testing.T) {
	_, _, err := executeCommand(t, "", "parse", "curl -X POST -H 'Content-Type: application/json'")
	require.Error(t, err)
	assert.True(t, curl.IsParseError(err))
	assert.Equal(t, ExitCodeParseError, getExitCode(err))

	_, _, err = executeCommand(t, "", "parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a curl command is required")

	_, _, err = executeCommand(t, "", "parse", "--file", "req.sh", "curl https://x.io")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not both")

	_, _, err = executeCommand(t, "   ", "parse", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, _, err = executeCommand(t, "", "parse", createUserCurl, "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestGenerateTests(t *testing.T) {
	out, _, err := executeCommand(t, "", "generate", "tests", createUserCurl, "--type", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "RSpec.describe 'POST /api/users', type: :request do")
	assert.Contains(t, out, "Non-Functional Tests")

	path := filepath.Join(t.TempDir(), "spec", "api", "users_spec.rb")
	out, _, err = executeCommand(t, "", "generate", "tests", createUserCurl, "--out", path, "-d", "Create user")
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "RSpec.describe 'Create user', type: :request do")

	_, _, err = executeCommand(t, "", "generate", "tests", createUserCurl, "--out", path)
	require.Error(t, err)
	assert.True(t, specfile.IsExists(err))

	out, _, err = executeCommand(t, "", "generate", "tests", createUserCurl, "--out", path, "--mode", "append")
	require.NoError(t, err)
	assert.Contains(t, out, "Appended to "+path)
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(content), "RSpec.describe"))

	_, _, err = executeCommand(t, "", "generate", "tests", createUserCurl, "--type", "smoke")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown test type")

	_, _, err = executeCommand(t, "", "generate", "tests", createUserCurl, "--mode", "replace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown write mode")
}

func TestGenerateLoadScript(t *testing.T) {
	out, _, err := executeCommand(t, "", "generate", "k6", "curl https://api.example.com/api/users",
		"--vus", "25", "--duration", "2m", "--iterations", "100", "--sleep", "0.5", "--stdout")
	require.NoError(t, err)
	assert.Contains(t, out, "  vus: 25,\n  duration: '2m',\n  iterations: 100,\n")
	assert.Contains(t, out, "sleep(0.5);")

	dir := t.TempDir()
	configPath := writeTestFile(t, filepath.Join(dir, "apiauto.yaml"), "perf_dir: "+filepath.Join(dir, "perf")+"\n")
	scriptPath := filepath.Join(dir, "perf", "k6_script.js")
	for i := 0; i < 2; i++ {
		out, _, err = executeCommand(t, "", "--config", configPath, "generate", "k6", "curl https://api.example.com/api/users")
		require.NoError(t, err)
		assert.Contains(t, out, scriptPath)
	}
	content, err := os.ReadFile(scriptPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "https://api.example.com/api/users")

	_, _, err = executeCommand(t, "", "generate", "k6", "curl https://api.example.com", "--vus", "0", "--stdout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--vus must be at least 1")

	_, _, err = executeCommand(t, "", "generate", "k6", "curl https://api.example.com", "--iterations", "-1", "--stdout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--iterations cannot be negative")
}

func TestGenerateSplitAndNonFunctional(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "spec", "api", "users_spec.rb")
	nonFunctional := filepath.Join(dir, "spec", "api", "users_non_functional_spec.rb")

	out, _, err := executeCommand(t, "", "generate", "split", createUserCurl, "--spec", spec)
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+spec)
	assert.Contains(t, out, "Created "+nonFunctional)

	functional, err := os.ReadFile(spec)
	require.NoError(t, err)
	assert.Contains(t, string(functional), "Component Tests")
	assert.NotContains(t, string(functional), "Non-Functional Tests")

	out, _, err = executeCommand(t, "", "generate", "nonfunctional", createUserCurl, "--spec", spec, "--mode", "update")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated "+nonFunctional)
	content, err := os.ReadFile(nonFunctional)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Non-Functional Tests")

	out, _, err = executeCommand(t, "", "generate", "nonfunctional", createUserCurl)
	require.NoError(t, err)
	assert.Contains(t, out, "Non-Functional Tests")

	_, _, err = executeCommand(t, "", "generate", "split", createUserCurl)
	require.Error(t, err)
}

func TestMatchCommand(t *testing.T) {
	dir := t.TempDir()
	actual := writeTestFile(t, filepath.Join(dir, "actual.json"), `{"id":"7","name":"alice","extra":1}`)
	expected := writeTestFile(t, filepath.Join(dir, "expected.json"), `{"id":"only_digits","name":"alice"}`)
	wrong := writeTestFile(t, filepath.Join(dir, "wrong.json"), `{"id":"7","name":"bob"}`)

	out, errOut, err := executeCommand(t, "", "match", "--actual", actual, "--expected", expected)
	require.NoError(t, err)
	assert.Contains(t, out, "response matches")
	assert.Contains(t, errOut, "extra is not expected")

	out, _, err = executeCommand(t, "", "match", "--actual", actual, "--expected", wrong)
	require.Error(t, err)
	assert.True(t, matcher.IsMatchError(err))
	assert.Equal(t, ExitCodeMismatch, getExitCode(err))
	assert.NotContains(t, out, "response matches")

	out, _, err = executeCommand(t, "", "match", "--actual", actual, "--expected", wrong, "-o", "json")
	require.Error(t, err)
	assert.Contains(t, out, `"match": false`)
	assert.Contains(t, out, `"key": "name"`)

	out, _, err = executeCommand(t, `{"id":"7","name":"alice"}`, "match", "--actual", "-", "--expected", expected, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"match": true`)

	_, _, err = executeCommand(t, "", "match", "--actual", "-", "--expected", "-")
	require.Error(t, err)

	bad := writeTestFile(t, filepath.Join(dir, "bad.json"), `{"id":`)
	_, _, err = executeCommand(t, "", "match", "--actual", bad, "--expected", expected)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}
