package specfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing_spec.rb")

	f, err := Read(path)
	require.NoError(t, err)
	assert.False(t, f.Exists)
	assert.Equal(t, "", f.Content)
	assert.Equal(t, path, f.Path)
}

func TestWrite_Modes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec", "api", "users_spec.rb")

	content, err := Write(path, "first", ModeCreate)
	require.NoError(t, err)
	assert.Equal(t, "first", content)

	_, err = Write(path, "second", ModeCreate)
	require.Error(t, err)
	assert.True(t, IsExists(err))
	assert.Contains(t, err.Error(), path)

	content, err = Write(path, "second", ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, "first\n\nsecond", content)

	f, err := Read(path)
	require.NoError(t, err)
	assert.True(t, f.Exists)
	assert.Equal(t, "first\n\nsecond", f.Content)

	_, err = Write(path, "third", ModeUpdate)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "third", string(data))

	_, err = Write(path, "x", Mode("merge"))
	assert.Error(t, err)
}

func TestWrite_AppendToMissingFileCreatesIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new_spec.rb")

	content, err := Write(path, "body", ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, "body", content)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeCreate, m)

	m, err = ParseMode("append")
	require.NoError(t, err)
	assert.Equal(t, ModeAppend, m)

	_, err = ParseMode("overwrite")
	assert.Error(t, err)
}

func TestNonFunctionalPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"spec/api/users_spec.rb", "spec/api/users_non_functional_spec.rb"},
		{"users_spec.rb", "users_non_functional_spec.rb"},
		{"spec/orders.rb", "spec/orders_non_functional_spec.rb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NonFunctionalPath(tt.input))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFindSpecFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "api", "users_spec.rb"), "")
	writeFile(t, filepath.Join(root, "api", "orders_spec.rb"), "")
	writeFile(t, filepath.Join(root, "api", "helper.rb"), "")
	writeFile(t, filepath.Join(root, "ui", "users_page_spec.rb"), "")

	all, err := FindSpecFiles(root, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	users, err := FindSpecFiles(root, "users")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "api", "users_spec.rb"),
		filepath.Join(root, "ui", "users_page_spec.rb"),
	}, users)

	none, err := FindSpecFiles(filepath.Join(root, "missing"), "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAnalyzeFramework(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "spec", "spec_helper.rb"), `
require 'rspec'

def app_env
  ENV.fetch('APP_ENV', 'dev')
end

def self.retry_count
  3
end
`)
	writeFile(t, filepath.Join(root, "spec", "support", "requests.rb"), `
module Requests
  def send_request(method, url)
  end

  def logged_in?
  end
end
`)
	writeFile(t, filepath.Join(root, "spec", "api", "users_spec.rb"), "")

	a, err := AnalyzeFramework(root)
	require.NoError(t, err)
	assert.True(t, a.SpecHelperExists)
	assert.False(t, a.RailsHelperExists)
	assert.Equal(t, []string{"app_env", "logged_in?", "retry_count", "send_request"}, a.HelperMethods)
	assert.Equal(t, []string{"api", "support"}, a.SpecDirs)
	assert.Equal(t, 1, a.SpecFileCount)
	assert.Equal(t, CommonPatterns, a.CommonPatterns)
}

func TestAnalyzeFramework_EmptyProject(t *testing.T) {
	a, err := AnalyzeFramework(t.TempDir())
	require.NoError(t, err)
	assert.False(t, a.SpecHelperExists)
	assert.Empty(t, a.HelperMethods)
	assert.Empty(t, a.SpecDirs)
	assert.Equal(t, 0, a.SpecFileCount)
}
