package specfile

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

var rubyMethodDef = regexp.MustCompile(`(?m)^\s*def\s+(?:self\.)?([a-z_][a-zA-Z0-9_]*[?!]?)`)

// CommonPatterns are the conventions generated specs follow.
var CommonPatterns = []string{
	"Use JSON.parse for response parsing",
	"Use expect() matchers from RSpec",
	"Headers typically use symbol or string keys",
	"Request specs use :request type",
	"Use let() for test data setup",
}

// Analysis describes an RSpec project.
type Analysis struct {
	Root              string   `json:"root"`
	SpecHelperExists  bool     `json:"specHelperExists"`
	RailsHelperExists bool     `json:"railsHelperExists"`
	HelperMethods     []string `json:"helperMethods"`
	SpecDirs          []string `json:"specDirs"`
	SpecFileCount     int      `json:"specFileCount"`
	CommonPatterns    []string `json:"commonPatterns"`
}

// AnalyzeFramework inspects the spec directory under root. Missing files and
// directories are reported as absent rather than as errors.
func AnalyzeFramework(root string) (Analysis, error) {
	specDir := filepath.Join(root, "spec")
	a := Analysis{
		Root:           root,
		HelperMethods:  []string{},
		SpecDirs:       []string{},
		CommonPatterns: CommonPatterns,
	}

	helperFiles := []string{filepath.Join(specDir, "spec_helper.rb")}
	if fileExists(helperFiles[0]) {
		a.SpecHelperExists = true
	}
	if fileExists(filepath.Join(specDir, "rails_helper.rb")) {
		a.RailsHelperExists = true
		helperFiles = append(helperFiles, filepath.Join(specDir, "rails_helper.rb"))
	}
	support, _ := filepath.Glob(filepath.Join(specDir, "support", "*.rb"))
	helperFiles = append(helperFiles, support...)

	seen := map[string]bool{}
	for _, f := range helperFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		for _, m := range rubyMethodDef.FindAllStringSubmatch(string(data), -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				a.HelperMethods = append(a.HelperMethods, m[1])
			}
		}
	}
	sort.Strings(a.HelperMethods)

	if entries, err := os.ReadDir(specDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				a.SpecDirs = append(a.SpecDirs, e.Name())
			}
		}
	}

	files, err := FindSpecFiles(specDir, "")
	if err != nil {
		return a, err
	}
	a.SpecFileCount = len(files)
	return a, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
