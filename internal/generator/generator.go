// Package generator renders RSpec request specs and k6 load scripts from a
// parsed curl request. Rendering is deterministic: the same request and
// options always produce byte-identical text.
package generator

import (
	"fmt"
	"strings"

	"apiauto/internal/curl"
)

// TestType selects which RSpec blocks EmitTests renders.
type TestType string

const (
	TestFunctional    TestType = "functional"
	TestComponent     TestType = "component"
	TestNonFunctional TestType = "non-functional"
	// TestBoth renders functional and component blocks.
	TestBoth TestType = "both"
	// TestAll renders functional, component and non-functional blocks.
	TestAll TestType = "all"
)

// TestTypes lists the accepted test types.
var TestTypes = []TestType{TestFunctional, TestComponent, TestNonFunctional, TestBoth, TestAll}

// ParseTestType validates s. An empty string selects TestBoth.
func ParseTestType(s string) (TestType, error) {
	if s == "" {
		return TestBoth, nil
	}
	for _, t := range TestTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown test type %q (expected one of functional, component, non-functional, both, all)", s)
}

func (t TestType) functional() bool {
	return t == TestFunctional || t == TestBoth || t == TestAll
}

func (t TestType) component() bool {
	return t == TestComponent || t == TestBoth || t == TestAll
}

func (t TestType) nonFunctional() bool {
	return t == TestNonFunctional || t == TestAll
}

// TestOptions configures EmitTests.
type TestOptions struct {
	TestType TestType
	// Description is the top-level describe text, "<METHOD> <endpoint>" when empty.
	Description string
}

type headerLine struct {
	Key   string
	Value string
	Last  bool
}

type specData struct {
	Description string
	Method      string
	Verb        string
	Endpoint    string
	Resource    string
	Headers     []headerLine
	RequestArgs string
	Call        string
	ExpectsBody bool
	Mutating    bool
	HasAuth     bool
}

func newSpecData(req *curl.Request, description string) specData {
	verb := strings.ToLower(req.Method)
	d := specData{
		Description: description,
		Method:      req.Method,
		Verb:        verb,
		Endpoint:    req.Endpoint,
		Resource:    ResourceName(req.Endpoint),
		Call:        verb + " " + rubySingleQuoted(req.Endpoint),
		Mutating:    req.IsMutating(),
		HasAuth:     req.HasAuthorization(),
	}

	switch req.Method {
	case "POST", "GET", "PUT", "PATCH":
		d.ExpectsBody = true
	}

	entries := req.Headers.Entries()
	for i, h := range entries {
		d.Headers = append(d.Headers, headerLine{Key: h.Key, Value: h.Value, Last: i == len(entries)-1})
	}

	var args []string
	if req.HasBody() {
		args = append(args, "params: "+rubyLiteral(req.Body, 6))
	}
	args = append(args, "headers: headers")
	if req.IsJSONBody() {
		args = append(args, "as: :json")
	}
	d.RequestArgs = strings.Join(args, ", ")
	return d
}

// EmitTests renders an RSpec request spec for req. The header block with the
// shared headers is always present; opts.TestType picks the context blocks.
func EmitTests(req *curl.Request, opts TestOptions) (string, error) {
	testType, err := ParseTestType(string(opts.TestType))
	if err != nil {
		return "", err
	}

	description := opts.Description
	if description == "" {
		description = req.Method + " " + req.Endpoint
	}
	data := newSpecData(req, description)

	var blocks []string
	if testType.functional() {
		blocks = append(blocks, "rspec_functional.tmpl")
	}
	if testType.component() {
		blocks = append(blocks, "rspec_component.tmpl")
	}
	if testType.nonFunctional() {
		blocks = append(blocks, "rspec_nonfunctional.tmpl")
	}
	return emitSpec(data, blocks)
}

// EmitFunctionalFile renders a spec with the functional and component blocks.
func EmitFunctionalFile(req *curl.Request, description string) (string, error) {
	return EmitTests(req, TestOptions{TestType: TestBoth, Description: description})
}

// EmitNonFunctionalFile renders a spec containing only the non-functional
// block. The default description is "<METHOD> <endpoint> Non-Functional Tests".
func EmitNonFunctionalFile(req *curl.Request, description string) (string, error) {
	if description == "" {
		description = fmt.Sprintf("%s %s Non-Functional Tests", req.Method, req.Endpoint)
	}
	return emitSpec(newSpecData(req, description), []string{"rspec_nonfunctional.tmpl"})
}

func emitSpec(data specData, blocks []string) (string, error) {
	header, err := render("rspec_header.tmpl", data)
	if err != nil {
		return "", err
	}

	parts := []string{header}
	for _, name := range blocks {
		block, err := render(name, data)
		if err != nil {
			return "", err
		}
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n\n") + "\nend\n", nil
}
