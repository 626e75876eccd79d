package testing

import (
	"fmt"
	"sync"

	"apiauto/internal/template"
	"apiauto/pkg/logging"

	"github.com/jmespath/go-jmespath"
)

// ScenarioContext holds the variables of a running scenario: the scenario's
// own variables plus the values stored by completed steps.
type ScenarioContext struct {
	storedResults map[string]interface{}
	mu            sync.RWMutex
}

// NewScenarioContext creates a scenario context seeded with vars.
func NewScenarioContext(vars map[string]interface{}) *ScenarioContext {
	sc := &ScenarioContext{storedResults: make(map[string]interface{}, len(vars))}
	for k, v := range vars {
		sc.storedResults[k] = v
	}
	return sc
}

// StoreResult stores a value under the given variable name
func (sc *ScenarioContext) StoreResult(name string, result interface{}) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.storedResults[name] = result
	logging.Debug("TestFramework", "Stored result for variable '%s': %v", name, result)
}

// GetStoredResult retrieves a stored result by variable name
func (sc *ScenarioContext) GetStoredResult(name string) (interface{}, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	result, exists := sc.storedResults[name]
	return result, exists
}

// GetAllStoredResults returns a copy of all stored results
func (sc *ScenarioContext) GetAllStoredResults() map[string]interface{} {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	out := make(map[string]interface{}, len(sc.storedResults))
	for k, v := range sc.storedResults {
		out[k] = v
	}
	return out
}

// StoreFromBody evaluates each JMESPath expression of store against body and
// stores the results. An expression selecting nothing is an error.
func (sc *ScenarioContext) StoreFromBody(store map[string]string, body interface{}) error {
	for name, expression := range store {
		value, err := jmespath.Search(expression, body)
		if err != nil {
			return fmt.Errorf("store %s: invalid expression %q: %w", name, expression, err)
		}
		if value == nil {
			return fmt.Errorf("store %s: expression %q selected nothing", name, expression)
		}
		sc.StoreResult(name, value)
	}
	return nil
}

// TemplateProcessor resolves placeholders in step requests.
type TemplateProcessor struct {
	context *ScenarioContext
	engine  *template.Engine
}

// NewTemplateProcessor creates a new template processor with the given scenario context
func NewTemplateProcessor(context *ScenarioContext) *TemplateProcessor {
	return &TemplateProcessor{
		context: context,
		engine:  template.New(),
	}
}

// ResolveRequest returns a copy of req with every placeholder resolved.
func (tp *TemplateProcessor) ResolveRequest(req StepRequest) (StepRequest, error) {
	vars := tp.context.GetAllStoredResults()
	out := StepRequest{Method: req.Method}

	var err error
	if out.Path, err = tp.engine.ReplaceString(req.Path, vars); err != nil {
		return out, fmt.Errorf("path: %w", err)
	}
	if out.Headers, err = tp.resolveStrings(req.Headers, vars); err != nil {
		return out, fmt.Errorf("headers: %w", err)
	}
	if out.Query, err = tp.resolveStrings(req.Query, vars); err != nil {
		return out, fmt.Errorf("query: %w", err)
	}
	if out.Body, err = tp.engine.Replace(req.Body, vars); err != nil {
		return out, fmt.Errorf("body: %w", err)
	}
	if out.File, err = tp.engine.ReplaceString(req.File, vars); err != nil {
		return out, fmt.Errorf("file: %w", err)
	}
	if out.Form, err = tp.resolveStrings(req.Form, vars); err != nil {
		return out, fmt.Errorf("form: %w", err)
	}

	logging.Debug("TestFramework", "Template resolution completed. Original: %v, Resolved: %v", req, out)
	return out, nil
}

// ResolveValue resolves placeholders in an arbitrary value such as an
// expected body.
func (tp *TemplateProcessor) ResolveValue(v interface{}) (interface{}, error) {
	return tp.engine.Replace(v, tp.context.GetAllStoredResults())
}

func (tp *TemplateProcessor) resolveStrings(m map[string]string, vars map[string]interface{}) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	resolved, err := tp.engine.Replace(m, vars)
	if err != nil {
		return nil, err
	}
	return resolved.(map[string]string), nil
}
