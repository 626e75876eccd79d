// Package template substitutes {{ name }} placeholders in scenario requests
// with values stored by earlier steps.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MissingError lists the placeholders no value was found for.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "missing template variables: " + strings.Join(e.Names, ", ")
}

// IsMissing reports whether err is or wraps a *MissingError.
func IsMissing(err error) bool {
	var missing *MissingError
	return errors.As(err, &missing)
}

// Engine resolves placeholders like {{ user_id }}, {{ .user_id }} or
// {{ user.id }} in strings, maps and slices.
type Engine struct {
	templatePattern *regexp.Regexp
	wholePattern    *regexp.Regexp
}

// New creates a new template engine
func New() *Engine {
	const name = `\.?([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_]+)*)`
	return &Engine{
		templatePattern: regexp.MustCompile(`\{\{\s*` + name + `\s*\}\}`),
		wholePattern:    regexp.MustCompile(`^\{\{\s*` + name + `\s*\}\}$`),
	}
}

// Replace replaces all placeholders in value with values from context.
//
// A string that consists of exactly one placeholder is replaced by the
// referenced value itself, so numbers, booleans and objects keep their type.
// Placeholders embedded in longer strings are formatted as text.
func (e *Engine) Replace(value interface{}, context map[string]interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		if m := e.wholePattern.FindStringSubmatch(v); m != nil {
			resolved, ok := Context(context).Lookup(m[1])
			if !ok {
				return nil, &MissingError{Names: []string{m[1]}}
			}
			return resolved, nil
		}
		return e.replaceStringTemplates(v, context)
	case map[string]interface{}:
		return e.replaceMapTemplates(v, context)
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, s := range v {
			replaced, err := e.replaceStringTemplates(s, context)
			if err != nil {
				return nil, fmt.Errorf("error in key '%s': %w", key, err)
			}
			out[key] = replaced
		}
		return out, nil
	case []interface{}:
		return e.replaceSliceTemplates(v, context)
	default:
		return value, nil
	}
}

// ReplaceString resolves placeholders in s, always producing text.
func (e *Engine) ReplaceString(s string, context map[string]interface{}) (string, error) {
	return e.replaceStringTemplates(s, context)
}

func (e *Engine) replaceStringTemplates(template string, context map[string]interface{}) (string, error) {
	var missingVars []string
	ctx := Context(context)

	result := e.templatePattern.ReplaceAllStringFunc(template, func(placeholder string) string {
		varName := e.templatePattern.FindStringSubmatch(placeholder)[1]
		replacement, exists := ctx.Lookup(varName)
		if !exists {
			missingVars = append(missingVars, varName)
			return placeholder
		}
		return FormatValue(replacement)
	})

	if len(missingVars) > 0 {
		return "", &MissingError{Names: missingVars}
	}
	return result, nil
}

func (e *Engine) replaceMapTemplates(m map[string]interface{}, context map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(m))
	for key, value := range m {
		replacedValue, err := e.Replace(value, context)
		if err != nil {
			return nil, fmt.Errorf("error in key '%s': %w", key, err)
		}
		result[key] = replacedValue
	}
	return result, nil
}

func (e *Engine) replaceSliceTemplates(s []interface{}, context map[string]interface{}) ([]interface{}, error) {
	result := make([]interface{}, len(s))
	for i, value := range s {
		replacedValue, err := e.Replace(value, context)
		if err != nil {
			return nil, fmt.Errorf("error at index %d: %w", i, err)
		}
		result[i] = replacedValue
	}
	return result, nil
}

// FormatValue renders a resolved value as placeholder text. Numbers use
// their shortest form, containers are rendered as compact JSON.
func FormatValue(v interface{}) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	case json.Number:
		return r.String()
	case float64:
		return strconv.FormatFloat(r, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(r), 'f', -1, 32)
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", r)
	case bool:
		return strconv.FormatBool(r)
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(r)
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", v)
}

// ExtractVariables returns the sorted, distinct placeholder names in value.
func (e *Engine) ExtractVariables(value interface{}) []string {
	variables := make(map[string]bool)
	e.extractVariablesRecursive(value, variables)

	result := make([]string, 0, len(variables))
	for varName := range variables {
		result = append(result, varName)
	}
	sort.Strings(result)
	return result
}

func (e *Engine) extractVariablesRecursive(value interface{}, variables map[string]bool) {
	switch v := value.(type) {
	case string:
		for _, match := range e.templatePattern.FindAllStringSubmatch(v, -1) {
			variables[match[1]] = true
		}
	case map[string]interface{}:
		for _, val := range v {
			e.extractVariablesRecursive(val, variables)
		}
	case map[string]string:
		for _, val := range v {
			e.extractVariablesRecursive(val, variables)
		}
	case []interface{}:
		for _, val := range v {
			e.extractVariablesRecursive(val, variables)
		}
	}
}

// RootName returns the first segment of a dotted placeholder name.
func RootName(varName string) string {
	if i := strings.IndexByte(varName, '.'); i >= 0 {
		return varName[:i]
	}
	return varName
}

// ValidateContext ensures the root of every placeholder is present in context.
func (e *Engine) ValidateContext(value interface{}, context map[string]interface{}) error {
	var missingVars []string
	for _, varName := range e.ExtractVariables(value) {
		if _, exists := context[RootName(varName)]; !exists {
			missingVars = append(missingVars, varName)
		}
	}

	if len(missingVars) > 0 {
		return &MissingError{Names: missingVars}
	}
	return nil
}
