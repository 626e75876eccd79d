package template

import (
	"strconv"
	"strings"
)

// Context holds the values placeholders are resolved against.
type Context map[string]interface{}

// MergeContexts merges multiple contexts into a single context.
// Later contexts override values from earlier contexts.
func MergeContexts(contexts ...map[string]interface{}) Context {
	result := make(Context)
	for _, ctx := range contexts {
		for key, value := range ctx {
			result[key] = value
		}
	}
	return result
}

// Lookup resolves a dotted path such as "user.id" or "users.0.email".
// Mapping segments select keys, numeric segments index sequences.
func (c Context) Lookup(path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	current, ok := c[parts[0]]
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		switch node := current.(type) {
		case map[string]interface{}:
			current, ok = node[part]
		case map[string]string:
			current, ok = node[part]
		case []interface{}:
			i, err := strconv.Atoi(part)
			ok = err == nil && i >= 0 && i < len(node)
			if ok {
				current = node[i]
			}
		default:
			ok = false
		}
		if !ok {
			return nil, false
		}
	}
	return current, true
}
