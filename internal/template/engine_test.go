package template

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Replace(t *testing.T) {
	ctx := map[string]interface{}{
		"user_id": float64(42),
		"name":    "morpheus",
		"active":  true,
		"user": map[string]interface{}{
			"id":    json.Number("7"),
			"roles": []interface{}{"admin", "dev"},
		},
	}

	tests := []struct {
		name     string
		input    interface{}
		expected interface{}
	}{
		{name: "plain string", input: "hello", expected: "hello"},
		{name: "embedded number", input: "/api/users/{{ user_id }}", expected: "/api/users/42"},
		{name: "dot prefix without spaces", input: "{{.name}}-x", expected: "morpheus-x"},
		{name: "whole placeholder keeps type", input: "{{ user_id }}", expected: float64(42)},
		{name: "whole placeholder bool", input: "{{ active }}", expected: true},
		{name: "dotted path", input: "id={{ user.id }}", expected: "id=7"},
		{name: "sequence index", input: "{{ user.roles.1 }}", expected: "dev"},
		{name: "embedded container as JSON", input: "roles: {{ user.roles }}", expected: `roles: ["admin","dev"]`},
		{
			name:     "nested map",
			input:    map[string]interface{}{"id": "{{ user_id }}", "tags": []interface{}{"{{ name }}", 1}},
			expected: map[string]interface{}{"id": float64(42), "tags": []interface{}{"morpheus", 1}},
		},
		{
			name:     "string map",
			input:    map[string]string{"Authorization": "Bearer {{ name }}"},
			expected: map[string]string{"Authorization": "Bearer morpheus"},
		},
		{name: "non templatable", input: 3, expected: 3},
		{name: "nil", input: nil, expected: nil},
	}

	engine := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Replace(tt.input, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEngine_ReplaceMissing(t *testing.T) {
	engine := New()

	_, err := engine.Replace("/users/{{ id }}/{{ other }}", map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing template variables: id, other")

	_, err = engine.Replace(map[string]interface{}{"body": []interface{}{"{{ token }}"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error in key 'body'")
	assert.Contains(t, err.Error(), "error at index 0")
	assert.True(t, IsMissing(err))

	_, err = engine.Replace("{{ user.missing }}", map[string]interface{}{"user": map[string]interface{}{}})
	assert.Error(t, err)
}

func TestEngine_ReplaceString(t *testing.T) {
	s, err := New().ReplaceString("{{ n }}", map[string]interface{}{"n": 1.5})
	require.NoError(t, err)
	assert.Equal(t, "1.5", s)
}

func TestEngine_ExtractAndValidate(t *testing.T) {
	engine := New()
	value := map[string]interface{}{
		"path":    "/users/{{ user.id }}",
		"headers": map[string]string{"X-Token": "{{ token }}"},
		"body":    []interface{}{"{{ token }}", "{{.name}}"},
	}

	assert.Equal(t, []string{"name", "token", "user.id"}, engine.ExtractVariables(value))

	assert.NoError(t, engine.ValidateContext(value, map[string]interface{}{"user": nil, "token": "t", "name": "n"}))

	err := engine.ValidateContext(value, map[string]interface{}{"token": "t"})
	require.Error(t, err)
	assert.Equal(t, "missing template variables: name, user.id", err.Error())
	assert.True(t, IsMissing(fmt.Errorf("request path: %w", err)))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{float64(2), "2"},
		{0.25, "0.25"},
		{int64(10), "10"},
		{false, "false"},
		{json.Number("3.0"), "3.0"},
		{map[string]interface{}{"a": 1}, `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestContext(t *testing.T) {
	ctx := MergeContexts(
		map[string]interface{}{"a": 1, "b": 2},
		nil,
		map[string]interface{}{"b": 3},
	)
	assert.Equal(t, Context{"a": 1, "b": 3}, ctx)

	nested := Context{
		"list":    []interface{}{map[string]interface{}{"id": "x"}},
		"headers": map[string]string{"k": "v"},
	}
	v, ok := nested.Lookup("list.0.id")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	v, ok = nested.Lookup("headers.k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = nested.Lookup("list.1.id")
	assert.False(t, ok)
	_, ok = nested.Lookup("list.x")
	assert.False(t, ok)
	_, ok = nested.Lookup("missing")
	assert.False(t, ok)
}
