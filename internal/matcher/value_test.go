package matcher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON_PreservesKeyOrder(t *testing.T) {
	v, err := FromJSON([]byte(`{"z":1,"a":{"y":true,"b":null},"m":[1,"two"]}`))
	require.NoError(t, err)

	require.Equal(t, KindMapping, v.Kind())
	var keys []string
	for _, e := range v.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":{"y":true,"b":null},"m":[1,"two"]}`, string(data))
}

func TestFromJSON_Errors(t *testing.T) {
	_, err := FromJSON([]byte(`{"a":`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)
}

func TestFrom_GoValues(t *testing.T) {
	v, err := From(map[string]interface{}{"b": 2, "a": []interface{}{int64(1), "x", nil}})
	require.NoError(t, err)

	assert.Equal(t, "a", v.Entries()[0].Key, "Go maps are converted with sorted keys")
	a, ok := v.Get("a")
	require.True(t, ok)
	assert.Equal(t, KindSequence, a.Kind())
	assert.Equal(t, 3, a.Len())
	assert.True(t, a.Index(2).IsNull())
	assert.True(t, a.Index(10).IsNull())

	b, _ := v.Get("b")
	assert.Equal(t, float64(2), b.Scalar())
}

func TestFrom_StructFallsBackToJSON(t *testing.T) {
	type user struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	v, err := From(user{ID: 7, Name: "kim"})
	require.NoError(t, err)

	id, ok := v.Get("id")
	require.True(t, ok)
	assert.True(t, id.Equal(Number(7)))
	assert.Equal(t, `{"id":7,"name":"kim"}`, v.String())
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"numbers", Number(1), Number(1.0), true},
		{"number vs string", Number(1), String("1"), false},
		{"null vs null", Null(), Null(), true},
		{"null vs empty string", Null(), String(""), false},
		{"bools", Bool(true), Bool(false), false},
		{"sequences", Sequence(Number(1), String("a")), Sequence(Number(1), String("a")), true},
		{"sequence order matters", Sequence(Number(1), Number(2)), Sequence(Number(2), Number(1)), false},
		{
			"mapping order ignored",
			Mapping(Entry{"a", Number(1)}, Entry{"b", Number(2)}),
			Mapping(Entry{"b", Number(2)}, Entry{"a", Number(1)}),
			true,
		},
		{"mapping vs sequence", Mapping(), Sequence(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "null", Null().String())
	assert.Equal(t, "", Null().Text())
	assert.Equal(t, "abc", String("abc").String())
	assert.Equal(t, "42", Number(42).String())
	assert.Equal(t, "0.5", Number(0.5).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, `[1,"a"]`, Sequence(Number(1), String("a")).String())
}

func TestMapping_DuplicateKeysOverwriteInPlace(t *testing.T) {
	m := Mapping(Entry{"a", Number(1)}, Entry{"b", Number(2)}, Entry{"a", Number(3)})
	require.Equal(t, 2, m.Len())
	assert.Equal(t, "a", m.Entries()[0].Key)
	assert.Equal(t, `{"a":3,"b":2}`, m.String())
}

func TestValue_Interface(t *testing.T) {
	v := MustFrom(map[string]interface{}{"a": []interface{}{1.0, "x"}})
	assert.Equal(t, map[string]interface{}{"a": []interface{}{1.0, "x"}}, v.Interface())
}
