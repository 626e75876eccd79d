package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// Kind identifies which variant of the Value union is populated.
type Kind int

const (
	// KindScalar covers strings, numbers, booleans and null.
	KindScalar Kind = iota
	// KindSequence is an ordered list of values.
	KindSequence
	// KindMapping is a string-keyed mapping that keeps its key order.
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Entry is one key/value pair of a mapping.
type Entry struct {
	Key   string
	Value Value
}

// Value is the decoded form of both actual responses and expected templates.
// The zero Value is the null scalar, which also stands for an absent key or index.
//
// Scalars hold one of nil, bool, float64 or string.
type Value struct {
	kind    Kind
	scalar  interface{}
	items   []Value
	entries []Entry
}

// Null returns the null scalar.
func Null() Value { return Value{} }

// String returns a string scalar.
func String(s string) Value { return Value{kind: KindScalar, scalar: s} }

// Number returns a numeric scalar.
func Number(f float64) Value { return Value{kind: KindScalar, scalar: f} }

// Bool returns a boolean scalar.
func Bool(b bool) Value { return Value{kind: KindScalar, scalar: b} }

// Sequence returns a sequence holding items in order.
func Sequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, items: items}
}

// Mapping returns a mapping holding entries in order. Later duplicates of a
// key replace the earlier value in place.
func Mapping(entries ...Entry) Value {
	m := Value{kind: KindMapping, entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		m.set(e.Key, e.Value)
	}
	return m
}

func (v *Value) set(key string, val Value) {
	for i := range v.entries {
		if v.entries[i].Key == key {
			v.entries[i].Value = val
			return
		}
	}
	v.entries = append(v.entries, Entry{Key: key, Value: val})
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null scalar.
func (v Value) IsNull() bool { return v.kind == KindScalar && v.scalar == nil }

// IsContainer reports whether v is a sequence or mapping.
func (v Value) IsContainer() bool { return v.kind == KindSequence || v.kind == KindMapping }

// Scalar returns the raw scalar (nil, bool, float64 or string).
func (v Value) Scalar() interface{} { return v.scalar }

// Str returns the string held by a string scalar.
func (v Value) Str() (string, bool) {
	if v.kind != KindScalar {
		return "", false
	}
	s, ok := v.scalar.(string)
	return s, ok
}

// Len returns the number of items or entries; scalars have length 0.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.entries)
	default:
		return 0
	}
}

// Index returns item i of a sequence, or Null when v is not a sequence or i
// is out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindSequence || i < 0 || i >= len(v.items) {
		return Null()
	}
	return v.items[i]
}

// Items returns the items of a sequence.
func (v Value) Items() []Value { return v.items }

// Get looks up key in a mapping.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Null(), false
	}
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Null(), false
}

// Entries returns the entries of a mapping in order.
func (v Value) Entries() []Entry { return v.entries }

// Equal reports deep, type-aware equality. Mapping order is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for _, e := range v.entries {
			other, ok := o.Get(e.Key)
			if !ok || !e.Value.Equal(other) {
				return false
			}
		}
		return true
	default:
		switch a := v.scalar.(type) {
		case nil:
			return o.scalar == nil
		case float64:
			b, ok := o.scalar.(float64)
			return ok && a == b
		case string:
			b, ok := o.scalar.(string)
			return ok && a == b
		case bool:
			b, ok := o.scalar.(bool)
			return ok && a == b
		}
		return false
	}
}

// Text is the string form used by the pattern directives. Null renders empty.
func (v Value) Text() string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// String renders v for diagnostics: strings raw, null as "null", numbers in
// their shortest form and containers as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindSequence, KindMapping:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("<%s>", v.kind)
		}
		return string(data)
	}
	switch s := v.scalar.(type) {
	case nil:
		return "null"
	case string:
		return s
	case float64:
		return formatNumber(s)
	case bool:
		return strconv.FormatBool(s)
	}
	return fmt.Sprint(v.scalar)
}

func formatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON encodes v keeping mapping order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindMapping:
		buf.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := e.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
	if f, ok := v.scalar.(float64); ok {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("unsupported number %v", f)
		}
		buf.WriteString(formatNumber(f))
		return nil
	}
	data, err := json.Marshal(v.scalar)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// UnmarshalJSON decodes JSON keeping the document order of object keys.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Interface converts v back into plain Go values (map[string]interface{},
// []interface{}, float64, string, bool, nil).
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindSequence:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]interface{}, len(v.entries))
		for _, e := range v.entries {
			out[e.Key] = e.Value.Interface()
		}
		return out
	default:
		return v.scalar
	}
}

// From converts a decoded Go value into a Value. Go maps get sorted keys;
// anything not directly representable goes through a JSON round trip.
func From(in interface{}) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Value:
		if t == nil {
			return Null(), nil
		}
		return *t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int8:
		return Number(float64(t)), nil
	case int16:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String()), nil
		}
		return Number(f), nil
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			val, err := From(item)
			if err != nil {
				return Null(), err
			}
			items[i] = val
		}
		return Sequence(items...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			val, err := From(t[k])
			if err != nil {
				return Null(), err
			}
			entries = append(entries, Entry{Key: k, Value: val})
		}
		return Value{kind: KindMapping, entries: entries}, nil
	case map[interface{}]interface{}:
		conv := make(map[string]interface{}, len(t))
		for k, val := range t {
			conv[fmt.Sprint(k)] = val
		}
		return From(conv)
	}

	data, err := json.Marshal(in)
	if err != nil {
		return Null(), fmt.Errorf("unsupported value of type %T: %w", in, err)
	}
	return FromJSON(data)
}

// MustFrom is From for values known to be representable, such as literals in tests.
func MustFrom(in interface{}) Value {
	v, err := From(in)
	if err != nil {
		panic(err)
	}
	return v
}

// FromJSON decodes a JSON document into a Value, keeping object key order.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Null(), fmt.Errorf("failed to decode JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Null(), fmt.Errorf("failed to decode JSON: unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null(), err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return Sequence(items...), nil
		case '{':
			m := Value{kind: KindMapping, entries: []Entry{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null(), err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Null(), fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				m.set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return m, nil
		}
		return Null(), fmt.Errorf("unexpected delimiter %v", t)
	default:
		return From(t)
	}
}
