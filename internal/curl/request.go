package curl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Header is a single request header.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Headers is an ordered header list. Setting an existing key replaces its
// value without moving it.
type Headers struct {
	entries []Header
}

// NewHeaders builds Headers from key/value pairs in order.
func NewHeaders(pairs ...Header) Headers {
	var h Headers
	for _, p := range pairs {
		h.Set(p.Key, p.Value)
	}
	return h
}

// Set adds or replaces the header with exactly this key.
func (h *Headers) Set(key, value string) {
	for i := range h.entries {
		if h.entries[i].Key == key {
			h.entries[i].Value = value
			return
		}
	}
	h.entries = append(h.entries, Header{Key: key, Value: value})
}

// Get returns the value stored under exactly this key.
func (h Headers) Get(key string) (string, bool) {
	for _, e := range h.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Lookup finds a header ignoring case, as HTTP does.
func (h Headers) Lookup(key string) (string, bool) {
	for _, e := range h.entries {
		if strings.EqualFold(e.Key, key) {
			return e.Value, true
		}
	}
	return "", false
}

// Has reports whether a header with this name exists, ignoring case.
func (h Headers) Has(key string) bool {
	_, ok := h.Lookup(key)
	return ok
}

// Keys returns header names in insertion order.
func (h Headers) Keys() []string {
	keys := make([]string, len(h.entries))
	for i, e := range h.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the headers in insertion order.
func (h Headers) Entries() []Header {
	out := make([]Header, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of headers.
func (h Headers) Len() int { return len(h.entries) }

// Clone returns an independent copy.
func (h Headers) Clone() Headers {
	return Headers{entries: h.Entries()}
}

// Map returns the headers as a plain map.
func (h Headers) Map() map[string]string {
	m := make(map[string]string, len(h.entries))
	for _, e := range h.entries {
		m[e.Key] = e.Value
	}
	return m
}

// MarshalJSON encodes the headers as a JSON object in insertion order.
func (h Headers) MarshalJSON() ([]byte, error) {
	return h.marshal("", "")
}

// MarshalIndentJSON is MarshalJSON with indentation, keeping insertion order.
func (h Headers) MarshalIndentJSON(prefix, indent string) ([]byte, error) {
	return h.marshal(prefix, indent)
}

// UnmarshalJSON decodes a JSON object of string values keeping document order.
func (h *Headers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*h = Headers{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("headers must be a JSON object")
	}
	var out Headers
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("header %v: %w", keyTok, err)
		}
		out.Set(keyTok.(string), value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*h = out
	return nil
}

func (h Headers) marshal(prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range h.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	if indent == "" && prefix == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), prefix, indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Request describes one HTTP request extracted from a curl command.
// It is not modified after Parse returns it.
type Request struct {
	// Endpoint is the escaped URL path without scheme, host or query, "/" at minimum.
	Endpoint string `json:"endpoint"`
	// Method is the upper-case HTTP method, GET unless -X says otherwise.
	Method  string  `json:"method"`
	Headers Headers `json:"headers"`
	// Body is the decoded JSON body, the raw data string when it is not JSON,
	// or nil when the command sends no data.
	Body interface{} `json:"requestBody,omitempty"`
	// RawBody is the data argument as written.
	RawBody string `json:"-"`
	// QueryParams holds the query string, last value winning; nil when empty.
	QueryParams map[string]string `json:"queryParams,omitempty"`
	FullURL     string            `json:"fullUrl"`
}

// HasBody reports whether the command carried a data flag, including one
// whose JSON decodes to null.
func (r *Request) HasBody() bool {
	return r.RawBody != "" || r.Body != nil
}

// IsJSONBody reports whether the body decoded to a JSON object or array.
func (r *Request) IsJSONBody() bool {
	switch r.Body.(type) {
	case map[string]interface{}, []interface{}:
		return true
	}
	return false
}

// IsMutating reports whether the method carries a payload by convention.
func (r *Request) IsMutating() bool {
	switch r.Method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// HasAuthorization reports whether an Authorization header was given in any case.
func (r *Request) HasAuthorization() bool {
	return r.Headers.Has("Authorization")
}

// URL rebuilds the absolute request URL from FullURL with the query
// parameters re-encoded in sorted order. Endpoints without a host are
// resolved against http://localhost.
func (r *Request) URL() string {
	base := r.FullURL
	if base == "" {
		base = r.Endpoint
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if u.Scheme == "" || u.Host == "" {
		root, _ := url.Parse("http://localhost")
		u = root.ResolveReference(u)
	}
	if len(r.QueryParams) > 0 {
		q := u.Query()
		for k, v := range r.QueryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}
