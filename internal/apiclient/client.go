// Package apiclient sends the HTTP requests of API test scenarios and checks
// their responses.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"apiauto/internal/config"
	"apiauto/internal/matcher"
	"apiauto/pkg/logging"
)

// AuthCookieName is the cookie refreshed from successful responses.
const AuthCookieName = "authToken"

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Cookies    []*http.Cookie
	Duration   time.Duration
}

// JSON decodes the body into plain Go values, keeping numbers as json.Number.
func (r *Response) JSON() (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("response body is not JSON: %w", err)
	}
	return v, nil
}

// Value decodes the body for use with the matcher, keeping key order.
func (r *Response) Value() (matcher.Value, error) {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return matcher.Null(), nil
	}
	v, err := matcher.FromJSON(r.Body)
	if err != nil {
		return matcher.Null(), fmt.Errorf("response body is not JSON: %w", err)
	}
	return v, nil
}

func (r *Response) String() string {
	return string(r.Body)
}

// Exchange records the last request sent and the response received.
type Exchange struct {
	Method   string
	URL      string
	Payload  string
	Response *Response
}

// String formats the exchange for failure output.
func (e *Exchange) String() string {
	if e == nil {
		return "***** last request is: *****\n\trequest is empty"
	}
	lines := []string{
		"***** last request is: *****",
		"\tmethod: " + e.Method,
		"\turl: " + e.URL,
		"\tpayload: " + e.Payload,
		"***** last response is: *****",
	}
	if e.Response == nil {
		lines = append(lines, "response is empty")
	} else {
		lines = append(lines, fmt.Sprintf("code: %d", e.Response.StatusCode), "response: "+e.Response.String())
	}
	return strings.Join(lines, "\n")
}

// Client sends requests relative to a base URL with default headers and
// cookies. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	headers map[string]string
	cookies map[string]string
	token   string
	last    *Exchange
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHeaders adds default headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithCookies adds default cookies sent with every request.
func WithCookies(cookies map[string]string) Option {
	return func(c *Client) {
		for k, v := range cookies {
			c.cookies[k] = v
		}
	}
}

// WithToken sets a bearer token sent in the Authorization header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: config.DefaultTimeout},
		headers:    map[string]string{},
		cookies:    map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a Client for service in the active environment,
// carrying the configured headers, cookies and timeout. An empty service
// creates a Client without base URL for absolute request URLs.
func NewFromConfig(cfg config.Config, service string, opts ...Option) (*Client, error) {
	var base string
	if service != "" {
		u, err := cfg.HostURL(service)
		if err != nil {
			return nil, err
		}
		base = u
	}
	all := []Option{WithHeaders(cfg.Headers), WithCookies(cfg.Cookies)}
	if cfg.Timeout > 0 {
		all = append(all, WithTimeout(cfg.Timeout))
	}
	return New(base, append(all, opts...)...), nil
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// LastExchange returns the most recent request and response, or nil.
func (c *Client) LastExchange() *Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// URL resolves path against the base URL. Absolute URLs are returned unchanged.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || c.baseURL == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Send performs one request. body may be nil, a JSON string, raw bytes, or
// any value that is marshalled to JSON. extra headers override the defaults.
//
// Non-2xx responses are returned without error, except 401, 500 and 504
// which are additionally reported as *StatusError.
func (c *Client) Send(ctx context.Context, method, path string, body interface{}, extra map[string]string) (*Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	out := outgoing{method: method, path: path, body: payload, summary: string(payload), headers: extra}
	if payload != nil {
		out.contentType = "application/json"
	}
	return c.do(ctx, out)
}

// SendFile uploads the file at filePath as the "file" field of a
// multipart/form-data request.
func (c *Client) SendFile(ctx context.Context, method, path, filePath string, extra map[string]string) (*Response, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", filePath, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	return c.do(ctx, outgoing{
		method:      method,
		path:        path,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		summary:     "file=" + filePath,
		headers:     extra,
	})
}

// SendMultipart sends fields as a multipart/form-data request, in key order.
func (c *Client) SendMultipart(ctx context.Context, method, path string, fields, extra map[string]string) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	keys := sortedKeys(fields)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	return c.do(ctx, outgoing{
		method:      method,
		path:        path,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		summary:     "multipart fields: " + strings.Join(keys, ", "),
		headers:     extra,
	})
}

// GetFile downloads path as application/octet-stream.
func (c *Client) GetFile(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, outgoing{
		method:  http.MethodGet,
		path:    path,
		headers: map[string]string{"Accept": "application/octet-stream"},
	})
}

type outgoing struct {
	method      string
	path        string
	body        []byte
	contentType string
	summary     string
	headers     map[string]string
}

func (c *Client) do(ctx context.Context, out outgoing) (*Response, error) {
	method := out.method
	target := c.URL(out.path)
	var reader io.Reader
	if out.body != nil {
		reader = bytes.NewReader(out.body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, target, err)
	}

	c.mu.Lock()
	req.Header.Set("Accept", "application/json")
	if out.contentType != "" {
		req.Header.Set("Content-Type", out.contentType)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for _, name := range sortedKeys(c.cookies) {
		req.AddCookie(&http.Cookie{Name: name, Value: c.cookies[name]})
	}
	c.mu.Unlock()
	for k, v := range out.headers {
		req.Header.Set(k, v)
	}

	logging.Debug("APIClient", "%s %s", req.Method, target)
	exchange := &Exchange{Method: req.Method, URL: target, Payload: out.summary}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(exchange)
		return nil, fmt.Errorf("%s %s failed: %w", req.Method, target, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.record(exchange)
		return nil, fmt.Errorf("failed to read response of %s %s: %w", req.Method, target, err)
	}
	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		Cookies:    httpResp.Cookies(),
		Duration:   time.Since(start),
	}
	exchange.Response = resp
	c.record(exchange)
	logging.Debug("APIClient", "%s %s -> %d in %s", req.Method, target, resp.StatusCode, resp.Duration)

	if resp.StatusCode == http.StatusOK {
		c.refreshAuthCookie(resp)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusInternalServerError, http.StatusGatewayTimeout:
		if resp.StatusCode != http.StatusUnauthorized {
			logging.Info("APIClient", "%s", exchange)
		}
		return resp, &StatusError{StatusCode: resp.StatusCode, Method: req.Method, URL: target, At: time.Now()}
	}
	return resp, nil
}

func (c *Client) record(e *Exchange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = e
}

func (c *Client) refreshAuthCookie(resp *Response) {
	for _, cookie := range resp.Cookies {
		if cookie.Name == AuthCookieName && cookie.Value != "" {
			c.mu.Lock()
			c.cookies[AuthCookieName] = cookie.Value
			c.mu.Unlock()
			logging.Debug("APIClient", "Refreshed %s cookie", AuthCookieName)
		}
	}
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Send(ctx, http.MethodGet, path, nil, nil)
}

// Post sends a POST request. A nil body is sent as an empty JSON object.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	if body == nil {
		body = map[string]interface{}{}
	}
	return c.Send(ctx, http.MethodPost, path, body, nil)
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Send(ctx, http.MethodPut, path, body, nil)
}

// Patch sends a PATCH request with optional extra headers.
func (c *Client) Patch(ctx context.Context, path string, body interface{}, headers map[string]string) (*Response, error) {
	return c.Send(ctx, http.MethodPatch, path, body, headers)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Send(ctx, http.MethodDelete, path, nil, nil)
}

// Login posts the credentials as {"email", "password"} to path and keeps the
// "token" field of the response as bearer token.
func (c *Client) Login(ctx context.Context, path string, creds config.Credentials) error {
	logging.Info("APIClient", "Logging in with %s", creds.Username)
	resp, err := c.Post(ctx, path, map[string]string{
		"email":    creds.Username,
		"password": creds.Password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := VerifyResponseCode(resp, http.StatusOK); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil || body.Token == "" {
		return fmt.Errorf("login failed: response carries no token")
	}
	c.SetToken(body.Token)
	return nil
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		if json.Valid([]byte(b)) {
			return []byte(b), nil
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
