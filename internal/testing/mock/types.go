package mock

// Config is the top level of a mock API configuration file
type Config struct {
	// Routes are matched in order; the first route whose method and path
	// match handles the request
	Routes []RouteConfig `yaml:"routes" json:"routes"`
}

// RouteConfig defines configuration for a mock endpoint
type RouteConfig struct {
	// Method is the HTTP method, any method when empty
	Method string `yaml:"method" json:"method,omitempty"`
	// Path is the request path. Segments like {id} capture path parameters.
	Path string `yaml:"path" json:"path"`
	// Responses defines possible responses for this route
	Responses []RouteResponse `yaml:"responses" json:"responses"`
}

// RouteResponse defines a conditional response for a mock route
type RouteResponse struct {
	// Condition defines parameter matching for this response (optional).
	// Keys name path parameters, query parameters or dotted paths into the
	// JSON request body such as body.user.name.
	// If empty, this response is used as a fallback
	Condition map[string]interface{} `yaml:"condition,omitempty" json:"condition,omitempty"`
	// Status is the response status code, 200 when unset
	Status int `yaml:"status,omitempty" json:"status,omitempty"`
	// Headers are added to the response
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	// Body is the response body. Strings are written as they are, anything
	// else is encoded as JSON. Placeholders are resolved against the request.
	Body interface{} `yaml:"body,omitempty" json:"body,omitempty"`
	// Delay simulates response latency (e.g., "2s", "500ms")
	Delay string `yaml:"delay,omitempty" json:"delay,omitempty"`
}

// RecordedRequest is a request received by the mock server
type RecordedRequest struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    string
}
