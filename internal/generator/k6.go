package generator

import (
	"strconv"

	"apiauto/internal/curl"
)

// Load script defaults.
const (
	DefaultVUs           = 10
	DefaultDuration      = "30s"
	DefaultSleepDuration = 1.0
	DefaultMaxLatencyMs  = 800
)

// DefaultThresholds is used when LoadOptions.Thresholds is nil.
var DefaultThresholds = []string{"p(95)<800"}

// LoadOptions configures EmitLoadScript. Zero values select the defaults.
type LoadOptions struct {
	VUs      int
	Duration string
	// Iterations is left out of the script when nil.
	Iterations *int
	// Thresholds for http_req_duration. Nil selects DefaultThresholds; an
	// empty non-nil slice omits the thresholds block.
	Thresholds    []string
	SleepDuration *float64
	// MaxLatencyMs is the per-request latency checked in the script.
	MaxLatencyMs int
}

type loadData struct {
	VUs             int
	Duration        string
	Iterations      string
	Thresholds      []string
	LastThreshold   int
	URL             string
	Method          string
	HeadersJSON     string
	HasPayload      bool
	PayloadIsObject bool
	PayloadJSON     string
	MaxLatency      int
	Sleep           string
}

// EmitLoadScript renders a k6 script that sends req in a loop and checks for
// a 2xx status within the latency limit.
func EmitLoadScript(req *curl.Request, opts LoadOptions) (string, error) {
	data := loadData{
		VUs:        opts.VUs,
		Duration:   opts.Duration,
		Thresholds: opts.Thresholds,
		URL:        req.URL(),
		Method:     req.Method,
		MaxLatency: opts.MaxLatencyMs,
	}
	if data.VUs <= 0 {
		data.VUs = DefaultVUs
	}
	if data.Duration == "" {
		data.Duration = DefaultDuration
	}
	if opts.Thresholds == nil {
		data.Thresholds = DefaultThresholds
	}
	data.LastThreshold = len(data.Thresholds) - 1
	if opts.Iterations != nil {
		data.Iterations = strconv.Itoa(*opts.Iterations)
	}
	if data.MaxLatency <= 0 {
		data.MaxLatency = DefaultMaxLatencyMs
	}
	sleep := DefaultSleepDuration
	if opts.SleepDuration != nil {
		sleep = *opts.SleepDuration
	}
	data.Sleep = strconv.FormatFloat(sleep, 'f', -1, 64)

	headers := req.Headers.Clone()
	if req.IsJSONBody() && !headers.Has("Content-Type") {
		headers.Set("Content-Type", "application/json")
	}
	headersJSON, err := headers.MarshalIndentJSON("", "  ")
	if err != nil {
		return "", &EmitError{Template: "k6.tmpl", Err: err}
	}
	data.HeadersJSON = string(headersJSON)

	if req.HasBody() {
		payload, err := prettyJSON(req.Body)
		if err != nil {
			return "", &EmitError{Template: "k6.tmpl", Err: err}
		}
		data.HasPayload = true
		data.PayloadIsObject = req.IsJSONBody()
		data.PayloadJSON = payload
	}

	out, err := render("k6.tmpl", data)
	if err != nil {
		return "", err
	}
	return out + "\n", nil
}
