package agent

import (
	"encoding/json"
	"fmt"

	"apiauto/internal/curl"

	"github.com/mark3labs/mcp-go/mcp"
)

// stringArg returns the string argument key, or "" when it is absent or not a string.
func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg returns a JSON number argument as an int.
func intArg(args map[string]interface{}, key string) (int, bool, error) {
	v, present := args[key]
	if !present || v == nil {
		return 0, false, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false, fmt.Errorf("%s must be a number", key)
	}
	if f != float64(int(f)) {
		return 0, false, fmt.Errorf("%s must be a whole number", key)
	}
	return int(f), true, nil
}

func floatArg(args map[string]interface{}, key string) (*float64, error) {
	v, present := args[key]
	if !present || v == nil {
		return nil, nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

// stringSliceArg returns an array of strings. A missing argument yields nil
// so callers can tell it apart from an empty array.
func stringSliceArg(args map[string]interface{}, key string) ([]string, error) {
	v, present := args[key]
	if !present || v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// parseCurlArg parses the required curlCommand argument. On failure the
// returned result is the tool error to send back.
func parseCurlArg(request mcp.CallToolRequest) (*curl.Request, *mcp.CallToolResult) {
	command, err := request.RequireString("curlCommand")
	if err != nil || command == "" {
		return nil, mcp.NewToolResultError("curlCommand parameter is required")
	}
	req, err := curl.Parse(command)
	if err != nil {
		return nil, errorResult(err)
	}
	return req, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err))
}

func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v interface{}) *mcp.CallToolResult {
	text, err := formatJSON(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err))
	}
	return mcp.NewToolResultText(text)
}
