// Package curl turns a curl command line into a Request description.
//
// Quoting follows the subset of shell rules that copied curl commands use:
// single quotes are literal, double quotes allow backslash escapes, and a
// backslash outside quotes escapes the next character.
package curl

import (
	"bytes"
	"encoding/json"
	"io"
	"net/url"
	"regexp"
	"strings"
)

var (
	lineContinuation = regexp.MustCompile(`\\\r?\n`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	httpURLPattern   = regexp.MustCompile(`^https?://`)
)

var (
	methodFlags = map[string]bool{"-X": true, "--request": true}
	headerFlags = map[string]bool{"-H": true, "--header": true}
	dataFlags   = map[string]bool{
		"-d":               true,
		"--data":           true,
		"--data-raw":       true,
		"--data-binary":    true,
		"--data-ascii":     true,
		"--data-urlencode": true,
	}
	// Other curl options whose next token is their argument.
	valueFlags = map[string]bool{
		"-u": true, "--user": true,
		"-A": true, "--user-agent": true,
		"-b": true, "--cookie": true,
		"-e": true, "--referer": true,
		"-o": true, "--output": true,
		"-F": true, "--form": true,
		"-m": true, "--max-time": true,
		"--connect-timeout": true,
		"-x": true, "--proxy": true,
		"--cacert": true, "--cert": true, "--key": true,
		"-w": true, "--write-out": true,
		"--resolve": true,
		"--retry": true,
	}
)

// Normalize joins line continuations and collapses whitespace runs to a single space.
func Normalize(command string) string {
	command = lineContinuation.ReplaceAllString(command, " ")
	command = whitespaceRun.ReplaceAllString(command, " ")
	return strings.TrimSpace(command)
}

// Parse extracts a Request from a curl command. Everything except the URL is
// optional: a command without -X is a GET, without -H has no headers and
// without a data flag has no body.
func Parse(command string) (*Request, error) {
	normalized := Normalize(command)
	tokens := tokenize(normalized)
	if len(tokens) > 0 && tokens[0] == "curl" {
		tokens = tokens[1:]
	}

	req := &Request{Method: "GET"}
	var (
		urlFlag     string
		positionals []string
		bodyFound   bool
	)

	for i := 0; i < len(tokens); i++ {
		flag, value, inline := splitFlag(tokens[i])
		next := func() (string, bool) {
			if inline {
				return value, true
			}
			if i+1 < len(tokens) {
				i++
				return tokens[i], true
			}
			return "", false
		}

		switch {
		case methodFlags[flag]:
			if v, ok := next(); ok && v != "" {
				req.Method = strings.ToUpper(v)
			}
		case strings.HasPrefix(flag, "-X") && len(flag) > 2 && !strings.HasPrefix(flag, "--"):
			req.Method = strings.ToUpper(flag[2:])
		case headerFlags[flag]:
			if v, ok := next(); ok {
				if key, val, found := strings.Cut(v, ":"); found {
					if key = strings.TrimSpace(key); key != "" {
						req.Headers.Set(key, strings.TrimSpace(val))
					}
				}
			}
		case dataFlags[flag]:
			v, ok := next()
			if ok && !bodyFound {
				bodyFound = true
				req.RawBody = v
				req.Body = decodeBody(v)
			}
		case flag == "--url":
			if v, ok := next(); ok && urlFlag == "" {
				urlFlag = v
			}
		case valueFlags[flag]:
			next()
		case strings.HasPrefix(flag, "-") && len(flag) > 1:
			// Switches such as -s, -k, -L or --compressed.
		default:
			positionals = append(positionals, tokens[i])
		}
	}

	rawURL := selectURL(tokens, urlFlag, positionals)
	if rawURL == "" {
		return nil, &ParseError{Element: "URL", Command: command}
	}
	u, _ := url.Parse(rawURL)

	req.FullURL = rawURL
	req.Endpoint = u.EscapedPath()
	if req.Endpoint == "" {
		req.Endpoint = "/"
	}
	if query := u.Query(); len(query) > 0 {
		req.QueryParams = make(map[string]string, len(query))
		for k, values := range query {
			req.QueryParams[k] = values[len(values)-1]
		}
	}
	return req, nil
}

// selectURL prefers the token right after the command verb (and an optional
// -X VERB), then --url, then the first http(s) positional argument.
func selectURL(tokens []string, urlFlag string, positionals []string) string {
	first := 0
	if len(tokens) > 1 && methodFlags[tokens[0]] {
		first = 2
	}
	if first < len(tokens) && isURL(tokens[first]) {
		return tokens[first]
	}
	if isURL(urlFlag) {
		return urlFlag
	}
	for _, p := range positionals {
		if httpURLPattern.MatchString(p) && isURL(p) {
			return p
		}
	}
	return ""
}

func isURL(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// splitFlag separates "--name=value" into its parts. Short flags and
// non-flag tokens are returned unchanged.
func splitFlag(token string) (flag, value string, inline bool) {
	if strings.HasPrefix(token, "--") {
		if name, v, ok := strings.Cut(token, "="); ok {
			return name, v, true
		}
	}
	return token, "", false
}

func decodeBody(raw string) interface{} {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	if _, err := dec.Token(); err != io.EOF {
		return raw
	}
	return v
}

// tokenize splits a normalized command into words, honouring quotes.
func tokenize(s string) []string {
	var (
		tokens  []string
		current bytes.Buffer
		inWord  bool
	)
	flush := func() {
		if inWord {
			tokens = append(tokens, current.String())
			current.Reset()
			inWord = false
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		case r == '\'':
			inWord = true
			for i++; i < len(runes) && runes[i] != '\''; i++ {
				current.WriteRune(runes[i])
			}
		case r == '"':
			inWord = true
			for i++; i < len(runes) && runes[i] != '"'; i++ {
				if runes[i] == '\\' && i+1 < len(runes) {
					switch runes[i+1] {
					case '"', '\\', '$', '`':
						i++
					}
				}
				current.WriteRune(runes[i])
			}
		case r == '\\' && i+1 < len(runes):
			inWord = true
			i++
			current.WriteRune(runes[i])
		default:
			inWord = true
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
