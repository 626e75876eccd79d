package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var rubySymbolKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// rubySingleQuoted renders s as a single-quoted Ruby string literal.
func rubySingleQuoted(s string) string {
	return "'" + rubyEscapeSingle(s) + "'"
}

// rubyEscapeSingle escapes s for use inside a single-quoted Ruby string.
func rubyEscapeSingle(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// rubyDoubleQuoted renders s as a double-quoted Ruby string literal with
// interpolation disabled.
func rubyDoubleQuoted(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '#':
			b.WriteString(`\#`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// rubyLiteral renders a decoded JSON value as Ruby source. Hash keys are
// emitted in sorted order; nested hashes are laid out one key per line,
// indented relative to indent.
func rubyLiteral(v interface{}, indent int) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		return rubyDoubleQuoted(t)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []interface{}:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = rubyLiteral(item, indent)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		if len(t) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pad := strings.Repeat(" ", indent)
		lines := []string{"{"}
		for i, k := range keys {
			comma := ","
			if i == len(keys)-1 {
				comma = ""
			}
			lines = append(lines, fmt.Sprintf("%s  %s %s%s", pad, rubyHashKey(k), rubyLiteral(t[k], indent+2), comma))
		}
		lines = append(lines, pad+"}")
		return strings.Join(lines, "\n")
	default:
		return rubyDoubleQuoted(fmt.Sprint(t))
	}
}

func rubyHashKey(k string) string {
	if rubySymbolKey.MatchString(k) {
		return k + ":"
	}
	return rubyDoubleQuoted(k) + ":"
}
