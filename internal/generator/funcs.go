package generator

import (
	"bytes"
	"embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("generator").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{
			"rq":   rubySingleQuoted,
			"resc": rubyEscapeSingle,
			"jsq":  jsSingleQuoted,
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", &EmitError{Template: name, Err: err}
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// jsSingleQuoted renders s as a single-quoted JavaScript string literal.
func jsSingleQuoted(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// prettyJSON encodes v with two-space indentation, sorted object keys and
// without HTML escaping.
func prettyJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
