package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"
)

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteYAML writes v as YAML. Field names follow the json tags of v, so
// YAML and JSON output describe the same document.
func WriteYAML(w io.Writer, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Write prints v in format. Table output is produced by table, which may be
// nil for values that have no tabular form; JSON is used for them instead.
func Write(w io.Writer, format OutputFormat, v interface{}, table func() *Table) error {
	switch format {
	case OutputFormatJSON:
		return WriteJSON(w, v)
	case OutputFormatYAML:
		return WriteYAML(w, v)
	case OutputFormatTable, "":
		if table == nil {
			return WriteJSON(w, v)
		}
		table().Render()
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
