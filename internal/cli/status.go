package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	successMark = "✓"
	warningMark = "⚠"
	failureMark = "✗"
)

// Successf writes a line marked as a success to w.
func Successf(w io.Writer, format string, args ...interface{}) {
	writeStatus(w, successMark, text.FgGreen, format, args...)
}

// Warnf writes a line marked as a warning to w.
func Warnf(w io.Writer, format string, args ...interface{}) {
	writeStatus(w, warningMark, text.FgYellow, format, args...)
}

// Failf writes a line marked as a failure to w. It does not exit.
func Failf(w io.Writer, format string, args ...interface{}) {
	writeStatus(w, failureMark, text.FgRed, format, args...)
}

// writeStatus colors the mark only when w is a terminal.
func writeStatus(w io.Writer, mark string, color text.Color, format string, args ...interface{}) {
	if IsTerminal(w) {
		mark = color.Sprint(mark)
	}
	fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}
