package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
)

// TableStyle selects how a Table is drawn.
type TableStyle int

const (
	// StylePlain prints kubectl-style columns without box-drawing
	// characters, for copy/paste and piping to grep, awk or cut.
	StylePlain TableStyle = iota
	// StyleBox draws rounded borders around the cells.
	StyleBox
)

// Table collects rows and renders them in one of the table styles.
type Table struct {
	headers   []string
	rows      [][]string
	style     TableStyle
	noHeaders bool
	title     string
	out       io.Writer
}

// NewTable creates a table with the given column headers. Headers are
// upper-cased when rendered.
func NewTable(out io.Writer, style TableStyle, headers ...string) *Table {
	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	return &Table{headers: upper, style: style, out: out}
}

// SetNoHeaders controls whether to suppress the header row.
func (t *Table) SetNoHeaders(noHeaders bool) {
	t.noHeaders = noHeaders
}

// SetTitle sets a title printed above boxed tables.
func (t *Table) SetTitle(title string) {
	t.title = title
}

// AppendRow adds a row. Missing cells are left empty and extra cells dropped.
func (t *Table) AppendRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table. A table without headers renders nothing, and a
// table with neither rows nor a header row renders nothing either.
func (t *Table) Render() {
	if len(t.headers) == 0 || (len(t.rows) == 0 && t.noHeaders) {
		return
	}
	if t.style == StyleBox {
		t.renderBox()
		return
	}
	t.renderPlain()
}

func (t *Table) renderBox() {
	tw := table.NewWriter()
	tw.SetOutputMirror(t.out)
	tw.SetStyle(table.StyleRounded)
	if t.title != "" {
		tw.SetTitle(t.title)
	}
	if !t.noHeaders {
		tw.AppendHeader(toRow(t.headers))
	}
	for _, row := range t.rows {
		tw.AppendRow(toRow(row))
	}
	tw.Render()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

const plainPadding = 3

func (t *Table) renderPlain() {
	widths := make([]int, len(t.headers))
	measure := func(row []string) {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if !t.noHeaders {
		measure(t.headers)
	}
	for _, row := range t.rows {
		measure(row)
	}

	if !t.noHeaders {
		t.printPlainRow(t.headers, widths)
	}
	for _, row := range t.rows {
		t.printPlainRow(row, widths)
	}
}

func (t *Table) printPlainRow(row []string, widths []int) {
	var sb strings.Builder
	for i, cell := range row {
		sb.WriteString(cell)
		if i < len(row)-1 {
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+plainPadding))
		}
	}
	fmt.Fprintln(t.out, strings.TrimRight(sb.String(), " "))
}
