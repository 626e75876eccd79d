package cli

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// DefaultCellWidth is the width free-text columns such as descriptions are cut to.
const DefaultCellWidth = 60

// minCellWidth leaves room for one character plus the ellipsis.
const minCellWidth = 4

// TruncateCell collapses all whitespace of s into single spaces and cuts the
// result to maxWidth terminal columns, ending it with "..." when cut. Wide
// characters count as two columns, as they do in table layout.
func TruncateCell(s string, maxWidth int) string {
	if maxWidth < minCellWidth {
		maxWidth = minCellWidth
	}
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, maxWidth, "...")
}
