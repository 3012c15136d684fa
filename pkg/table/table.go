// Package table holds the row/column aligned text produced for one detected table.
//
// A Grid is always rectangular: every row has as many entries as the longest
// row, shorter rows being right-padded with empty strings. Cells that the OCR
// engine could not read are kept as empty strings rather than dropped so that
// column indices stay aligned.
package table

// Grid is an ordered sequence of rows, each an ordered sequence of cell texts.
type Grid [][]string

// NewGrid copies rows into a Grid and pads every row to the widest one.
func NewGrid(rows [][]string) Grid {
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	grid := make(Grid, len(rows))
	for i, row := range rows {
		padded := make([]string, cols)
		copy(padded, row)
		grid[i] = padded
	}
	return grid
}

// Rows returns the number of rows.
func (g Grid) Rows() int { return len(g) }

// Cols returns the column count, which is the same for every row.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// IsEmpty reports whether the grid has no cells.
func (g Grid) IsEmpty() bool { return g.Rows() == 0 || g.Cols() == 0 }

// Cell returns the text at (r, c), or "" when out of range.
func (g Grid) Cell(r, c int) string {
	if r < 0 || r >= len(g) || c < 0 || c >= len(g[r]) {
		return ""
	}
	return g[r][c]
}

// Header returns the first detected row, used as the header by document exports.
func (g Grid) Header() []string {
	if len(g) == 0 {
		return nil
	}
	return g[0]
}

// Body returns every row after the header.
func (g Grid) Body() [][]string {
	if len(g) < 2 {
		return nil
	}
	return g[1:]
}

// Table is one detected table tagged with where it came from.
type Table struct {
	Label string // Display name, e.g. "Table 3"
	Page  int    // Source page (1-based)
	Index int    // Document-wide position (1-based)
	Grid  Grid
}

// TruncateLabel shortens label to at most max runes.
func TruncateLabel(label string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(label)
	if len(runes) <= max {
		return label
	}
	return string(runes[:max])
}
