package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/gardar/gridocr/pkg/table"
)

// RenderGrid draws g as a bordered text table. Widths are measured in
// terminal cells so CJK text lines up. Multi-line cells span several
// display rows.
func RenderGrid(w io.Writer, g table.Grid) error {
	if g.IsEmpty() {
		_, err := fmt.Fprintln(w, "(empty table)")
		return err
	}

	cols := g.Cols()
	widths := make([]int, cols)
	cells := make([][][]string, g.Rows())
	for r := range g {
		cells[r] = make([][]string, cols)
		for c := 0; c < cols; c++ {
			cellLines := strings.Split(g.Cell(r, c), "\n")
			cells[r][c] = cellLines
			for _, l := range cellLines {
				widths[c] = max(widths[c], runewidth.StringWidth(l))
			}
		}
	}

	var sb strings.Builder
	border := func(sep string) {
		sb.WriteString("+")
		for _, wd := range widths {
			sb.WriteString(strings.Repeat(sep, wd+2))
			sb.WriteString("+")
		}
		sb.WriteString("\n")
	}

	border("-")
	for r := range cells {
		height := 1
		for _, cl := range cells[r] {
			height = max(height, len(cl))
		}
		for line := 0; line < height; line++ {
			sb.WriteString("|")
			for c, cl := range cells[r] {
				text := ""
				if line < len(cl) {
					text = cl[line]
				}
				sb.WriteString(" ")
				sb.WriteString(runewidth.FillRight(text, widths[c]))
				sb.WriteString(" |")
			}
			sb.WriteString("\n")
		}
		if r == 0 && len(cells) > 1 {
			border("=")
		}
	}
	border("-")

	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderTables prints every table under its label.
func RenderTables(w io.Writer, tables []table.Table) error {
	for _, t := range tables {
		rows, cols := t.Grid.Rows(), t.Grid.Cols()
		if _, err := fmt.Fprintf(w, "%s (page %d, %dx%d)\n", t.Label, t.Page, rows, cols); err != nil {
			return err
		}
		if err := RenderGrid(w, t.Grid); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
