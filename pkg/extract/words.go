package extract

import (
	"slices"
	"strings"

	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/gardar/gridocr/pkg/table"
)

// WordConfig tunes how recognised words are arranged into a borderless table.
type WordConfig struct {
	MinConfidence float64 `yaml:"min_confidence"` // Words at or below this x_wconf are dropped
	LineTolerance float64 `yaml:"line_tolerance"` // Max top-edge difference, in pixels, within a row
	ColumnGap     float64 `yaml:"column_gap"`     // Gap, in word heights, that starts a new column
}

// DefaultWordConfig matches two-space column breaks at typical word spacing.
func DefaultWordConfig() WordConfig {
	return WordConfig{MinConfidence: 30, LineTolerance: 10, ColumnGap: 0.8}
}

// WordTable builds a table from word positions alone, for tables drawn
// without ruling lines. Words are grouped into rows by their top edge and a
// row is split into columns wherever the horizontal gap between neighbours
// exceeds ColumnGap times the row's mean word height. Columns are not aligned
// across rows. The grid is empty when no word passes the confidence filter.
func WordTable(page hocr.Page, cfg WordConfig) table.Grid {
	var words []hocr.Word
	for _, w := range page.Words() {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text == "" || w.Confidence <= cfg.MinConfidence {
			continue
		}
		words = append(words, w)
	}
	slices.SortStableFunc(words, func(a, b hocr.Word) int {
		switch {
		case a.BBox.Y1 < b.BBox.Y1:
			return -1
		case a.BBox.Y1 > b.BBox.Y1:
			return 1
		}
		return 0
	})

	var rows [][]string
	for len(words) > 0 {
		// A row holds every following word whose top is near the row's first.
		n := 1
		for n < len(words) && abs64(words[n].BBox.Y1-words[0].BBox.Y1) < cfg.LineTolerance {
			n++
		}
		rows = append(rows, splitColumns(words[:n], cfg.ColumnGap))
		words = words[n:]
	}
	return table.NewGrid(rows)
}

// splitColumns orders one row's words left to right and joins them into
// column texts.
func splitColumns(row []hocr.Word, gap float64) []string {
	row = slices.Clone(row)
	slices.SortFunc(row, func(a, b hocr.Word) int {
		switch {
		case a.BBox.X1 < b.BBox.X1:
			return -1
		case a.BBox.X1 > b.BBox.X1:
			return 1
		}
		return 0
	})

	height := 0.0
	for _, w := range row {
		height += w.BBox.Height()
	}
	limit := gap * height / float64(len(row))

	var cols []string
	current := []string{row[0].Text}
	for i := 1; i < len(row); i++ {
		if row[i].BBox.X1-row[i-1].BBox.X2 > limit {
			cols = append(cols, strings.Join(current, " "))
			current = nil
		}
		current = append(current, row[i].Text)
	}
	return append(cols, strings.Join(current, " "))
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
