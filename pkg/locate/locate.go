// Package locate finds tables and their cells in a ruling-line mask.
//
// Tables are the connected groups of line pixels. Cells are the regions of
// non-line pixels fully enclosed by rulings. Cells are grouped into rows by
// their top edge and ordered left to right within a row.
package locate

import (
	"image"
	"log/slog"
	"sort"
)

// Rect is an axis-aligned rectangle in page pixel coordinates.
type Rect struct {
	X, Y, W, H int
}

// Bounds converts r to an image.Rectangle.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Center returns the midpoint of r.
func (r Rect) Center() image.Point {
	return image.Pt(r.X+r.W/2, r.Y+r.H/2)
}

// Area returns W*H.
func (r Rect) Area() int { return r.W * r.H }

// Overlaps reports whether r and o share any pixel.
func (r Rect) Overlaps(o Rect) bool {
	return r.Bounds().Overlaps(o.Bounds())
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p image.Point) bool {
	return p.In(r.Bounds())
}

// Config holds the size heuristics used to accept tables and cells.
type Config struct {
	MinCellWidth   int `yaml:"min_cell_width"`
	MinCellHeight  int `yaml:"min_cell_height"`
	RowTolerance   int `yaml:"row_tolerance"` // Max top-edge difference within a row
	MinTableWidth  int `yaml:"min_table_width"`
	MinTableHeight int `yaml:"min_table_height"`
}

// DefaultConfig returns heuristics suited to 200 DPI scans.
func DefaultConfig() Config {
	return Config{
		MinCellWidth:   30,
		MinCellHeight:  15,
		RowTolerance:   20,
		MinTableWidth:  30,
		MinTableHeight: 15,
	}
}

// Table is one detected table with its cells in reading order.
type Table struct {
	Region   Rect
	Rows     [][]Rect
	Overlaps int // Number of overlapping cell pairs; cells are kept as found
}

// Shape returns the row count and the length of the longest row.
func (t Table) Shape() (rows, cols int) {
	for _, r := range t.Rows {
		cols = max(cols, len(r))
	}
	return len(t.Rows), cols
}

// Cells returns the total number of cells.
func (t Table) Cells() int {
	n := 0
	for _, r := range t.Rows {
		n += len(r)
	}
	return n
}

// Detection is the outcome of Locate: either Detected or NoStructureFound.
type Detection interface {
	detection()
}

// Detected carries at least one table.
type Detected struct {
	Tables []Table
}

// NoStructureFound means the page has no usable table grid.
type NoStructureFound struct {
	Reason string
}

func (Detected) detection() {}
func (NoStructureFound) detection() {}

// Tables returns the tables of d, or nil for NoStructureFound.
func Tables(d Detection) []Table {
	if det, ok := d.(Detected); ok {
		return det.Tables
	}
	return nil
}

// Locate finds tables and cells in a line mask where set pixels are rulings.
func Locate(mask *image.Gray, cfg Config) Detection {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	line := make([]bool, w*h)
	found := false
	for y := 0; y < h; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			if row[x] != 0 {
				line[y*w+x] = true
				found = true
			}
		}
	}
	if !found {
		return NoStructureFound{Reason: "no ruling lines detected"}
	}

	var regions []Rect
	for _, c := range components(line, w, h, true, true) {
		if c.rect.W > cfg.MinTableWidth && c.rect.H > cfg.MinTableHeight {
			regions = append(regions, c.rect)
		}
	}
	if len(regions) == 0 {
		return NoStructureFound{Reason: "ruling lines too small to form a table"}
	}

	var cells []Rect
	for _, c := range components(line, w, h, false, false) {
		if c.touchesBorder {
			continue
		}
		if c.rect.W > cfg.MinCellWidth && c.rect.H > cfg.MinCellHeight {
			cells = append(cells, c.rect)
		}
	}

	byRegion := make(map[int][]Rect)
	for _, cell := range cells {
		if i := owner(regions, cell); i >= 0 {
			byRegion[i] = append(byRegion[i], cell)
		}
	}

	var tables []Table
	for i, region := range regions {
		rc := byRegion[i]
		if len(rc) == 0 {
			continue
		}
		tables = append(tables, Table{
			Region:   region,
			Rows:     GroupRows(rc, cfg.RowTolerance),
			Overlaps: countOverlaps(rc),
		})
	}
	if len(tables) == 0 {
		return NoStructureFound{Reason: "no enclosed cells found"}
	}

	sort.SliceStable(tables, func(i, j int) bool {
		a, b := tables[i].Region, tables[j].Region
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	for _, t := range tables {
		rows, cols := t.Shape()
		slog.Debug("locate: table found", "x", t.Region.X, "y", t.Region.Y, "rows", rows, "cols", cols, "overlaps", t.Overlaps)
		if t.Overlaps > 0 {
			slog.Warn("locate: overlapping cells", "table_y", t.Region.Y, "pairs", t.Overlaps)
		}
	}
	return Detected{Tables: tables}
}

// owner returns the index of the smallest region containing cell's centre.
func owner(regions []Rect, cell Rect) int {
	best := -1
	for i, r := range regions {
		if !r.Contains(cell.Center()) {
			continue
		}
		if best < 0 || r.Area() < regions[best].Area() {
			best = i
		}
	}
	return best
}

// GroupRows sorts cells by (top, left) and clusters them into rows. A cell
// joins the current row while its top edge is within tolerance of the row's
// first cell. Each row is then ordered by its left edge.
func GroupRows(cells []Rect, tolerance int) [][]Rect {
	if len(cells) == 0 {
		return nil
	}
	sorted := make([]Rect, len(cells))
	copy(sorted, cells)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows [][]Rect
	var row []Rect
	for _, c := range sorted {
		if len(row) > 0 && abs(c.Y-row[0].Y) >= tolerance {
			rows = append(rows, row)
			row = nil
		}
		row = append(row, c)
	}
	rows = append(rows, row)

	for _, r := range rows {
		sort.SliceStable(r, func(i, j int) bool { return r[i].X < r[j].X })
	}
	return rows
}

func countOverlaps(cells []Rect) int {
	n := 0
	for i := range cells {
		for j := i + 1; j < len(cells); j++ {
			if cells[i].Overlaps(cells[j]) {
				n++
			}
		}
	}
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
