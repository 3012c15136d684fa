package locate

import (
	"image"
	"reflect"
	"testing"
)

// gridMask draws 2px rulings at the given coordinates, spanning from the first
// to the last coordinate on the other axis.
func gridMask(w, h int, xs, ys []int) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, w, h))
	x0, x1 := xs[0], xs[len(xs)-1]+1
	y0, y1 := ys[0], ys[len(ys)-1]+1
	for _, y := range ys {
		for x := x0; x <= x1; x++ {
			m.Pix[y*m.Stride+x] = 255
			m.Pix[(y+1)*m.Stride+x] = 255
		}
	}
	for _, x := range xs {
		for y := y0; y <= y1; y++ {
			m.Pix[y*m.Stride+x] = 255
			m.Pix[y*m.Stride+x+1] = 255
		}
	}
	return m
}

func TestLocateSingleGrid(t *testing.T) {
	mask := gridMask(300, 200, []int{20, 120, 220, 280}, []int{20, 80, 140})

	det, ok := Locate(mask, DefaultConfig()).(Detected)
	if !ok {
		t.Fatal("expected Detected")
	}
	if len(det.Tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(det.Tables))
	}

	tbl := det.Tables[0]
	if rows, cols := tbl.Shape(); rows != 2 || cols != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", rows, cols)
	}
	if tbl.Overlaps != 0 {
		t.Errorf("overlaps = %d", tbl.Overlaps)
	}
	if tbl.Region != (Rect{X: 20, Y: 20, W: 262, H: 122}) {
		t.Errorf("region = %+v", tbl.Region)
	}

	want := Rect{X: 22, Y: 22, W: 98, H: 58}
	if tbl.Rows[0][0] != want {
		t.Errorf("first cell = %+v, want %+v", tbl.Rows[0][0], want)
	}
	for _, row := range tbl.Rows {
		for i := 1; i < len(row); i++ {
			if row[i].X <= row[i-1].X {
				t.Errorf("row not ordered left to right: %+v", row)
			}
		}
	}
	if tbl.Rows[1][2].X != 222 || tbl.Rows[1][2].Y != 82 {
		t.Errorf("last cell = %+v", tbl.Rows[1][2])
	}
}

func TestLocateEmptyMask(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 100, 100))
	nf, ok := Locate(mask, DefaultConfig()).(NoStructureFound)
	if !ok {
		t.Fatal("expected NoStructureFound")
	}
	if nf.Reason == "" {
		t.Error("empty reason")
	}
	if Tables(nf) != nil {
		t.Error("Tables(NoStructureFound) should be nil")
	}
}

func TestLocateLinesWithoutCells(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 200, 100))
	for x := 10; x < 190; x++ {
		mask.Pix[50*mask.Stride+x] = 255
	}
	if _, ok := Locate(mask, DefaultConfig()).(NoStructureFound); !ok {
		t.Error("a lone rule should not be a table")
	}
}

func TestLocateDropsSmallCells(t *testing.T) {
	// Middle column is only 20px wide.
	mask := gridMask(300, 120, []int{20, 120, 142, 250}, []int{20, 80})
	det, ok := Locate(mask, DefaultConfig()).(Detected)
	if !ok {
		t.Fatal("expected Detected")
	}
	if rows, cols := det.Tables[0].Shape(); rows != 1 || cols != 2 {
		t.Errorf("shape = %dx%d, want 1x2", rows, cols)
	}
}

func TestLocateOrdersTables(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 300, 300))
	lower := gridMask(300, 300, []int{20, 140}, []int{180, 260})
	upper := gridMask(300, 300, []int{100, 260}, []int{20, 100})
	for i := range mask.Pix {
		mask.Pix[i] = lower.Pix[i] | upper.Pix[i]
	}

	tables := Tables(Locate(mask, DefaultConfig()))
	if len(tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(tables))
	}
	if tables[0].Region.Y != 20 || tables[1].Region.Y != 180 {
		t.Errorf("tables out of order: %+v, %+v", tables[0].Region, tables[1].Region)
	}
}

func TestGroupRows(t *testing.T) {
	cells := []Rect{
		{X: 200, Y: 12, W: 40, H: 20},
		{X: 10, Y: 60, W: 40, H: 20},
		{X: 10, Y: 10, W: 40, H: 20},
		{X: 100, Y: 25, W: 40, H: 20},
		{X: 100, Y: 62, W: 40, H: 20},
	}
	got := GroupRows(cells, 20)
	want := [][]Rect{
		{{X: 10, Y: 10, W: 40, H: 20}, {X: 100, Y: 25, W: 40, H: 20}, {X: 200, Y: 12, W: 40, H: 20}},
		{{X: 10, Y: 60, W: 40, H: 20}, {X: 100, Y: 62, W: 40, H: 20}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GroupRows = %+v, want %+v", got, want)
	}

	if GroupRows(nil, 20) != nil {
		t.Error("GroupRows(nil) should be nil")
	}
}

func TestCountOverlaps(t *testing.T) {
	cells := []Rect{
		{X: 0, Y: 0, W: 50, H: 20},
		{X: 40, Y: 10, W: 50, H: 20},
		{X: 200, Y: 0, W: 50, H: 20},
	}
	if n := countOverlaps(cells); n != 1 {
		t.Errorf("countOverlaps = %d, want 1", n)
	}
}
