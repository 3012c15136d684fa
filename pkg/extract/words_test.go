package extract

import (
	"reflect"
	"testing"

	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/gardar/gridocr/pkg/table"
)

func word(text string, x1, y1, x2 float64, conf float64) hocr.Word {
	return hocr.Word{Text: text, BBox: hocr.NewBoundingBox(x1, y1, x2, y1+20), Confidence: conf}
}

func TestWordTable(t *testing.T) {
	page := hocr.Page{Lines: []hocr.Line{
		{Words: []hocr.Word{word("Apple", 10, 50, 60, 90), word("~", 120, 50, 125, 10), word("3", 200, 52, 210, 88)}},
		{Words: []hocr.Word{word("Unit", 10, 10, 50, 95), word("price", 56, 12, 100, 95), word("Qty", 200, 9, 240, 91)}},
		{Words: []hocr.Word{word("  ", 100, 90, 110, 99), word("Total", 10, 90, 60, 80)}},
	}}

	got := WordTable(page, DefaultWordConfig())
	want := table.Grid{{"Unit price", "Qty"}, {"Apple", "3"}, {"Total", ""}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WordTable = %q, want %q", got, want)
	}
}

func TestWordTableNarrowGapsStayTogether(t *testing.T) {
	page := hocr.Page{Lines: []hocr.Line{{Words: []hocr.Word{
		word("Net", 10, 10, 40, 90), word("amount", 48, 10, 110, 90), word("due", 118, 10, 150, 90),
	}}}}
	got := WordTable(page, DefaultWordConfig())
	if !reflect.DeepEqual(got, table.Grid{{"Net amount due"}}) {
		t.Errorf("WordTable = %q", got)
	}
}

func TestWordTableEmpty(t *testing.T) {
	page := hocr.Page{Lines: []hocr.Line{{Words: []hocr.Word{word("noise", 0, 0, 10, 5)}}}}
	if got := WordTable(page, DefaultWordConfig()); !got.IsEmpty() {
		t.Errorf("WordTable = %q, want empty", got)
	}
	if got := WordTable(hocr.Page{}, DefaultWordConfig()); !got.IsEmpty() {
		t.Errorf("WordTable of empty page = %q", got)
	}
}
