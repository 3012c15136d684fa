package export

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf16"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"

	"github.com/gardar/gridocr/pkg/table"
)

const (
	// MaxSheetName is Excel's limit on sheet name length.
	MaxSheetName = 31

	fullTextSheet  = "Full Text"
	fullTextHeader = "Extracted Text"
	maxColWidth    = 50
)

var sheetNameCleaner = strings.NewReplacer(":", "", `\`, "", "/", "", "?", "", "*", "", "[", "", "]", "")

// SheetName makes label usable as a sheet name: characters Excel rejects are
// removed, surrounding apostrophes trimmed and the result cut to 31 characters.
func SheetName(label string) string {
	name := strings.Trim(sheetNameCleaner.Replace(label), "' ")
	name = table.TruncateLabel(name, MaxSheetName)
	// Excel counts UTF-16 units, so astral runes take two.
	for utf16Len(name) > MaxSheetName {
		r := []rune(name)
		name = string(r[:len(r)-1])
	}
	// Cutting can expose an apostrophe or space at the new end.
	name = strings.Trim(name, "' ")
	if name == "" {
		return "Sheet"
	}
	return name
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// WriteExcel writes a "Full Text" sheet followed by one sheet per table.
// Tables whose names collide after sanitising replace the earlier sheet.
func WriteExcel(path string, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", fullTextSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	textRows := [][]string{{fullTextHeader}}
	for _, l := range lines(doc.Text) {
		textRows = append(textRows, []string{l})
	}
	if err := writeRows(f, fullTextSheet, textRows); err != nil {
		return err
	}
	if err := f.SetCellStyle(fullTextSheet, "A1", "A1", bold); err != nil {
		return err
	}

	for _, t := range doc.Tables {
		name := SheetName(t.Label)
		idx, err := f.GetSheetIndex(name)
		if err != nil {
			return err
		}
		if idx >= 0 {
			slog.Warn("export: sheet name collision, overwriting earlier sheet", "sheet", name, "label", t.Label)
			if err := f.DeleteSheet(name); err != nil {
				return err
			}
		}
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeRows(f, name, t.Grid); err != nil {
			return err
		}
	}

	idx, err := f.GetSheetIndex(fullTextSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return f.SaveAs(path)
}

// lineWidth is the display width of the longest line in v.
func lineWidth(v string) int {
	w := 0
	for l := range strings.SplitSeq(v, "\n") {
		w = max(w, runewidth.StringWidth(l))
	}
	return w
}

// writeRows fills sheet from A1 and sizes each column to its widest cell.
func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	var widths []int
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				return err
			}
			if c >= len(widths) {
				widths = append(widths, 0)
			}
			widths[c] = max(widths[c], lineWidth(v))
		}
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, maxColWidth))); err != nil {
			return err
		}
	}
	return nil
}
