package pdfocr

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/gridocr/pkg/hocr"
)

// drawOCRLayer writes every word of page into a new layer. It fails when more
// than a tenth of the words cannot be represented in Latin-1.
func drawOCRLayer(pdf *fpdf.Fpdf, page hocr.Page, cfg OCRConfig, pageNum int, transform func(x, y float64) (float64, float64)) error {
	name := cfg.LayerName
	if pageNum > 0 {
		name = fmt.Sprintf("%s (Page %d)", cfg.LayerName, pageNum)
	}

	layer := pdf.AddLayer(name, true)
	pdf.BeginLayer(layer)
	pdf.SetFont(cfg.Font.Name, cfg.Font.Style, cfg.Font.Size)
	if cfg.Debug {
		pdf.SetTextColor(255, 0, 0)
	} else {
		pdf.SetAlpha(0, "Normal")
	}

	words := page.Words()
	bad := 0
	for _, w := range words {
		if !drawWord(pdf, w, transform, cfg) {
			bad++
		}
	}

	if !cfg.Debug {
		pdf.SetAlpha(1, "Normal")
	}
	pdf.EndLayer()

	if bad > 0 && bad > len(words)/10 {
		return fmt.Errorf("character encoding issues in %d of %d words", bad, len(words))
	}
	return nil
}

// drawWord stretches the word horizontally to fill its box. It reports false
// when the text had to be written without Latin-1 conversion.
func drawWord(pdf *fpdf.Fpdf, w hocr.Word, transform func(x, y float64) (float64, float64), cfg OCRConfig) bool {
	if w.Text == "" {
		return true
	}
	x, y := transform(w.BBox.X1, w.BBox.Y1)
	x2, y2 := transform(w.BBox.X2, w.BBox.Y2)
	width := x2 - x

	ok := true
	text, err := charmap.ISO8859_1.NewEncoder().String(w.Text)
	if err != nil {
		ok = false
		text = w.Text
	}

	if sw := pdf.GetStringWidth(text); sw > 0 && width > 0 {
		pdf.SetFontSize(cfg.Font.Size * width / sw)
	}
	size, _ := pdf.GetFontSize()
	pdf.Text(x, y+size*cfg.Font.AscentRatio, text)
	pdf.SetFontSize(cfg.Font.Size)

	if cfg.Debug {
		pdf.Rect(x, y, width, y2-y, "D")
	}
	return ok
}
