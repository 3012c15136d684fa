package pdfocr

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/gardar/gridocr/pkg/hocr"
)

// overlay imports the source pages as templates and draws the text layer over
// each one. gofpdi panics on PDFs it cannot parse.
func overlay(pdfData []byte, doc hocr.HOCR, cfg OCRConfig) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("import source PDF: %v", r)
		}
	}()

	pdf := fpdf.New("P", "pt", "", "")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(pdfData))
	identity := func(x, y float64) (float64, float64) { return x, y }

	for i, page := range doc.Pages {
		source := cfg.StartPage + i
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.BBox.X2, Ht: page.BBox.Y2})

		tpl := importer.ImportPageFromStream(pdf, &rs, source, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, page.BBox.X2, 0)

		if err := drawOCRLayer(pdf, page, cfg, source, identity); err != nil {
			return nil, fmt.Errorf("page %d: %w", source, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
