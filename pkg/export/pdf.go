package export

import (
	"fmt"
	"os"

	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/gardar/gridocr/pkg/pdfocr"
)

// WritePDF writes a searchable PDF. PDF input keeps its original pages with
// the text layer drawn over them; image input is embedded page by page.
func WritePDF(path string, doc Document) error {
	if doc.HOCR == nil || len(doc.HOCR.Pages) == 0 {
		return fmt.Errorf("%w: no hOCR recorded", ErrMissingData)
	}

	cfg := pdfocr.DefaultConfig()
	var (
		out []byte
		err error
	)
	switch {
	case len(doc.SourcePDF) > 0:
		if doc.PDFStartPage > 0 {
			cfg.StartPage = doc.PDFStartPage
		}
		out, err = pdfocr.ApplyOCR(doc.SourcePDF, toPoints(doc.HOCR, doc.DPI), cfg)
	case len(doc.PageImages) > 0:
		cfg.DPI = doc.DPI
		out, err = pdfocr.AssembleWithOCR(doc.HOCR, doc.PageImages, cfg)
	default:
		return fmt.Errorf("%w: neither source PDF nor page images", ErrMissingData)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// toPoints rescales pages rendered at dpi to PDF points.
func toPoints(doc *hocr.HOCR, dpi int) *hocr.HOCR {
	if dpi <= 0 {
		return doc
	}
	return doc.Scale(72 / float64(dpi))
}
