// Package export writes extraction results as text, Excel, Word, hOCR,
// searchable PDF or JSON files, and summary reports over one or more inputs.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/gardar/gridocr/pkg/table"
)

// ErrUnknownFormat is returned for output formats we cannot write.
var ErrUnknownFormat = errors.New("export: unknown output format")

// ErrMissingData is returned when a format needs data the result lacks,
// such as hOCR for PDF output.
var ErrMissingData = errors.New("export: result lacks data for format")

// Format is an output file format.
type Format string

const (
	FormatText   Format = "text"
	FormatExcel  Format = "excel"
	FormatDocx   Format = "docx"
	FormatHOCR   Format = "hocr"
	FormatPDF    Format = "pdf"
	FormatJSON   Format = "json"
	FormatReport Format = "report"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatExcel, FormatDocx, FormatHOCR, FormatPDF, FormatJSON, FormatReport}

// ParseFormat accepts a format name or one of its aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt", "":
		return FormatText, nil
	case "excel", "xlsx", "xls":
		return FormatExcel, nil
	case "docx", "doc", "word":
		return FormatDocx, nil
	case "hocr", "html":
		return FormatHOCR, nil
	case "pdf":
		return FormatPDF, nil
	case "json":
		return FormatJSON, nil
	case "report", "summary":
		return FormatReport, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatExcel:
		return ".xlsx"
	case FormatDocx:
		return ".docx"
	case FormatHOCR:
		return ".hocr"
	case FormatPDF:
		return ".pdf"
	case FormatJSON:
		return ".json"
	case FormatReport:
		return ".report.txt"
	default:
		return ".txt"
	}
}

// NeedsHOCR reports whether the format is built from word positions.
func (f Format) NeedsHOCR() bool {
	return f == FormatHOCR || f == FormatPDF
}

// Document is everything an exporter may need from one pipeline run.
type Document struct {
	Source       string        // Input path
	Range        string        // Page range label, e.g. "All" or "1-5"
	Text         string        // Whole-page text, pages separated by blank lines
	Tables       []table.Table // In document order
	HOCR         *hocr.HOCR    // Word positions in render pixels
	PageImages   [][]byte      // Encoded page rasters, for PDF output from images
	SourcePDF    []byte        // Original PDF, for PDF output from PDFs
	PDFStartPage int           // Source page of the first hOCR page
	DPI          int           // Render resolution of PageImages and HOCR
	ProcessedAt  time.Time
}

// OutputPath builds "<dir>/<base>_<rangeSlug><ext>" for input.
func OutputPath(dir, input, rangeSlug string, f Format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+"_"+rangeSlug+f.Ext())
}

// Write exports doc to path in format f.
func Write(path string, f Format, doc Document) error {
	var err error
	switch f {
	case FormatText:
		err = WriteText(path, doc)
	case FormatExcel:
		err = WriteExcel(path, doc)
	case FormatDocx:
		err = WriteDocx(path, doc)
	case FormatHOCR:
		err = WriteHOCR(path, doc)
	case FormatPDF:
		err = WritePDF(path, doc)
	case FormatJSON:
		err = WriteJSON(path, doc)
	case FormatReport:
		err = WriteReport(path, []ReportEntry{NewReportEntry(doc)})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	return nil
}

// lines splits text into lines with trailing whitespace removed. Blank lines
// are kept so paragraph breaks survive; trailing ones are dropped.
func lines(text string) []string {
	text = strings.TrimRight(text, " \t\r\n")
	if text == "" {
		return nil
	}
	out := strings.Split(text, "\n")
	for i, l := range out {
		out[i] = strings.TrimRight(l, " \t\r")
	}
	return out
}
