package hocr

import (
	"fmt"
	"strconv"
	"strings"
)

// HOCR is a complete hOCR document.
type HOCR struct {
	Title       string
	Description string
	Language    string
	Metadata    map[string]string // ocr-system, ocr-capabilities, ocr-langs, ocr-number-of-pages
	Pages       []Page
}

// Page is one recognised page (ocr_page).
type Page struct {
	ID         string
	Title      string // Raw title attribute as parsed
	PageNumber int    // 1-based ppageno
	ImageName  string
	Lang       string
	BBox       BoundingBox
	Areas      []Area
	Paragraphs []Paragraph // Paragraphs with no enclosing area
	Lines      []Line      // Lines with no enclosing area or paragraph
	Metadata   map[string]string
}

func (Page) Class() string { return "ocr_page" }

// Area is a block or column (ocr_carea).
type Area struct {
	ID         string
	Lang       string
	BBox       BoundingBox
	Paragraphs []Paragraph
	Lines      []Line
	Words      []Word
	Metadata   map[string]string
}

func (Area) Class() string { return "ocr_carea" }

// Paragraph is an ocr_par element.
type Paragraph struct {
	ID       string
	Lang     string
	BBox     BoundingBox
	Lines    []Line
	Words    []Word
	Metadata map[string]string
}

func (Paragraph) Class() string { return "ocr_par" }

// Line is an ocr_line element.
type Line struct {
	ID       string
	Lang     string
	BBox     BoundingBox
	Baseline string // "slope offset" as emitted by Tesseract
	Words    []Word
	Metadata map[string]string
}

func (Line) Class() string { return "ocr_line" }

// Word is an ocrx_word element.
type Word struct {
	ID         string
	Text       string
	BBox       BoundingBox
	Confidence float64 // x_wconf, 0-100
	Lang       string
	Metadata   map[string]string
}

func (Word) Class() string { return "ocrx_word" }

// BoundingBox holds the corners of an hOCR bbox property: (X1,Y1) top-left,
// (X2,Y2) bottom-right.
type BoundingBox struct {
	X1, Y1, X2, Y2 float64
}

// NewBoundingBox builds a BoundingBox from its corners.
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func (b BoundingBox) Width() float64  { return b.X2 - b.X1 }
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Scale multiplies every coordinate by f.
func (b BoundingBox) Scale(f float64) BoundingBox {
	return BoundingBox{X1: b.X1 * f, Y1: b.Y1 * f, X2: b.X2 * f, Y2: b.Y2 * f}
}

// Translate shifts the box by (dx, dy).
func (b BoundingBox) Translate(dx, dy float64) BoundingBox {
	return BoundingBox{X1: b.X1 + dx, Y1: b.Y1 + dy, X2: b.X2 + dx, Y2: b.Y2 + dy}
}

// String renders the box as an hOCR bbox property with integer coordinates.
func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox %d %d %d %d", round(b.X1), round(b.Y1), round(b.X2), round(b.Y2))
}

func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

// scaleBaseline scales the offset part of a "slope offset" baseline.
func scaleBaseline(baseline string, f float64) string {
	parts := strings.Fields(baseline)
	if len(parts) != 2 {
		return baseline
	}
	off, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return baseline
	}
	return parts[0] + " " + strconv.Itoa(round(off*f))
}
