// Package ocr defines the text recognition contract used by the extractor and
// ships a Tesseract command-line engine.
//
// An in-process engine backed by gosseract is available when building with
// the "gosseract" tag:
//
//	go build -tags gosseract ./...
//
// Both engines need Tesseract and its language data installed. On Debian:
//
//	apt-get install tesseract-ocr tesseract-ocr-eng
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/gardar/gridocr/pkg/hocr"
)

// ErrEngineUnavailable is returned when the OCR engine is not installed or
// was not compiled in.
var ErrEngineUnavailable = errors.New("ocr: engine not available")

// ErrRecognitionFailed is returned when an installed engine fails on an image.
var ErrRecognitionFailed = errors.New("ocr: recognition failed")

// PageSegMode follows Tesseract's page segmentation numbering.
type PageSegMode int

const (
	PSMOSDOnly         PageSegMode = 0
	PSMAutoOSD         PageSegMode = 1
	PSMAutoOnly        PageSegMode = 2
	PSMAuto            PageSegMode = 3 // Fully automatic, used for whole pages
	PSMSingleColumn    PageSegMode = 4
	PSMSingleBlockVert PageSegMode = 5
	PSMSingleBlock     PageSegMode = 6 // Uniform block of text, used for cells
	PSMSingleLine      PageSegMode = 7
	PSMSingleWord      PageSegMode = 8
	PSMCircleWord      PageSegMode = 9
	PSMSingleChar      PageSegMode = 10
	PSMSparseText      PageSegMode = 11
	PSMSparseTextOSD   PageSegMode = 12
	PSMRawLine         PageSegMode = 13
)

// Engine recognises text in an image. An empty result is valid.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, mode PageSegMode) (string, error)
}

// HOCREngine can also report word positions for a whole page.
type HOCREngine interface {
	Engine
	RecognizeHOCR(ctx context.Context, img image.Image, page int) (hocr.Page, error)
}

// Config controls recognition for the Tesseract based engines.
type Config struct {
	Path       string            `yaml:"tesseract_path"` // tesseract binary; "" searches PATH
	Languages  []string          `yaml:"languages"`
	EngineMode int               `yaml:"oem"` // --oem; negative leaves Tesseract's default
	Whitelist  string            `yaml:"whitelist"`
	Variables  map[string]string `yaml:"variables"`
}

// DefaultConfig recognises English with Tesseract's default engine mode.
func DefaultConfig() Config {
	return Config{Languages: []string{"eng"}, EngineMode: -1}
}

func (c Config) languages() []string {
	if len(c.Languages) == 0 {
		return []string{"eng"}
	}
	return c.Languages
}

func (c Config) langs() string {
	return strings.Join(c.languages(), "+")
}

func (c Config) variables() map[string]string {
	vars := make(map[string]string, len(c.Variables)+1)
	for k, v := range c.Variables {
		vars[k] = v
	}
	if c.Whitelist != "" {
		vars["tessedit_char_whitelist"] = c.Whitelist
	}
	return vars
}

// EncodePNG serialises img for engines that take encoded bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// SinglePage extracts the only page of a parsed engine hOCR result and
// numbers it n.
func SinglePage(doc hocr.HOCR, n int) (hocr.Page, error) {
	if len(doc.Pages) == 0 {
		return hocr.Page{}, hocr.ErrNoPages
	}
	return doc.Pages[0].Renumber(n), nil
}
