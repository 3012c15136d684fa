//go:build !gosseract

package ocr

import (
	"context"
	"image"

	"github.com/gardar/gridocr/pkg/hocr"
)

// Gosseract is unavailable in builds without the "gosseract" tag.
type Gosseract struct{}

// NewGosseract returns ErrEngineUnavailable. Rebuild with -tags gosseract.
func NewGosseract(Config) (*Gosseract, error) {
	return nil, ErrEngineUnavailable
}

func (g *Gosseract) Name() string { return "gosseract" }

func (g *Gosseract) Recognize(context.Context, image.Image, PageSegMode) (string, error) {
	return "", ErrEngineUnavailable
}

func (g *Gosseract) RecognizeHOCR(context.Context, image.Image, int) (hocr.Page, error) {
	return hocr.Page{}, ErrEngineUnavailable
}
