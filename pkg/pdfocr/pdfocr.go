// Package pdfocr writes searchable PDFs by drawing recognised words as an
// invisible text layer over the page image.
//
// ApplyOCR overlays an existing PDF whose pages were rasterised for
// recognition. AssembleWithOCR builds a new PDF from page images. In both
// cases each page gets its own optional content group named
// "<LayerName> (Page N)", which readers can toggle to reveal the text.
package pdfocr

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gardar/gridocr/pkg/hocr"
)

var (
	// ErrAlreadyOCRed is returned by ApplyOCR when the PDF already carries
	// a text layer with the configured name and Force is not set.
	ErrAlreadyOCRed = errors.New("pdfocr: PDF already has an OCR layer")

	// ErrNoImages is returned by AssembleWithOCR without page images.
	ErrNoImages = errors.New("pdfocr: no page images")
)

// AssembleWithOCR creates a PDF with one page per image and the matching
// hOCR page drawn over it. hOCR coordinates are in image pixels.
func AssembleWithOCR(doc *hocr.HOCR, images [][]byte, cfg OCRConfig) ([]byte, error) {
	if err := validate(doc, cfg); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if len(images) < len(doc.Pages) {
		return nil, fmt.Errorf("pdfocr: %d images for %d hOCR pages", len(images), len(doc.Pages))
	}
	for i, img := range images {
		if _, err := detectImageType(img); err != nil {
			return nil, fmt.Errorf("pdfocr: image %d: %w", i+1, err)
		}
	}

	out, err := assemble(*doc, images, cfg)
	if err != nil {
		return nil, fmt.Errorf("pdfocr: assemble: %w", err)
	}
	return out, nil
}

// ApplyOCR copies pages of pdfData, starting at cfg.StartPage, and draws hOCR
// page i over source page StartPage+i. hOCR coordinates must already be in
// PDF points.
func ApplyOCR(pdfData []byte, doc *hocr.HOCR, cfg OCRConfig) ([]byte, error) {
	if len(pdfData) == 0 {
		return nil, errors.New("pdfocr: input PDF is empty")
	}
	if err := validate(doc, cfg); err != nil {
		return nil, err
	}

	found, err := DetectOCR(pdfData, cfg)
	if err != nil {
		return nil, fmt.Errorf("pdfocr: layer detection: %w", err)
	}
	for _, w := range found.Warnings {
		slog.Warn("pdfocr: "+w)
	}
	if found.HasOCR {
		if !cfg.Force {
			return nil, fmt.Errorf("%w: layer %q", ErrAlreadyOCRed, found.LayerInfo.OCRLayerName)
		}
		slog.Warn("pdfocr: reapplying OCR, the output will contain duplicate text", "layer", found.LayerInfo.OCRLayerName)
	}

	out, err := overlay(pdfData, *doc, cfg)
	if err != nil {
		return nil, fmt.Errorf("pdfocr: overlay: %w", err)
	}
	return out, nil
}

func validate(doc *hocr.HOCR, cfg OCRConfig) error {
	if doc == nil || len(doc.Pages) == 0 {
		return hocr.ErrNoPages
	}
	if cfg.StartPage < 1 {
		return fmt.Errorf("pdfocr: start page must be at least 1, got %d", cfg.StartPage)
	}
	return nil
}
