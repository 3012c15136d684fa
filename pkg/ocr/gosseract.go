//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/otiai10/gosseract/v2"
)

// Gosseract recognises text in-process through libtesseract. A fresh client
// is created per call because gosseract clients are not safe for concurrent use.
type Gosseract struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

// NewGosseract returns an in-process engine.
func NewGosseract(cfg Config) (*Gosseract, error) {
	return &Gosseract{cfg: cfg, clientFactory: gosseract.NewClient}, nil
}

func (g *Gosseract) Name() string { return "gosseract" }

// Recognize implements Engine.
func (g *Gosseract) Recognize(ctx context.Context, img image.Image, mode PageSegMode) (string, error) {
	c, err := g.client(ctx, img, mode)
	if err != nil {
		return "", err
	}
	defer c.Close()

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("%w: gosseract text: %v", ErrRecognitionFailed, err)
	}
	return strings.TrimSpace(text), nil
}

// RecognizeHOCR implements HOCREngine.
func (g *Gosseract) RecognizeHOCR(ctx context.Context, img image.Image, page int) (hocr.Page, error) {
	c, err := g.client(ctx, img, PSMAuto)
	if err != nil {
		return hocr.Page{}, err
	}
	defer c.Close()

	out, err := c.HOCRText()
	if err != nil {
		return hocr.Page{}, fmt.Errorf("%w: gosseract hocr: %v", ErrRecognitionFailed, err)
	}
	// libtesseract returns a bare ocr_page fragment.
	doc, err := hocr.ParseHOCR([]byte("<html><body>" + out + "</body></html>"))
	if err != nil {
		return hocr.Page{}, fmt.Errorf("gosseract hocr: %w", err)
	}
	return SinglePage(doc, page)
}

func (g *Gosseract) client(ctx context.Context, img image.Image, mode PageSegMode) (*gosseract.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	c := g.clientFactory()
	fail := func(step string, err error) (*gosseract.Client, error) {
		c.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return fail("set image", err)
	}
	if err := c.SetLanguage(g.cfg.languages()...); err != nil {
		return fail("set languages", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
		return fail("set page segmentation mode", err)
	}
	for k, v := range g.cfg.variables() {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return fail("set variable "+k, err)
		}
	}
	return c, nil
}
