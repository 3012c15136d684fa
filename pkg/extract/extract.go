// Package extract reads the text of located table cells and whole pages
// through an OCR engine.
package extract

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/gardar/gridocr/pkg/locate"
	"github.com/gardar/gridocr/pkg/ocr"
	"github.com/gardar/gridocr/pkg/preprocess"
	"github.com/gardar/gridocr/pkg/table"
)

// Config tunes how each cell is prepared for recognition.
type Config struct {
	UpscaleBelowWidth  int             `yaml:"upscale_below_width"`
	UpscaleBelowHeight int             `yaml:"upscale_below_height"`
	UpscaleFactor      int             `yaml:"upscale_factor"`
	Inset              int             `yaml:"inset"` // Pixels trimmed from each edge to drop ruling remnants
	Mode               ocr.PageSegMode `yaml:"mode"`
}

// DefaultConfig enlarges small cells threefold and reads each as a text block.
func DefaultConfig() Config {
	return Config{
		UpscaleBelowWidth:  100,
		UpscaleBelowHeight: 20,
		UpscaleFactor:      3,
		Inset:              2,
		Mode:               ocr.PSMSingleBlock,
	}
}

// Extractor runs OCR over cells and pages.
type Extractor struct {
	Engine ocr.Engine
	Config Config
}

// New returns an Extractor using engine and the default configuration.
func New(engine ocr.Engine) *Extractor {
	return &Extractor{Engine: engine, Config: DefaultConfig()}
}

// Cell recognises the text inside r. Blank or unreadable cells yield "".
func (e *Extractor) Cell(ctx context.Context, img image.Image, r locate.Rect) (string, error) {
	crop := e.prepare(img, r)
	if crop == nil {
		return "", nil
	}
	text, err := e.Engine.Recognize(ctx, crop, e.Config.Mode)
	if err != nil {
		return "", fmt.Errorf("recognize cell at %d,%d: %w", r.X, r.Y, err)
	}
	return strings.TrimSpace(text), nil
}

// Table recognises every cell of t in reading order. progress, if set, is
// called after each cell.
func (e *Extractor) Table(ctx context.Context, img image.Image, t locate.Table, progress func(done, total int)) (table.Grid, error) {
	total := t.Cells()
	done := 0
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		texts := make([]string, 0, len(row))
		for _, cell := range row {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			text, err := e.Cell(ctx, img, cell)
			if err != nil {
				return nil, err
			}
			texts = append(texts, text)
			done++
			if progress != nil {
				progress(done, total)
			}
		}
		rows = append(rows, texts)
	}
	return table.NewGrid(rows), nil
}

// Page recognises the whole page with automatic segmentation.
func (e *Extractor) Page(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.Engine.Recognize(ctx, img, ocr.PSMAuto)
	if err != nil {
		return "", fmt.Errorf("recognize page: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// prepare crops r minus the inset and enlarges small crops. It returns nil
// when nothing is left after insetting.
func (e *Extractor) prepare(img image.Image, r locate.Rect) image.Image {
	in := e.Config.Inset
	bounds := r.Bounds().Inset(in).Add(img.Bounds().Min)
	if bounds.Empty() {
		return nil
	}
	crop := preprocess.Crop(img, bounds)
	if crop.Bounds().Empty() {
		return nil
	}

	w, h := crop.Bounds().Dx(), crop.Bounds().Dy()
	if e.Config.UpscaleFactor > 1 && (w < e.Config.UpscaleBelowWidth || h < e.Config.UpscaleBelowHeight) {
		return preprocess.Upscale(crop, e.Config.UpscaleFactor)
	}
	return crop
}
