package pdfocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/gridocr/pkg/hocr"
)

// assemble lays each image out as a full page and draws its hOCR page on top.
func assemble(doc hocr.HOCR, images [][]byte, cfg OCRConfig) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	scale := 1.0
	if cfg.DPI > 0 {
		scale = 72 / float64(cfg.DPI)
	}

	for i := cfg.StartPage - 1; i < len(doc.Pages) && i < len(images); i++ {
		page := doc.Pages[i]
		pxW, pxH := page.BBox.X2, page.BBox.Y2
		if pxW <= 0 || pxH <= 0 {
			cfgImg, _, err := image.DecodeConfig(bytes.NewReader(images[i]))
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i+1, err)
			}
			pxW, pxH = float64(cfgImg.Width), float64(cfgImg.Height)
		}
		w, h := pxW*scale, pxH*scale

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		kind, err := detectImageType(images[i])
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page%d", i+1)
		opts := fpdf.ImageOptions{ImageType: kind}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(images[i]))
		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")

		toPoints := func(x, y float64) (float64, float64) {
			return normalizeCoords(x, y, pxW, pxH, w, h)
		}
		if err := drawOCRLayer(pdf, page, cfg, i+1, toPoints); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectImageType returns the fpdf image type name ("PNG", "JPEG", "GIF").
func detectImageType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image config: %w", err)
	}
	format = strings.ToUpper(format)
	switch format {
	case "PNG", "JPEG", "GIF":
		return format, nil
	default:
		return "", fmt.Errorf("image type %s cannot be embedded", format)
	}
}
