package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/gardar/gridocr/pkg/hocr"
)

// Tesseract runs the tesseract command for every image. Images are streamed
// as PNG on stdin so no temporary files are written.
type Tesseract struct {
	cfg Config
	bin string
}

// NewTesseract locates the tesseract binary.
func NewTesseract(cfg Config) (*Tesseract, error) {
	name := cfg.Path
	if name == "" {
		name = "tesseract"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: tesseract: %v", ErrEngineUnavailable, err)
	}
	return &Tesseract{cfg: cfg, bin: bin}, nil
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize implements Engine.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, mode PageSegMode) (string, error) {
	out, err := t.run(ctx, img, mode)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// RecognizeHOCR implements HOCREngine.
func (t *Tesseract) RecognizeHOCR(ctx context.Context, img image.Image, page int) (hocr.Page, error) {
	out, err := t.run(ctx, img, PSMAuto, "hocr")
	if err != nil {
		return hocr.Page{}, err
	}
	doc, err := hocr.ParseHOCR(out)
	if err != nil {
		return hocr.Page{}, fmt.Errorf("tesseract hocr: %w", err)
	}
	return SinglePage(doc, page)
}

// Version reports the first line of tesseract --version.
func (t *Tesseract) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, t.bin, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tesseract --version: %w", err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

func (t *Tesseract) args(mode PageSegMode, configs ...string) []string {
	args := []string{"stdin", "stdout", "-l", t.cfg.langs(), "--psm", strconv.Itoa(int(mode))}
	if t.cfg.EngineMode >= 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.EngineMode))
	}

	vars := t.cfg.variables()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-c", k+"="+vars[k])
	}
	return append(args, configs...)
}

func (t *Tesseract) run(ctx context.Context, img image.Image, mode PageSegMode, configs ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.bin, t.args(mode, configs...)...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: tesseract: %v: %s", ErrRecognitionFailed, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
