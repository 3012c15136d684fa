package raster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageCount returns the number of pages in a PDF file.
func PageCount(path string) (n int, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %s: %v", ErrUnreadableInput, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return 0, fmt.Errorf("%w: %s: %v", ErrUnreadableInput, path, err)
	}
	defer f.Close()

	n = reader.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("%w: %s has no pages", ErrUnreadableInput, path)
	}
	return n, nil
}

// PDFRenderer rasterises an inclusive page range of a PDF into PNG files
// inside dir and returns their paths ordered by page.
type PDFRenderer interface {
	Render(ctx context.Context, pdfPath string, first, last, dpi int, dir string) ([]string, error)
}

// Pdftoppm renders pages with poppler's pdftoppm.
type Pdftoppm struct {
	Path string // Binary location; "" searches PATH
}

func (p Pdftoppm) binary() (string, error) {
	name := p.Path
	if name == "" {
		name = "pdftoppm"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRendererMissing, err)
	}
	return bin, nil
}

// Render implements PDFRenderer.
func (p Pdftoppm) Render(ctx context.Context, pdfPath string, first, last, dpi int, dir string) ([]string, error) {
	bin, err := p.binary()
	if err != nil {
		return nil, err
	}

	prefix := filepath.Join(dir, "page")
	args := []string{
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(first),
		"-l", strconv.Itoa(last),
		"-q",
		pdfPath, prefix,
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	paths, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("glob rendered pages: %w", err)
	}
	sortByPageNumber(paths)
	return paths, nil
}

var pageNumPattern = regexp.MustCompile(`-(\d+)\.png$`)

// extractPageNum reads the page number pdftoppm appends to its output files.
func extractPageNum(path string) int {
	m := pageNumPattern.FindStringSubmatch(path)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func sortByPageNumber(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return extractPageNum(paths[i]) < extractPageNum(paths[j])
	})
}
