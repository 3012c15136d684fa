// Package raster loads input documents and normalises them into page images.
//
// Images (PNG, JPEG, GIF, BMP, TIFF, WebP) are decoded directly. PDFs are
// rasterised page-by-page through an external renderer (pdftoppm by default)
// into a private temporary directory that is removed when the Document is
// closed, whether processing succeeded or not.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrInputNotFound is returned when the input path does not exist.
	ErrInputNotFound = errors.New("raster: input file not found")

	// ErrUnsupportedFormat is returned for file extensions we cannot load.
	ErrUnsupportedFormat = errors.New("raster: unsupported input format")

	// ErrUnreadableInput is returned when an image or PDF cannot be decoded.
	ErrUnreadableInput = errors.New("raster: unreadable input")

	// ErrRendererMissing is returned when the PDF page renderer is not installed.
	ErrRendererMissing = errors.New("raster: PDF renderer not available")
)

// DefaultDPI is the resolution PDF pages are rendered at.
const DefaultDPI = 200

// Kind is the broad type of an input file.
type Kind int

const (
	KindImage Kind = iota + 1
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// DetectKind classifies path by its extension.
func DetectKind(path string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return KindPDF, nil
	case imageExts[ext]:
		return KindImage, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedImage reports whether path has an image extension we can decode.
func IsSupportedImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// Page is a single raster page image.
type Page struct {
	Number int         // 1-based page number in the source document
	Image  image.Image // Decoded raster
	Path   string      // File the raster was read from
	DPI    int         // Render resolution, 0 when unknown (plain images)
}

// LoadImage decodes a single image file into a Page.
func LoadImage(path string) (Page, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Page{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return Page{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %s: %v", ErrUnreadableInput, path, err)
	}
	return Page{Number: 1, Image: img, Path: path}, nil
}

// Loader turns an input path into a Document of pages.
type Loader struct {
	Renderer PDFRenderer // Used for PDF input; nil means pdftoppm on PATH
	DPI      int         // PDF render resolution; 0 means DefaultDPI
	TempDir  string      // Parent for per-document temp dirs; "" means os.TempDir()
}

// NewLoader returns a Loader using pdftoppm at the default resolution.
func NewLoader() *Loader {
	return &Loader{Renderer: Pdftoppm{}, DPI: DefaultDPI}
}

// Document is a loaded input with a resolved page range.
type Document struct {
	Path   string
	Kind   Kind
	Range  PageRange // Resolved range (never All)
	Count  int       // Total pages in the source
	DPI    int
	pages  []string // Rendered page files for PDFs
	img    *Page    // Decoded page for images
	tmpDir string
}

// Load validates the input and, for PDFs, renders the selected pages.
// The caller must Close the returned Document.
func (l *Loader) Load(ctx context.Context, path string, pr PageRange) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}

	kind, err := DetectKind(path)
	if err != nil {
		return nil, err
	}

	if kind == KindImage {
		page, err := LoadImage(path)
		if err != nil {
			return nil, err
		}
		resolved, err := pr.Resolve(1)
		if err != nil {
			return nil, err
		}
		return &Document{Path: path, Kind: kind, Range: resolved, Count: 1, img: &page}, nil
	}

	count, err := PageCount(path)
	if err != nil {
		return nil, err
	}
	resolved, err := pr.Resolve(count)
	if err != nil {
		return nil, err
	}

	dpi := l.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	renderer := l.Renderer
	if renderer == nil {
		renderer = Pdftoppm{}
	}

	tmpDir, err := os.MkdirTemp(l.TempDir, "gridocr-pages-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	doc := &Document{Path: path, Kind: kind, Range: resolved, Count: count, DPI: dpi, tmpDir: tmpDir}

	files, err := renderer.Render(ctx, path, resolved.First, resolved.Last, dpi, tmpDir)
	if err != nil {
		doc.Close()
		return nil, fmt.Errorf("render pages %s: %w", resolved, err)
	}
	if len(files) != resolved.Len() {
		doc.Close()
		return nil, fmt.Errorf("%w: renderer produced %d pages, expected %d", ErrUnreadableInput, len(files), resolved.Len())
	}
	doc.pages = files

	slog.Debug("raster: pdf pages rendered", "path", path, "range", resolved.String(), "dpi", dpi)
	return doc, nil
}

// Len returns the number of pages that will be yielded.
func (d *Document) Len() int {
	if d.Kind == KindImage {
		return 1
	}
	return len(d.pages)
}

// Page decodes the i-th selected page (0-based index into the range).
func (d *Document) Page(i int) (Page, error) {
	if i < 0 || i >= d.Len() {
		return Page{}, fmt.Errorf("page index %d out of range", i)
	}
	if d.Kind == KindImage {
		return *d.img, nil
	}

	page, err := LoadImage(d.pages[i])
	if err != nil {
		return Page{}, err
	}
	page.Number = d.Range.First + i
	page.DPI = d.DPI
	return page, nil
}

// TempDir returns the directory holding rendered pages, "" for images.
func (d *Document) TempDir() string { return d.tmpDir }

// Close removes any temporary page files.
func (d *Document) Close() error {
	if d.tmpDir == "" {
		return nil
	}
	err := os.RemoveAll(d.tmpDir)
	d.tmpDir = ""
	d.pages = nil
	return err
}
