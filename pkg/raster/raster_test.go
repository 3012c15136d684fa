package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"codeberg.org/go-pdf/fpdf"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(w/2, h/2, color.Gray{Y: 0})

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writePDF(t *testing.T, path string, pages int) {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, fmt.Sprintf("Page %d", i))
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatal(err)
	}
}

// fakeRenderer writes blank PNGs named like pdftoppm output.
type fakeRenderer struct {
	dir   string
	calls int
	err   error
}

func (r *fakeRenderer) Render(ctx context.Context, pdfPath string, first, last, dpi int, dir string) ([]string, error) {
	r.calls++
	r.dir = dir
	var paths []string
	for p := first; p <= last; p++ {
		path := filepath.Join(dir, fmt.Sprintf("page-%d.png", p))
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		img := image.NewGray(image.Rect(0, 0, 20, 30))
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return nil, err
		}
		f.Close()
		paths = append(paths, path)
	}
	if r.err != nil {
		return nil, r.err
	}
	return paths, nil
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path string
		want Kind
		err  error
	}{
		{"scan.PNG", KindImage, nil},
		{"a/b/photo.jpeg", KindImage, nil},
		{"doc.tiff", KindImage, nil},
		{"report.pdf", KindPDF, nil},
		{"notes.docx", 0, ErrUnsupportedFormat},
		{"noext", 0, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		got, err := DetectKind(tt.path)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("DetectKind(%q) error = %v, want %v", tt.path, err, tt.err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("DetectKind(%q) = %v, %v; want %v", tt.path, got, err, tt.want)
		}
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	writePNG(t, path, 64, 32)

	page, err := LoadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if page.Number != 1 {
		t.Errorf("Number = %d, want 1", page.Number)
	}
	if b := page.Image.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("bounds = %v", b)
	}
}

func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadImage(filepath.Join(dir, "missing.png")); !errors.Is(err, ErrInputNotFound) {
		t.Errorf("missing file: err = %v", err)
	}

	junk := filepath.Join(dir, "junk.png")
	if err := os.WriteFile(junk, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage(junk); !errors.Is(err, ErrUnreadableInput) {
		t.Errorf("junk file: err = %v", err)
	}
}

func TestLoaderImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	writePNG(t, path, 40, 40)

	renderer := &fakeRenderer{}
	l := &Loader{Renderer: renderer}
	doc, err := l.Load(context.Background(), path, AllPages)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	if doc.Kind != KindImage || doc.Len() != 1 || doc.Count != 1 {
		t.Errorf("doc = %+v", doc)
	}
	if renderer.calls != 0 {
		t.Errorf("renderer called for image input")
	}
	if _, err := doc.Page(0); err != nil {
		t.Errorf("Page(0): %v", err)
	}
	if _, err := doc.Page(1); err == nil {
		t.Errorf("Page(1) should fail")
	}
}

func TestLoaderRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader()

	if _, err := l.Load(context.Background(), filepath.Join(dir, "nope.pdf"), AllPages); !errors.Is(err, ErrInputNotFound) {
		t.Errorf("missing input: err = %v", err)
	}

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background(), txt, AllPages); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("unsupported input: err = %v", err)
	}
}

func TestPageCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "three.pdf")
	writePDF(t, path, 3)

	n, err := PageCount(path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("PageCount = %d, want 3", n)
	}
}

func TestPageCountUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\ngarbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := PageCount(path); !errors.Is(err, ErrUnreadableInput) {
		t.Errorf("err = %v, want ErrUnreadableInput", err)
	}
}

func TestLoaderPDFRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	writePDF(t, path, 4)

	renderer := &fakeRenderer{}
	l := &Loader{Renderer: renderer, DPI: 150, TempDir: dir}
	doc, err := l.Load(context.Background(), path, PageRange{First: 2, Last: 3})
	if err != nil {
		t.Fatal(err)
	}

	if doc.Len() != 2 || doc.Count != 4 {
		t.Fatalf("Len = %d, Count = %d", doc.Len(), doc.Count)
	}
	page, err := doc.Page(1)
	if err != nil {
		t.Fatal(err)
	}
	if page.Number != 3 || page.DPI != 150 {
		t.Errorf("page = %d @ %d dpi, want 3 @ 150", page.Number, page.DPI)
	}

	tmp := doc.TempDir()
	if _, err := os.Stat(tmp); err != nil {
		t.Fatalf("temp dir missing before Close: %v", err)
	}
	if err := doc.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("temp dir %s still present after Close", tmp)
	}
}

func TestLoaderPDFCleansUpOnRenderFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	writePDF(t, path, 2)

	renderer := &fakeRenderer{err: errors.New("boom")}
	l := &Loader{Renderer: renderer, TempDir: dir}
	if _, err := l.Load(context.Background(), path, AllPages); err == nil {
		t.Fatal("expected render error")
	}
	if renderer.dir == "" {
		t.Fatal("renderer not called")
	}
	if _, err := os.Stat(renderer.dir); !os.IsNotExist(err) {
		t.Errorf("temp dir %s leaked after failure", renderer.dir)
	}
}

func TestSortByPageNumber(t *testing.T) {
	paths := []string{"/t/page-10.png", "/t/page-2.png", "/t/page-01.png"}
	sortByPageNumber(paths)
	want := []string{"/t/page-01.png", "/t/page-2.png", "/t/page-10.png"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("sorted = %v, want %v", paths, want)
	}
}

func TestPdftoppmMissingBinary(t *testing.T) {
	r := Pdftoppm{Path: filepath.Join(t.TempDir(), "no-such-pdftoppm")}
	_, err := r.Render(context.Background(), "x.pdf", 1, 1, 72, t.TempDir())
	if !errors.Is(err, ErrRendererMissing) {
		t.Errorf("err = %v, want ErrRendererMissing", err)
	}
}
