package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/gardar/gridocr/pkg/locate"
	"github.com/gardar/gridocr/pkg/ocr"
	"github.com/gardar/gridocr/pkg/raster"
	"github.com/gardar/gridocr/pkg/table"
)

// fakeEngine numbers cells in the order it reads them and answers whole-page
// requests with pageText.
type fakeEngine struct {
	mu       sync.Mutex
	cells    int
	pages    int
	pageText string
	onCell   func(n int)
	block    bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image, mode ocr.PageSegMode) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if mode == ocr.PSMAuto {
		f.pages++
		return f.pageText, nil
	}
	f.cells++
	if f.onCell != nil {
		f.onCell(f.cells)
	}
	return fmt.Sprintf(" cell %d\n", f.cells), nil
}

type fakeHOCREngine struct {
	fakeEngine
}

func (f *fakeHOCREngine) RecognizeHOCR(ctx context.Context, img image.Image, page int) (hocr.Page, error) {
	b := img.Bounds()
	p := hocr.Page{
		BBox: hocr.NewBoundingBox(0, 0, float64(b.Dx()), float64(b.Dy())),
		Lines: []hocr.Line{{Words: []hocr.Word{
			{Text: "Total", BBox: hocr.NewBoundingBox(30, 30, 90, 50)},
		}}},
	}
	return p.Renumber(page), nil
}

// ruledPage draws a 2-row, 3-column table of 2px black rulings on white.
func ruledPage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 400, 240))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	xs := []int{20, 140, 260, 380}
	ys := []int{20, 100, 180}
	for _, y := range ys {
		for x := 20; x <= 381; x++ {
			img.Pix[y*img.Stride+x] = 0
			img.Pix[(y+1)*img.Stride+x] = 0
		}
	}
	for _, x := range xs {
		for y := 20; y <= 181; y++ {
			img.Pix[y*img.Stride+x] = 0
			img.Pix[y*img.Stride+x+1] = 0
		}
	}
	return img
}

func blankPage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 300, 200))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// pageRenderer stands in for pdftoppm, emitting a ruled table per page.
type pageRenderer struct {
	dir   string
	pages []int
}

func (r *pageRenderer) Render(ctx context.Context, pdfPath string, first, last, dpi int, dir string) ([]string, error) {
	r.dir = dir
	var paths []string
	for p := first; p <= last; p++ {
		path := filepath.Join(dir, fmt.Sprintf("page-%d.png", p))
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		err = png.Encode(f, ruledPage())
		f.Close()
		if err != nil {
			return nil, err
		}
		r.pages = append(r.pages, p)
		paths = append(paths, path)
	}
	return paths, nil
}

func writePDF(t *testing.T, path string, pages int) {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Text(20, 20, fmt.Sprintf("Page %d", i))
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatal(err)
	}
}

func newPipeline(eng ocr.Engine) *Pipeline {
	return &Pipeline{Loader: &raster.Loader{Renderer: &pageRenderer{}, DPI: 200}, Engine: eng, Config: DefaultConfig()}
}

func TestRunImageWithTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, ruledPage())

	eng := &fakeEngine{pageText: "Invoice 42"}
	var events []Progress
	res, err := newPipeline(eng).Run(context.Background(), Request{Input: path, Range: raster.AllPages}, func(p Progress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(res.Tables))
	}
	tbl := res.Tables[0]
	if tbl.Label != "Table 1" || tbl.Page != 1 || tbl.Index != 1 {
		t.Errorf("table = %q page %d index %d", tbl.Label, tbl.Page, tbl.Index)
	}
	if tbl.Grid.Rows() != 2 || tbl.Grid.Cols() != 3 {
		t.Fatalf("grid = %dx%d, want 2x3", tbl.Grid.Rows(), tbl.Grid.Cols())
	}
	if tbl.Grid.Cell(0, 0) != "cell 1" || tbl.Grid.Cell(1, 2) != "cell 6" {
		t.Errorf("grid = %q", tbl.Grid)
	}
	if _, ok := res.Pages[0].Detection.(locate.Detected); !ok {
		t.Errorf("detection = %T", res.Pages[0].Detection)
	}
	if res.Text != "Invoice 42" {
		t.Errorf("text = %q", res.Text)
	}

	last := events[len(events)-1]
	if last.Stage != StageDone || last.Pages != 1 {
		t.Errorf("last event = %+v", last)
	}
	var sawCells bool
	for _, ev := range events {
		if ev.Stage == StageCells && ev.Cell == 6 && ev.Cells == 6 {
			sawCells = true
		}
	}
	if !sawCells {
		t.Error("no progress event for the last cell")
	}

	doc := res.Document()
	if doc.Range != "1" || len(doc.Tables) != 1 || doc.Source != path {
		t.Errorf("document = %+v", doc)
	}
	if doc.ProcessedAt.IsZero() || !doc.ProcessedAt.Equal(res.Finished) {
		t.Errorf("processed at = %v, finished = %v", doc.ProcessedAt, res.Finished)
	}
}

func TestRunBlankImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.png")
	writePNG(t, path, blankPage())

	eng := &fakeEngine{}
	res, err := newPipeline(eng).Run(context.Background(), Request{Input: path, Range: raster.AllPages}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tables) != 0 || res.Text != "" {
		t.Errorf("tables = %d, text = %q", len(res.Tables), res.Text)
	}
	if _, ok := res.Pages[0].Detection.(locate.NoStructureFound); !ok {
		t.Errorf("detection = %T", res.Pages[0].Detection)
	}
	if eng.cells != 0 || eng.pages != 1 {
		t.Errorf("cells read = %d, pages read = %d", eng.cells, eng.pages)
	}
}

func TestRunPDFRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	writePDF(t, path, 3)

	rng, err := raster.ParsePageRange("1-2")
	if err != nil {
		t.Fatal(err)
	}
	renderer := &pageRenderer{}
	p := &Pipeline{Loader: &raster.Loader{Renderer: renderer, DPI: 150}, Engine: &fakeEngine{pageText: "text"}, Config: DefaultConfig()}

	res, err := p.Run(context.Background(), Request{Input: path, Range: rng}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Pages) != 2 || res.Pages[0].Number != 1 || res.Pages[1].Number != 2 {
		t.Fatalf("pages = %+v", res.Pages)
	}
	if len(res.Tables) != 2 || res.Tables[1].Label != "Table 2" || res.Tables[1].Page != 2 {
		t.Errorf("tables = %+v", res.Tables)
	}
	if res.Text != "text\n\ntext" {
		t.Errorf("text = %q", res.Text)
	}
	if res.DPI != 150 || res.Range.String() != "1-2" {
		t.Errorf("dpi = %d, range = %s", res.DPI, res.Range)
	}
	if _, err := os.Stat(renderer.dir); !os.IsNotExist(err) {
		t.Errorf("page images left in %s", renderer.dir)
	}
}

func TestRunHOCRAndImages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	writePDF(t, path, 2)

	eng := &fakeHOCREngine{}
	res, err := newPipeline(eng).Run(context.Background(), Request{Input: path, Range: raster.AllPages, WantHOCR: true, KeepImages: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.HOCR == nil || len(res.HOCR.Pages) != 2 || res.HOCR.Pages[1].PageNumber != 2 {
		t.Fatalf("hocr = %+v", res.HOCR)
	}
	if len(res.PageImages) != 0 || len(res.SourcePDF) == 0 {
		t.Errorf("images = %d, source pdf = %d bytes; want renders dropped for pdf input", len(res.PageImages), len(res.SourcePDF))
	}
	if doc := res.Document(); doc.PDFStartPage != 1 || doc.DPI != 200 {
		t.Errorf("document start page %d dpi %d", doc.PDFStartPage, doc.DPI)
	}
}

func TestRunKeepsImagesOfImageInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, ruledPage())

	res, err := newPipeline(&fakeHOCREngine{}).Run(context.Background(), Request{Input: path, Range: raster.AllPages, WantHOCR: true, KeepImages: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.PageImages) != 1 || len(res.SourcePDF) != 0 {
		t.Errorf("images = %d, source pdf = %d bytes", len(res.PageImages), len(res.SourcePDF))
	}
}

// wordEngine lays out a two-column price list without rulings.
type wordEngine struct {
	fakeEngine
}

func (f *wordEngine) RecognizeHOCR(ctx context.Context, img image.Image, page int) (hocr.Page, error) {
	w := func(text string, x1, y1, x2 float64) hocr.Word {
		return hocr.Word{Text: text, BBox: hocr.NewBoundingBox(x1, y1, x2, y1+20), Confidence: 90}
	}
	p := hocr.Page{Lines: []hocr.Line{
		{Words: []hocr.Word{w("Item", 30, 30, 80), w("Price", 250, 30, 300)}},
		{Words: []hocr.Word{w("Tea", 30, 70, 70), w("4.50", 250, 70, 290)}},
	}}
	return p.Renumber(page), nil
}

func TestRunWordMethod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, ruledPage())

	eng := &wordEngine{}
	p := newPipeline(eng)
	p.Config.Method = MethodWords
	res, err := p.Run(context.Background(), Request{Input: path, Range: raster.AllPages}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if eng.cells != 0 {
		t.Errorf("ruled cells read = %d, want none", eng.cells)
	}
	if len(res.Tables) != 1 || res.Tables[0].Label != "Table 1" {
		t.Fatalf("tables = %+v", res.Tables)
	}
	want := table.Grid{{"Item", "Price"}, {"Tea", "4.50"}}
	if !reflect.DeepEqual(res.Tables[0].Grid, want) {
		t.Errorf("grid = %q, want %q", res.Tables[0].Grid, want)
	}
	if res.HOCR != nil {
		t.Error("hOCR kept without being requested")
	}
	if _, ok := res.Pages[0].Detection.(locate.NoStructureFound); !ok {
		t.Errorf("detection = %T", res.Pages[0].Detection)
	}
}

func TestRunAllMethods(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, ruledPage())

	p := newPipeline(&wordEngine{})
	p.Config.Method = MethodAll
	res, err := p.Run(context.Background(), Request{Input: path, Range: raster.AllPages}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tables) != 2 {
		t.Fatalf("tables = %d, want ruled plus word layout", len(res.Tables))
	}
	if res.Tables[0].Grid.Cols() != 3 || res.Tables[1].Label != "Table 2" || res.Tables[1].Grid.Cell(1, 1) != "4.50" {
		t.Errorf("tables = %+v", res.Tables)
	}
}

func TestRunWordMethodNeedsCapableEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, blankPage())

	p := newPipeline(&fakeEngine{})
	p.Config.Method = MethodWords
	if _, err := p.Run(context.Background(), Request{Input: path, Range: raster.AllPages}, nil); !errors.Is(err, ocr.ErrEngineUnavailable) {
		t.Errorf("err = %v, want ErrEngineUnavailable", err)
	}

	p.Config.Method = "grid"
	if _, err := p.Run(context.Background(), Request{Input: path, Range: raster.AllPages}, nil); err == nil {
		t.Error("unknown method accepted")
	}
}

func TestRunHOCRNeedsCapableEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, blankPage())

	_, err := newPipeline(&fakeEngine{}).Run(context.Background(), Request{Input: path, Range: raster.AllPages, WantHOCR: true}, nil)
	if !errors.Is(err, ocr.ErrEngineUnavailable) {
		t.Errorf("err = %v, want ErrEngineUnavailable", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	_, err := newPipeline(&fakeEngine{}).Run(context.Background(), Request{Input: "/nonexistent/scan.png", Range: raster.AllPages}, nil)
	if !errors.Is(err, raster.ErrInputNotFound) {
		t.Errorf("err = %v", err)
	}
	if Classify(err) != KindInput {
		t.Errorf("kind = %s", Classify(err))
	}
}

func TestRunCancelsBetweenCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, ruledPage())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng := &fakeEngine{onCell: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	_, err := newPipeline(eng).Run(ctx, Request{Input: path, Range: raster.AllPages}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if eng.cells != 2 || eng.pages != 0 {
		t.Errorf("cells read = %d, pages read = %d", eng.cells, eng.pages)
	}
}

func TestJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, ruledPage())

	job := Start(context.Background(), newPipeline(&fakeEngine{pageText: "x"}), Request{Input: path, Range: raster.AllPages})
	var last Progress
	for ev := range job.Progress() {
		last = ev
	}
	res, err := job.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if last.Stage != StageDone {
		t.Errorf("last progress = %+v", last)
	}
	if len(res.Tables) != 1 {
		t.Errorf("tables = %d", len(res.Tables))
	}
}

func TestJobCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, ruledPage())

	job := Start(context.Background(), newPipeline(&fakeEngine{block: true}), Request{Input: path, Range: raster.AllPages})
	job.Cancel()
	res, err := job.Wait()
	if !errors.Is(err, context.Canceled) || res != nil {
		t.Errorf("res = %v, err = %v", res, err)
	}
	select {
	case <-job.Done():
	default:
		t.Error("Done not closed after Wait")
	}
	if Classify(err) != KindCanceled {
		t.Errorf("kind = %s", Classify(err))
	}
}
