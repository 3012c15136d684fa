// Package pipeline runs the table extraction stages over a document:
// load, preprocess, locate, extract, and hands the result to an exporter.
//
// Run is a blocking call. Start wraps it in a Job that runs on a single
// background goroutine and reports progress on a channel, for callers with
// their own event loop. State and Reduce model the interactive front end
// around it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gardar/gridocr/pkg/export"
	"github.com/gardar/gridocr/pkg/extract"
	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/gardar/gridocr/pkg/locate"
	"github.com/gardar/gridocr/pkg/ocr"
	"github.com/gardar/gridocr/pkg/preprocess"
	"github.com/gardar/gridocr/pkg/raster"
	"github.com/gardar/gridocr/pkg/table"
)

// Stage names the step a Progress event was emitted from.
type Stage string

const (
	StageLoad       Stage = "load"
	StagePreprocess Stage = "preprocess"
	StageLocate     Stage = "locate"
	StageCells      Stage = "cells"
	StagePageText   Stage = "text"
	StageDone       Stage = "done"
)

// Progress reports how far a run has got. Page counts positions within the
// selected range, starting at 1; Cell and Cells cover the current page.
type Progress struct {
	Stage Stage
	Page  int
	Pages int
	Cell  int
	Cells int
}

// ProgressFunc receives progress events on the goroutine running the pipeline.
type ProgressFunc func(Progress)

// Request describes one run.
type Request struct {
	Input      string
	Range      raster.PageRange
	WantHOCR   bool // Record word positions; needs an ocr.HOCREngine
	KeepImages bool // Keep PNG-encoded pages of image input, for PDF export
}

// PageResult is what was found on one page.
type PageResult struct {
	Number    int // 1-based page number in the source
	Text      string
	Detection locate.Detection
	Tables    []table.Table
}

// Result is the outcome of a run.
type Result struct {
	Input      string
	Range      raster.PageRange // Resolved against the document
	Pages      []PageResult
	Tables     []table.Table // Every table in document order
	Text       string        // Page texts separated by blank lines
	HOCR       *hocr.HOCR    // Set when requested
	PageImages [][]byte      // Set when requested for image input
	SourcePDF  []byte        // Original PDF, when hOCR was requested for PDF input
	DPI        int
	Finished   time.Time
}

// Document converts r into the exporter's input.
func (r *Result) Document() export.Document {
	return export.Document{
		Source:       r.Input,
		Range:        r.Range.String(),
		Text:         r.Text,
		Tables:       r.Tables,
		HOCR:         r.HOCR,
		PageImages:   r.PageImages,
		SourcePDF:    r.SourcePDF,
		PDFStartPage: r.Range.First,
		DPI:          r.DPI,
		ProcessedAt:  r.Finished,
	}
}

// Pipeline wires the loader, the OCR engine and the stage settings.
type Pipeline struct {
	Loader *raster.Loader
	Engine ocr.Engine
	Config Config
}

// New returns a Pipeline rendering PDFs with pdftoppm and using the default
// stage settings.
func New(engine ocr.Engine) *Pipeline {
	return &Pipeline{Loader: raster.NewLoader(), Engine: engine, Config: DefaultConfig()}
}

// Run processes every page of req.Range. With the lines method, pages
// without ruling lines contribute their text only. Cancellation of ctx is
// honoured between pages and between cells; temporary page images are
// removed on every return path.
func (p *Pipeline) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	method, err := ParseMethod(string(p.Config.Method))
	if err != nil {
		return nil, err
	}

	var hocrEngine ocr.HOCREngine
	if req.WantHOCR || method.words() {
		he, ok := p.Engine.(ocr.HOCREngine)
		if !ok {
			return nil, fmt.Errorf("%w: %s cannot report word positions", ocr.ErrEngineUnavailable, p.Engine.Name())
		}
		hocrEngine = he
	}

	progress(Progress{Stage: StageLoad})
	loader := p.Loader
	if loader == nil {
		loader = raster.NewLoader()
	}
	doc, err := loader.Load(ctx, req.Input, req.Range)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := doc.Close(); err != nil {
			slog.Warn("pipeline: failed to remove page images", "dir", doc.TempDir(), "error", err)
		}
	}()

	res := &Result{Input: req.Input, Range: doc.Range, DPI: doc.DPI}
	if req.WantHOCR && doc.Kind == raster.KindPDF {
		if res.SourcePDF, err = os.ReadFile(req.Input); err != nil {
			return nil, fmt.Errorf("read source pdf: %w", err)
		}
	}

	run := &pageRun{
		ex:       &extract.Extractor{Engine: p.Engine, Config: p.Config.Extract},
		hocr:     hocrEngine,
		cfg:      p.Config,
		method:   method,
		pages:    doc.Len(),
		progress: progress,
	}

	var texts []string
	var hocrPages []hocr.Page
	for i := 0; i < doc.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := doc.Page(i)
		if err != nil {
			return nil, err
		}

		pr, hp, err := run.page(ctx, i+1, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
		res.Pages = append(res.Pages, pr)
		res.Tables = append(res.Tables, pr.Tables...)
		if pr.Text != "" {
			texts = append(texts, pr.Text)
		}
		if req.WantHOCR {
			hocrPages = append(hocrPages, hp)
		}
		// PDF input is exported from SourcePDF, so its renders are not kept.
		if req.KeepImages && doc.Kind == raster.KindImage {
			data, err := ocr.EncodePNG(page.Image)
			if err != nil {
				return nil, err
			}
			res.PageImages = append(res.PageImages, data)
		}
	}

	res.Text = strings.Join(texts, "\n\n")
	if req.WantHOCR {
		res.HOCR = hocr.NewDocument(p.Engine.Name(), hocrPages...)
	}
	res.Finished = time.Now()
	progress(Progress{Stage: StageDone, Page: doc.Len(), Pages: doc.Len()})
	slog.Info("pipeline: run complete", "input", req.Input, "range", doc.Range.String(), "pages", doc.Len(), "tables", len(res.Tables))
	return res, nil
}

// pageRun carries what stays fixed across the pages of one run.
type pageRun struct {
	ex       *extract.Extractor
	hocr     ocr.HOCREngine
	cfg      Config
	method   Method
	pages    int
	tables   int
	progress ProgressFunc
}

func (r *pageRun) page(ctx context.Context, pos int, page raster.Page) (PageResult, hocr.Page, error) {
	emit := func(stage Stage, cell, cells int) {
		r.progress(Progress{Stage: stage, Page: pos, Pages: r.pages, Cell: cell, Cells: cells})
	}
	out := PageResult{Number: page.Number}
	add := func(grid table.Grid) {
		r.tables++
		out.Tables = append(out.Tables, table.Table{
			Label: fmt.Sprintf("Table %d", r.tables),
			Page:  page.Number,
			Index: r.tables,
			Grid:  grid,
		})
	}

	var found []locate.Table
	if r.method.ruled() {
		emit(StagePreprocess, 0, 0)
		pre := preprocess.Run(page.Image, r.cfg.Preprocess)

		emit(StageLocate, 0, 0)
		out.Detection = locate.Locate(pre.Mask, r.cfg.Locate)
		if nsf, ok := out.Detection.(locate.NoStructureFound); ok {
			slog.Debug("pipeline: no table structure", "page", page.Number, "reason", nsf.Reason)
		}
		found = locate.Tables(out.Detection)
	} else {
		out.Detection = locate.NoStructureFound{Reason: "ruling detection disabled"}
	}

	cells := 0
	for _, t := range found {
		cells += t.Cells()
	}
	offset := 0
	for _, t := range found {
		if t.Overlaps > 0 {
			slog.Warn("pipeline: overlapping cells kept as found", "page", page.Number, "pairs", t.Overlaps)
		}
		grid, err := r.ex.Table(ctx, page.Image, t, func(done, _ int) {
			emit(StageCells, offset+done, cells)
		})
		if err != nil {
			return PageResult{}, hocr.Page{}, err
		}
		offset += t.Cells()
		add(grid)
	}

	emit(StagePageText, cells, cells)
	text, err := r.ex.Page(ctx, page.Image)
	if err != nil {
		return PageResult{}, hocr.Page{}, err
	}
	out.Text = text

	var hp hocr.Page
	if r.hocr != nil {
		if hp, err = r.hocr.RecognizeHOCR(ctx, page.Image, page.Number); err != nil {
			return PageResult{}, hocr.Page{}, err
		}
	}
	if r.method.words() {
		if grid := extract.WordTable(hp, r.cfg.Words); !grid.IsEmpty() {
			add(grid)
		}
	}

	slog.Debug("pipeline: page processed", "page", page.Number, "tables", len(out.Tables), "cells", cells)
	return out, hp, nil
}
