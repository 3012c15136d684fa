// gridocr extracts tables and text from scanned pages.
//
// Each page of the input is binarised, its ruling lines are traced to find
// table cells, every cell is read with OCR, and the result is written as a
// spreadsheet, Word document, text, hOCR, searchable PDF or JSON file.
//
// Usage:
//
//	gridocr [flags] <input>
//
// The input is an image (PNG, JPEG, GIF, BMP, TIFF, WebP), a PDF, or a
// directory whose images and PDFs are processed one after another.
//
// Flags:
//
//	-o, -output string       text, excel, docx, hocr, pdf, json or report (default "text")
//	-f, -file string         Output file; default is <base>_<range>.<ext> in -dest
//	-dest string             Output directory (default ~/Desktop if present, else .)
//	-pages string            Page range: All, N or A-B (default "All")
//	-engine string           tesseract, gosseract or documentai (default "tesseract")
//	-method string           Table finding: lines, words or all (default "lines")
//	-tesseract-path string   Path to the tesseract binary
//	-lang string             Tesseract languages, e.g. "eng+deu"
//	-dpi int                 PDF render resolution (default 200)
//	-config string           YAML configuration file
//	-report string           Also write one report over every input (.xlsx or text)
//	-list-ranges             Print the selectable page ranges and exit
//	-preview                 Print detected tables to stdout
//	-debug-api string        Save the last Document AI response as JSON
//	-v                       Verbose logging
//
// PDF input needs pdftoppm (poppler-utils). The Document AI engine reads its
// processor from the documentai section of -config and authenticates with
// GOOGLE_APPLICATION_CREDENTIALS.
//
// Examples:
//
//	gridocr -o excel invoice.pdf
//	gridocr -o docx -pages 1-5 -dest ./out report.pdf
//	gridocr -o pdf -engine documentai -config config.yml scan.png
//	gridocr -report summary.xlsx ./scans
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gardar/gridocr/pkg/export"
	"github.com/gardar/gridocr/pkg/gdocai"
	"github.com/gardar/gridocr/pkg/ocr"
	"github.com/gardar/gridocr/pkg/pipeline"
	"github.com/gardar/gridocr/pkg/raster"
)

type options struct {
	output     string
	file       string
	dest       string
	pages      string
	engine     string
	method     string
	tesseract  string
	lang       string
	dpi        int
	configPath string
	listRanges bool
	preview    bool
	debugAPI   string
	report     string
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.output, "output", "text", "Output format: text, excel, docx, hocr, pdf, json or report")
	flag.StringVar(&opts.output, "o", "text", "Shorthand for -output")
	flag.StringVar(&opts.file, "file", "", "Output file (default <base>_<range>.<ext> in -dest)")
	flag.StringVar(&opts.file, "f", "", "Shorthand for -file")
	flag.StringVar(&opts.dest, "dest", "", "Output directory (default ~/Desktop if present, else the current directory)")
	flag.StringVar(&opts.pages, "pages", "All", "Page range: All, N or A-B")
	flag.StringVar(&opts.engine, "engine", "", "OCR engine: tesseract, gosseract or documentai")
	flag.StringVar(&opts.method, "method", "", "Table finding: lines (ruled grids), words (word positions) or all")
	flag.StringVar(&opts.tesseract, "tesseract-path", "", "Path to the tesseract binary")
	flag.StringVar(&opts.lang, "lang", "", "Tesseract languages, e.g. eng+deu")
	flag.IntVar(&opts.dpi, "dpi", 0, "PDF render resolution (default 200)")
	flag.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	flag.StringVar(&opts.report, "report", "", "Write a summary report over every input (.xlsx for a spreadsheet, otherwise text)")
	flag.BoolVar(&opts.listRanges, "list-ranges", false, "Print the selectable page ranges and exit")
	flag.BoolVar(&opts.preview, "preview", false, "Print detected tables to stdout")
	flag.StringVar(&opts.debugAPI, "debug-api", "", "Path to save the last Document AI response as JSON")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <input>\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one input path is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Arg(0), opts); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, input string, opts options) error {
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", raster.ErrInputNotFound, input)
		}
		return err
	}

	if opts.listRanges {
		return listRanges(input)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(&cfg, opts); err != nil {
		return err
	}

	format, err := export.ParseFormat(opts.output)
	if err != nil {
		return err
	}
	pages, err := raster.ParsePageRange(opts.pages)
	if err != nil {
		return err
	}

	engine, closeEngine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEngine()

	p := &pipeline.Pipeline{
		Loader: &raster.Loader{Renderer: raster.Pdftoppm{}, DPI: cfg.DPI},
		Engine: engine,
		Config: cfg.Pipeline,
	}

	dest := opts.dest
	if dest == "" {
		dest = defaultDest()
	}

	inputs := []string{input}
	if info.IsDir() {
		if inputs, err = batchInputs(input); err != nil {
			return err
		}
		if opts.file != "" {
			slog.Warn("gridocr: -file ignored in batch mode", "dir", input)
			opts.file = ""
		}
		fmt.Printf("Processing %d files from %s\n", len(inputs), input)
	}

	entries, failed := processAll(ctx, p, inputs, pages, format, dest, opts)

	if opts.report != "" {
		if len(entries) == 0 {
			slog.Warn("gridocr: report skipped, no input succeeded", "path", opts.report)
		} else if err := export.WriteReportFile(opts.report, entries); err != nil {
			return fmt.Errorf("write report: %w", err)
		} else {
			fmt.Println("Report saved to:", opts.report)
		}
	}

	if opts.debugAPI != "" {
		if err := writeDebugAPI(engine, opts.debugAPI); err != nil {
			slog.Warn("gridocr: debug dump skipped", "error", err)
		}
	}

	if failed > 0 {
		if len(inputs) == 1 {
			return errors.New("processing failed")
		}
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	return nil
}

// processAll runs every input through its own state machine and exports it.
// It returns a report entry per successful input and the failure count.
func processAll(ctx context.Context, p *pipeline.Pipeline, inputs []string, pages raster.PageRange, format export.Format, dest string, opts options) ([]export.ReportEntry, int) {
	var entries []export.ReportEntry
	failed := 0
	for _, in := range inputs {
		s, err := startState(pipeline.NewState(), in, pages, format)
		var res *pipeline.Result
		if err == nil {
			s, res = process(ctx, p, s, outputPath(opts.file, dest, in, pages, format), opts.preview)
			err = s.Err
		}
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Failed %s: %v\n", in, err)
			slog.Debug("gridocr: failure", "input", in, "kind", pipeline.Classify(err))
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}
		fmt.Println("Output saved to:", s.Output)
		entries = append(entries, export.NewReportEntry(res.Document()))
	}
	return entries, failed
}

// applyFlags lets explicit flags override the config file.
func applyFlags(cfg *yamlConfig, opts options) error {
	if opts.method != "" {
		m, err := pipeline.ParseMethod(opts.method)
		if err != nil {
			return err
		}
		cfg.Pipeline.Method = m
	}
	if opts.engine != "" {
		cfg.Engine = strings.ToLower(opts.engine)
	}
	if opts.tesseract != "" {
		cfg.Tesseract.Path = opts.tesseract
	}
	if opts.lang != "" {
		cfg.Tesseract.Languages = strings.FieldsFunc(opts.lang, func(r rune) bool { return r == '+' || r == ',' })
	}
	if opts.dpi > 0 {
		cfg.DPI = opts.dpi
	}
	return nil
}

func newEngine(ctx context.Context, cfg yamlConfig) (ocr.Engine, func(), error) {
	noop := func() {}
	switch cfg.Engine {
	case "", "tesseract":
		t, err := ocr.NewTesseract(cfg.Tesseract)
		if err != nil {
			return nil, noop, err
		}
		if v, err := t.Version(ctx); err == nil {
			slog.Debug("gridocr: using tesseract", "version", v)
		}
		return t, noop, nil
	case "gosseract":
		g, err := ocr.NewGosseract(cfg.Tesseract)
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	case "documentai":
		e, err := gdocai.NewEngine(ctx, &cfg.DocumentAI)
		if err != nil {
			return nil, noop, err
		}
		return e, func() {
			if err := e.Close(); err != nil {
				slog.Warn("gridocr: closing Document AI client", "error", err)
			}
		}, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown engine %q", ocr.ErrEngineUnavailable, cfg.Engine)
	}
}

// startState walks a fresh state to Processing for one input.
func startState(s pipeline.State, input string, pages raster.PageRange, format export.Format) (pipeline.State, error) {
	for _, ev := range []pipeline.Event{
		pipeline.ChooseFormat{Format: format},
		pipeline.ChooseRange{Range: pages},
		pipeline.SelectFile{Path: input},
		pipeline.StartProcessing{},
	} {
		var err error
		if s, err = pipeline.Reduce(s, ev); err != nil {
			return s, err
		}
	}
	return s, nil
}

// process runs the pipeline for s.Input on a background job, exports the
// result to out and returns the Succeeded or Failed state, with the result
// when it succeeded.
func process(ctx context.Context, p *pipeline.Pipeline, s pipeline.State, out string, preview bool) (pipeline.State, *pipeline.Result) {
	fail := func(err error) (pipeline.State, *pipeline.Result) {
		next, _ := pipeline.Reduce(s, pipeline.Fail{Err: err})
		return next, nil
	}

	fmt.Printf("Processing %s (pages %s, output %s)\n", s.Input, s.Range, s.Format)
	job := pipeline.Start(ctx, p, request(s))
	lastPage := 0
	for ev := range job.Progress() {
		if ev.Page != lastPage && ev.Stage != pipeline.StageDone {
			lastPage = ev.Page
			fmt.Printf("  page %d/%d\n", ev.Page, ev.Pages)
		}
	}
	res, err := job.Wait()
	if err != nil {
		return fail(err)
	}

	if preview {
		if len(res.Tables) == 0 {
			fmt.Println("No tables detected.")
		} else if err := export.RenderTables(os.Stdout, res.Tables); err != nil {
			return fail(err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fail(err)
	}
	if err := export.Write(out, s.Format, res.Document()); err != nil {
		return fail(err)
	}
	next, err := pipeline.Reduce(s, pipeline.Finish{Output: out})
	if err != nil {
		return fail(err)
	}
	return next, res
}

// request builds the pipeline request for s. Only image input needs its page
// rasters for PDF output; PDFs get the text layer added to the source file.
func request(s pipeline.State) pipeline.Request {
	kind, _ := raster.DetectKind(s.Input)
	return pipeline.Request{
		Input:      s.Input,
		Range:      s.Range,
		WantHOCR:   s.Format.NeedsHOCR(),
		KeepImages: s.Format == export.FormatPDF && kind == raster.KindImage,
	}
}

// outputPath honours an explicit -file, adding the format's extension when
// it has none; otherwise the name is derived from the input and range.
func outputPath(file, dest, input string, pages raster.PageRange, format export.Format) string {
	if file == "" {
		return export.OutputPath(dest, input, pages.Slug(), format)
	}
	if filepath.Ext(file) == "" {
		file += format.Ext()
	}
	if filepath.Dir(file) == "." && !strings.HasPrefix(file, "."+string(filepath.Separator)) {
		return filepath.Join(dest, file)
	}
	return file
}

// defaultDest is the user's desktop when there is one.
func defaultDest() string {
	if home, err := os.UserHomeDir(); err == nil {
		desktop := filepath.Join(home, "Desktop")
		if fi, err := os.Stat(desktop); err == nil && fi.IsDir() {
			return desktop
		}
	}
	return "."
}

// batchInputs lists the images and PDFs directly inside dir, sorted by name.
func batchInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var inputs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := raster.DetectKind(e.Name()); err == nil {
			inputs = append(inputs, filepath.Join(dir, e.Name()))
		}
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no images or PDFs in %s", raster.ErrInputNotFound, dir)
	}
	sort.Strings(inputs)
	return inputs, nil
}

func listRanges(input string) error {
	kind, err := raster.DetectKind(input)
	if err != nil {
		return err
	}
	count := 1
	if kind == raster.KindPDF {
		if count, err = raster.PageCount(input); err != nil {
			return err
		}
	}
	fmt.Printf("%s: %d page(s)\n", input, count)
	for _, r := range raster.PageRanges(count) {
		fmt.Println(r)
	}
	return nil
}

func writeDebugAPI(engine ocr.Engine, path string) error {
	e, ok := engine.(*gdocai.Engine)
	if !ok {
		return fmt.Errorf("-debug-api needs -engine documentai, not %s", engine.Name())
	}
	data, err := e.LastResponseJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Println("API response JSON saved to:", path)
	return nil
}
