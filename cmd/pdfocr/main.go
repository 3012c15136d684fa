// pdfocr adds an invisible, searchable text layer to a PDF from an hOCR file.
//
// It is the standalone counterpart of "gridocr -o pdf": run gridocr with
// "-o hocr" once, review or correct the hOCR, then build the searchable PDF
// without running OCR again.
//
// Usage:
//
//	pdfocr -hocr document.hocr -output out.pdf (-pdf in.pdf | -image-dir dir) [options]
//
// Input options (one required):
//
//	-pdf string        Existing PDF to overlay; hOCR page i lands on page start-page+i
//	-image-dir string  Directory of page images, sorted by name, to build a new PDF from
//
// Processing options:
//
//	-dpi int           Resolution the hOCR coordinates were recorded at (default 200)
//	-start-page int    First PDF page or image the hOCR applies to (default 1)
//	-layer string      Name of the optional content layer (default "OCR Text")
//	-debug             Draw the text in red with word boxes
//	-force             Apply even when the PDF already has an OCR layer
//	-overwrite         Replace the output file if it exists
//
// Examples:
//
//	gridocr -o hocr -dest . scan.pdf
//	pdfocr -hocr scan_all.hocr -pdf scan.pdf -output scan_searchable.pdf
//	pdfocr -hocr pages.hocr -image-dir ./pages -output pages.pdf
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/gardar/gridocr/pkg/pdfocr"
	"github.com/gardar/gridocr/pkg/raster"
)

func main() {
	hocrPath := flag.String("hocr", "", "Path to a multi-page hOCR file")
	imageDir := flag.String("image-dir", "", "Directory containing page images")
	pdfPath := flag.String("pdf", "", "Path to an existing PDF to add the text layer to")
	outPath := flag.String("output", "", "Output PDF path")
	dpi := flag.Int("dpi", raster.DefaultDPI, "Resolution the hOCR coordinates were recorded at")
	startPage := flag.Int("start-page", 1, "First PDF page or image the hOCR applies to (1-based)")
	layer := flag.String("layer", pdfocr.DefaultConfig().LayerName, "Name of the optional content layer")
	debug := flag.Bool("debug", false, "Draw the text visibly with word boxes")
	force := flag.Bool("force", false, "Apply even when an OCR layer is already present")
	overwrite := flag.Bool("overwrite", false, "Overwrite the output PDF if it already exists")
	flag.Parse()

	if *hocrPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -hocr and -output are required")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if (*imageDir == "") == (*pdfPath == "") {
		fmt.Fprintln(os.Stderr, "Error: provide exactly one of -pdf or -image-dir")
		os.Exit(1)
	}
	if _, err := os.Stat(*outPath); err == nil && !*overwrite {
		fmt.Fprintf(os.Stderr, "Error: output file %s already exists, use -overwrite to replace it\n", *outPath)
		os.Exit(1)
	}

	cfg := pdfocr.DefaultConfig()
	cfg.Debug = *debug
	cfg.Force = *force
	cfg.LayerName = *layer
	cfg.StartPage = *startPage
	cfg.DPI = *dpi

	out, err := build(*hocrPath, *pdfPath, *imageDir, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, pdfocr.ErrAlreadyOCRed) {
			fmt.Fprintln(os.Stderr, "Use -force to add another layer anyway.")
		}
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "Error: write output:", err)
		os.Exit(1)
	}
	fmt.Println("Searchable PDF saved to:", *outPath)
}

func build(hocrPath, pdfPath, imageDir string, cfg pdfocr.OCRConfig) ([]byte, error) {
	data, err := os.ReadFile(hocrPath)
	if err != nil {
		return nil, fmt.Errorf("read hOCR: %w", err)
	}
	doc, err := hocr.ParseHOCR(data)
	if err != nil {
		return nil, fmt.Errorf("parse hOCR: %w", err)
	}

	if imageDir != "" {
		images, err := readImages(imageDir)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Assembling %d pages from %s\n", len(images), imageDir)
		return pdfocr.AssembleWithOCR(&doc, images, cfg)
	}

	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("read PDF: %w", err)
	}
	points := &doc
	if cfg.DPI > 0 {
		points = doc.Scale(72 / float64(cfg.DPI))
	}
	return pdfocr.ApplyOCR(pdfData, points, cfg)
}

// readImages loads the page images of dir in name order.
func readImages(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && raster.IsSupportedImage(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", pdfocr.ErrNoImages, dir)
	}

	var images [][]byte
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		images = append(images, data)
	}
	return images, nil
}
