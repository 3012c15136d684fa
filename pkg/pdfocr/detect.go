package pdfocr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Layer names appear in several dictionary layouts depending on the writer.
var ocgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/Type\s*/OCG\s*/Name\s*\(([^)]+)\)`),
	regexp.MustCompile(`/OCG\s*<<[^>]*?/Name\s*\(([^)]+)\)`),
	regexp.MustCompile(`<</Type/OCG/Name\(([^)]+)\)`),
	regexp.MustCompile(`/Name\s*\(([^)]+)\)[\s\S]{1,50}/Type\s*/OCG`),
}

// detectPDFLayers scans raw PDF bytes for optional content group names.
// Object streams are not inflated, so layers hidden in them are missed.
func detectPDFLayers(pdfData []byte) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, errors.New("empty PDF data")
	}

	seen := make(map[string]bool)
	var layers []string
	for _, re := range ocgPatterns {
		for _, m := range re.FindAllSubmatch(pdfData, -1) {
			name := unescapePDFString(string(m[1]))
			if strings.HasPrefix(name, "\xfe\xff") {
				if decoded, err := decodeUTF16BE([]byte(name)); err == nil {
					name = decoded
				}
			}
			if !seen[name] {
				seen[name] = true
				layers = append(layers, name)
			}
		}
	}
	return layers, nil
}

// LayerCheckResult lists the layers found in a PDF.
type LayerCheckResult struct {
	Layers       []string
	HasOCRLayer  bool
	OCRLayerName string
	Warnings     []string // Layers that look like OCR but use a different name
}

// CheckExistingOCRLayers looks for a layer called ocrLayerName, with or
// without a "(Page N)" suffix.
func CheckExistingOCRLayers(pdfData []byte, ocrLayerName string) (LayerCheckResult, error) {
	var res LayerCheckResult
	layers, err := detectPDFLayers(pdfData)
	if err != nil {
		return res, fmt.Errorf("cannot analyze layers: %w", err)
	}
	res.Layers = layers

	// Truncated names such as "OCR Text (Page 1\" still count.
	perPage := regexp.MustCompile(`^` + regexp.QuoteMeta(ocrLayerName) + `\s*\(Page\s*\d+`)
	for _, l := range layers {
		if l == ocrLayerName || perPage.MatchString(l) {
			res.HasOCRLayer = true
			res.OCRLayerName = l
			break
		}
		if strings.Contains(strings.ToLower(l), "ocr") {
			res.Warnings = append(res.Warnings, fmt.Sprintf("existing layer might contain OCR: %s", l))
		}
	}
	return res, nil
}

// OCRDetectionResult summarises all OCR detection methods.
type OCRDetectionResult struct {
	HasOCR      bool
	HasLayerOCR bool
	LayerInfo   LayerCheckResult
	Warnings    []string
}

// DetectOCR reports whether pdfData already carries an OCR text layer.
// Layer names are currently the only signal.
func DetectOCR(pdfData []byte, cfg OCRConfig) (OCRDetectionResult, error) {
	var res OCRDetectionResult
	info, err := CheckExistingOCRLayers(pdfData, cfg.LayerName)
	if err != nil {
		return res, err
	}
	res.LayerInfo = info
	res.HasLayerOCR = info.HasOCRLayer
	res.HasOCR = info.HasOCRLayer
	res.Warnings = info.Warnings
	return res, nil
}
