package pdfocr

// OCRConfig controls how the text layer is written.
type OCRConfig struct {
	Debug     bool   // Draw the text in red with word boxes instead of hiding it
	Force     bool   // Apply even when an OCR layer already exists
	LayerName string // Page number is appended: "OCR Text (Page 3)"
	StartPage int    // First source page (ApplyOCR) or first image (AssembleWithOCR), 1-based
	DPI       int    // Image resolution for AssembleWithOCR; 0 maps one pixel to one point
	Font      FontConfig
}

// DefaultConfig returns the settings used by the exporter.
func DefaultConfig() OCRConfig {
	return OCRConfig{
		LayerName: "OCR Text",
		StartPage: 1,
		Font:      DefaultFont,
	}
}

// FontConfig describes the font used for the invisible text.
type FontConfig struct {
	Name        string
	Style       string // "", "B", "I" or "BI"
	Size        float64
	AscentRatio float64 // Ascent as a fraction of the font size, used to place the baseline
}

// DefaultFont is a core font, so nothing needs embedding.
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Size:        10,
	AscentRatio: 0.718,
}
