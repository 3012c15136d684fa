package gdocai

import (
	"errors"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/gridocr/pkg/hocr"
)

// CreateHOCRPage converts a single Document AI page to an hOCR page numbered
// pageNumber. Blocks become ocr_carea, paragraphs ocr_par, lines ocr_line and
// tokens ocrx_word. Children are matched to their parent by text anchor
// containment; paragraphs outside every block and lines outside every
// paragraph hang off the page directly.
func CreateHOCRPage(page *documentaipb.Document_Page, fullText string, pageNumber int) (hocr.Page, error) {
	if page == nil {
		return hocr.Page{}, errors.New("gdocai: nil page")
	}

	dim := page.GetDimension()
	out := hocr.Page{
		Lang: language(page.GetDetectedLanguages()),
		BBox: hocr.NewBoundingBox(0, 0, float64(dim.GetWidth()), float64(dim.GetHeight())),
	}
	if bbox, ok := boundingBox(page.GetLayout(), dim); ok {
		out.BBox = bbox
	}

	c := &converter{
		page:  page,
		text:  fullText,
		pars:  make(map[int]bool),
		lines: make(map[int]bool),
		words: make(map[int]bool),
	}
	for _, block := range page.GetBlocks() {
		area := hocr.Area{Paragraphs: c.paragraphs(block.GetLayout())}
		area.BBox, _ = boundingBox(block.GetLayout(), dim)
		out.Areas = append(out.Areas, area)
	}
	out.Paragraphs = c.paragraphs(nil)
	out.Lines = c.linesIn(nil)

	return out.Renumber(pageNumber), nil
}

// converter hands out each paragraph, line and token at most once.
type converter struct {
	page  *documentaipb.Document_Page
	text  string
	pars  map[int]bool
	lines map[int]bool
	words map[int]bool
}

// paragraphs converts the unclaimed paragraphs inside parent, or all
// remaining ones when parent is nil.
func (c *converter) paragraphs(parent *documentaipb.Document_Page_Layout) []hocr.Paragraph {
	var out []hocr.Paragraph
	for i, para := range c.page.GetParagraphs() {
		if c.pars[i] || (parent != nil && !within(para.GetLayout(), parent)) {
			continue
		}
		c.pars[i] = true

		p := hocr.Paragraph{
			Lang:  language(para.GetDetectedLanguages()),
			Lines: c.linesIn(para.GetLayout()),
		}
		p.BBox, _ = boundingBox(para.GetLayout(), c.page.GetDimension())
		out = append(out, p)
	}
	return out
}

func (c *converter) linesIn(parent *documentaipb.Document_Page_Layout) []hocr.Line {
	var out []hocr.Line
	for i, line := range c.page.GetLines() {
		if c.lines[i] || (parent != nil && !within(line.GetLayout(), parent)) {
			continue
		}
		c.lines[i] = true

		l := hocr.Line{
			Lang:  language(line.GetDetectedLanguages()),
			Words: c.tokens(line.GetLayout()),
		}
		l.BBox, _ = boundingBox(line.GetLayout(), c.page.GetDimension())
		out = append(out, l)
	}
	return out
}

func (c *converter) tokens(parent *documentaipb.Document_Page_Layout) []hocr.Word {
	var out []hocr.Word
	for i, tok := range c.page.GetTokens() {
		if c.words[i] || !within(tok.GetLayout(), parent) {
			continue
		}
		c.words[i] = true

		text := strings.Join(strings.Fields(textFromLayout(tok.GetLayout(), c.text)), " ")
		if text == "" {
			continue
		}
		w := hocr.Word{
			Text:       text,
			Confidence: float64(tok.GetLayout().GetConfidence() * 100),
			Lang:       language(tok.GetDetectedLanguages()),
		}
		w.BBox, _ = boundingBox(tok.GetLayout(), c.page.GetDimension())
		out = append(out, w)
	}
	return out
}

// boundingBox converts a layout's polygon to pixel coordinates. Normalized
// vertices are scaled by the page dimension; absolute vertices are used as is.
func boundingBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) (hocr.BoundingBox, bool) {
	poly := layout.GetBoundingPoly()
	var xs, ys []float64
	if nv := poly.GetNormalizedVertices(); len(nv) > 0 && dim != nil {
		for _, v := range nv {
			xs = append(xs, float64(v.GetX()*dim.GetWidth()))
			ys = append(ys, float64(v.GetY()*dim.GetHeight()))
		}
	} else {
		for _, v := range poly.GetVertices() {
			xs = append(xs, float64(v.GetX()))
			ys = append(ys, float64(v.GetY()))
		}
	}
	if len(xs) == 0 {
		return hocr.BoundingBox{}, false
	}
	return hocr.NewBoundingBox(minOf(xs), minOf(ys), maxOf(xs), maxOf(ys)), true
}

func language(langs []*documentaipb.Document_Page_DetectedLanguage) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0].GetLanguageCode()
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = max(m, x)
	}
	return m
}
