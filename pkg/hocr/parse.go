package hocr

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrNoPages is returned when the input contains no ocr_page element.
var ErrNoPages = errors.New("hocr: no ocr_page elements found")

// Tesseract emits headers, captions and floating text as line-level elements.
var lineClasses = []string{"ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat"}

var charsetPattern = regexp.MustCompile(`(?i)charset\s*=\s*["']?([a-z0-9_-]+)`)

var charsets = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
}

// ParseHOCR parses an hOCR document. Latin-1 and Windows-1252 input declared
// through a meta charset is transcoded to UTF-8 first.
func ParseHOCR(data []byte) (HOCR, error) {
	doc := HOCR{Metadata: make(map[string]string)}

	if m := charsetPattern.FindSubmatch(data); m != nil {
		if enc, ok := charsets[strings.ToLower(string(m[1]))]; ok {
			decoded, err := enc.NewDecoder().Bytes(data)
			if err != nil {
				return doc, fmt.Errorf("hocr: decode %s: %w", m[1], err)
			}
			data = decoded
		}
	}

	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return doc, fmt.Errorf("hocr: parse html: %w", err)
	}

	readHead(&doc, root)

	for _, n := range collect(root, "ocr_page") {
		doc.Pages = append(doc.Pages, parsePage(n))
	}
	if len(doc.Pages) == 0 {
		return doc, ErrNoPages
	}
	return doc, nil
}

// ParseTitle splits an hOCR title attribute into its properties.
// "bbox 10 20 30 40; x_wconf 95" yields {"bbox": [10 20 30 40], "x_wconf": [95]}.
func ParseTitle(title string) map[string][]string {
	props := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = fields[1:]
	}
	return props
}

// ParseBoundingBoxFromTitle returns the bbox property of title, or nil.
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	v, ok := ParseTitle(title)["bbox"]
	if !ok || len(v) < 4 {
		return nil
	}
	var c [4]float64
	for i := range c {
		f, err := strconv.ParseFloat(v[i], 64)
		if err != nil {
			return nil
		}
		c[i] = f
	}
	b := NewBoundingBox(c[0], c[1], c[2], c[3])
	return &b
}

func readHead(doc *HOCR, root *html.Node) {
	for n := range walk(root) {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.Data {
		case "html":
			if lang := attr(n, "lang"); lang != "" {
				doc.Language = lang
			} else if lang := attr(n, "xml:lang"); lang != "" {
				doc.Language = lang
			}
		case "title":
			if n.FirstChild != nil {
				doc.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		case "meta":
			name, content := attr(n, "name"), attr(n, "content")
			switch {
			case name == "" || content == "":
			case strings.HasPrefix(name, "ocr-"):
				doc.Metadata[name] = content
			case name == "description":
				doc.Description = content
			case name == "dc.language":
				doc.Language = content
			}
		case "body":
			return
		}
	}
}

func parsePage(n *html.Node) Page {
	p := Page{ID: attr(n, "id"), Lang: attr(n, "lang"), Title: attr(n, "title"), Metadata: make(map[string]string)}
	props := ParseTitle(p.Title)
	if b := ParseBoundingBoxFromTitle(p.Title); b != nil {
		p.BBox = *b
	}
	if v := props["image"]; len(v) > 0 {
		p.ImageName = strings.Trim(strings.Join(v, " "), `"'`)
	}
	if v := props["ppageno"]; len(v) > 0 {
		p.PageNumber, _ = strconv.Atoi(v[0])
	}
	copyProps(p.Metadata, props, "bbox", "image", "ppageno")

	for _, c := range collect(n, append([]string{"ocr_carea", "ocr_par"}, lineClasses...)...) {
		switch {
		case hasClass(c, "ocr_carea"):
			p.Areas = append(p.Areas, parseArea(c))
		case hasClass(c, "ocr_par"):
			p.Paragraphs = append(p.Paragraphs, parseParagraph(c))
		default:
			p.Lines = append(p.Lines, parseLine(c))
		}
	}
	return p
}

func parseArea(n *html.Node) Area {
	a := Area{ID: attr(n, "id"), Lang: attr(n, "lang"), Metadata: make(map[string]string)}
	title := attr(n, "title")
	if b := ParseBoundingBoxFromTitle(title); b != nil {
		a.BBox = *b
	}
	copyProps(a.Metadata, ParseTitle(title), "bbox")

	for _, c := range collect(n, append([]string{"ocr_par", "ocrx_word"}, lineClasses...)...) {
		switch {
		case hasClass(c, "ocr_par"):
			a.Paragraphs = append(a.Paragraphs, parseParagraph(c))
		case hasClass(c, "ocrx_word"):
			a.Words = append(a.Words, parseWord(c))
		default:
			a.Lines = append(a.Lines, parseLine(c))
		}
	}
	return a
}

func parseParagraph(n *html.Node) Paragraph {
	p := Paragraph{ID: attr(n, "id"), Lang: attr(n, "lang"), Metadata: make(map[string]string)}
	title := attr(n, "title")
	if b := ParseBoundingBoxFromTitle(title); b != nil {
		p.BBox = *b
	}
	copyProps(p.Metadata, ParseTitle(title), "bbox")

	for _, c := range collect(n, append([]string{"ocrx_word"}, lineClasses...)...) {
		if hasClass(c, "ocrx_word") {
			p.Words = append(p.Words, parseWord(c))
		} else {
			p.Lines = append(p.Lines, parseLine(c))
		}
	}
	return p
}

func parseLine(n *html.Node) Line {
	l := Line{ID: attr(n, "id"), Lang: attr(n, "lang"), Metadata: make(map[string]string)}
	title := attr(n, "title")
	props := ParseTitle(title)
	if b := ParseBoundingBoxFromTitle(title); b != nil {
		l.BBox = *b
	}
	l.Baseline = strings.Join(props["baseline"], " ")
	copyProps(l.Metadata, props, "bbox", "baseline")

	for _, c := range collect(n, "ocrx_word") {
		l.Words = append(l.Words, parseWord(c))
	}
	return l
}

func parseWord(n *html.Node) Word {
	w := Word{ID: attr(n, "id"), Lang: attr(n, "lang"), Metadata: make(map[string]string)}
	title := attr(n, "title")
	props := ParseTitle(title)
	if b := ParseBoundingBoxFromTitle(title); b != nil {
		w.BBox = *b
	}
	if v := props["x_wconf"]; len(v) > 0 {
		w.Confidence, _ = strconv.ParseFloat(v[0], 64)
	}
	if v := props["lang"]; len(v) > 0 {
		w.Lang = v[0]
	}
	copyProps(w.Metadata, props, "bbox", "x_wconf", "lang")
	w.Text = textContent(n)
	return w
}

// collect returns the outermost descendants of n carrying any of classes.
func collect(n *html.Node, classes ...string) []*html.Node {
	var out []*html.Node
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && hasClass(c, classes...) {
				out = append(out, c)
				continue
			}
			visit(c.FirstChild)
		}
	}
	visit(n.FirstChild)
	return out
}

// walk yields n and its descendants in document order.
func walk(n *html.Node) func(yield func(*html.Node) bool) {
	return func(yield func(*html.Node) bool) {
		var visit func(*html.Node) bool
		visit = func(c *html.Node) bool {
			if !yield(c) {
				return false
			}
			for k := c.FirstChild; k != nil; k = k.NextSibling {
				if !visit(k) {
					return false
				}
			}
			return true
		}
		visit(n)
	}
}

func hasClass(n *html.Node, classes ...string) bool {
	for _, have := range strings.Fields(attr(n, "class")) {
		for _, want := range classes {
			if have == want {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func copyProps(dst map[string]string, props map[string][]string, skip ...string) {
next:
	for k, v := range props {
		for _, s := range skip {
			if k == s {
				continue next
			}
		}
		dst[k] = strings.Join(v, " ")
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := range walk(n) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}
