package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"sort"
	"strconv"
	"text/template"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

var hocrTemplate = template.Must(template.New("hocr.tmpl").Funcs(template.FuncMap{
	"esc":       html.EscapeString,
	"pageTitle": pageTitle,
	"lineTitle": lineTitle,
	"wordTitle": wordTitle,
	"meta":      sortedMeta,
}).ParseFS(templateFS, "templates/hocr.tmpl"))

// GenerateHOCRDocument renders doc as an XHTML hOCR document.
func GenerateHOCRDocument(doc *HOCR) (string, error) {
	var buf bytes.Buffer
	if err := hocrTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("hocr: render template: %w", err)
	}
	return buf.String(), nil
}

func pageTitle(p Page) string {
	t := ""
	if p.ImageName != "" {
		t = fmt.Sprintf("image %q; ", p.ImageName)
	}
	t += p.BBox.String()
	if p.PageNumber > 0 {
		t += "; ppageno " + strconv.Itoa(p.PageNumber)
	}
	return t
}

func lineTitle(l Line) string {
	t := l.BBox.String()
	if l.Baseline != "" {
		t += "; baseline " + l.Baseline
	}
	return t
}

func wordTitle(w Word) string {
	return fmt.Sprintf("%s; x_wconf %d", w.BBox.String(), round(w.Confidence))
}

type metaEntry struct{ Name, Content string }

func sortedMeta(m map[string]string) []metaEntry {
	out := make([]metaEntry, 0, len(m))
	for k, v := range m {
		out = append(out, metaEntry{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
