package hocr

import "strings"

// Text returns the page's words, one recognised line per output line.
func (p Page) Text() string {
	var b strings.Builder
	for _, a := range p.Areas {
		for _, par := range a.Paragraphs {
			writeParagraph(&b, par)
		}
		writeLines(&b, a.Lines)
		writeWords(&b, a.Words)
	}
	for _, par := range p.Paragraphs {
		writeParagraph(&b, par)
	}
	writeLines(&b, p.Lines)
	return strings.TrimRight(b.String(), "\n")
}

// ExtractHOCRText returns the text of every page, pages separated by a blank line.
func ExtractHOCRText(doc *HOCR) string {
	pages := make([]string, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		pages = append(pages, p.Text())
	}
	return strings.Join(pages, "\n\n")
}

func writeParagraph(b *strings.Builder, par Paragraph) {
	writeLines(b, par.Lines)
	writeWords(b, par.Words)
}

func writeLines(b *strings.Builder, lines []Line) {
	for _, l := range lines {
		writeWords(b, l.Words)
	}
}

func writeWords(b *strings.Builder, words []Word) {
	if len(words) == 0 {
		return
	}
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
	}
	b.WriteByte('\n')
}
