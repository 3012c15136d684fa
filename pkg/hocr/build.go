package hocr

import (
	"fmt"
	"strconv"
)

// NewDocument wraps pages in a document whose metadata names the producing
// OCR system.
func NewDocument(system string, pages ...Page) *HOCR {
	doc := &HOCR{
		Title: "OCR Results",
		Metadata: map[string]string{
			"ocr-system":          system,
			"ocr-capabilities":    "ocr_page ocr_carea ocr_par ocr_line ocrx_word",
			"ocr-number-of-pages": strconv.Itoa(len(pages)),
		},
		Pages: pages,
	}
	for _, p := range pages {
		if p.Lang != "" {
			doc.Language = p.Lang
			doc.Metadata["ocr-langs"] = p.Lang
			break
		}
	}
	return doc
}

// Words returns every word on the page in reading order.
func (p Page) Words() []Word {
	var out []Word
	addLines := func(lines []Line) {
		for _, l := range lines {
			out = append(out, l.Words...)
		}
	}
	for _, a := range p.Areas {
		for _, par := range a.Paragraphs {
			addLines(par.Lines)
			out = append(out, par.Words...)
		}
		addLines(a.Lines)
		out = append(out, a.Words...)
	}
	for _, par := range p.Paragraphs {
		addLines(par.Lines)
		out = append(out, par.Words...)
	}
	addLines(p.Lines)
	return out
}

// Scale returns a copy of doc with every page scaled by f.
func (doc *HOCR) Scale(f float64) *HOCR {
	scaled := *doc
	scaled.Pages = mapSlice(doc.Pages, func(p Page) Page { return p.Scale(f) })
	return &scaled
}

// Scale returns a copy of p with every coordinate multiplied by f, e.g.
// 72/dpi to move from rendered pixels to PDF points.
func (p Page) Scale(f float64) Page {
	p.BBox = p.BBox.Scale(f)
	p.Areas = mapSlice(p.Areas, func(a Area) Area {
		a.BBox = a.BBox.Scale(f)
		a.Paragraphs = mapSlice(a.Paragraphs, func(par Paragraph) Paragraph { return par.scale(f) })
		a.Lines = mapSlice(a.Lines, func(l Line) Line { return l.scale(f) })
		a.Words = mapSlice(a.Words, func(w Word) Word { return w.scale(f) })
		return a
	})
	p.Paragraphs = mapSlice(p.Paragraphs, func(par Paragraph) Paragraph { return par.scale(f) })
	p.Lines = mapSlice(p.Lines, func(l Line) Line { return l.scale(f) })
	return p
}

func (par Paragraph) scale(f float64) Paragraph {
	par.BBox = par.BBox.Scale(f)
	par.Lines = mapSlice(par.Lines, func(l Line) Line { return l.scale(f) })
	par.Words = mapSlice(par.Words, func(w Word) Word { return w.scale(f) })
	return par
}

func (l Line) scale(f float64) Line {
	l.BBox = l.BBox.Scale(f)
	l.Baseline = scaleBaseline(l.Baseline, f)
	l.Words = mapSlice(l.Words, func(w Word) Word { return w.scale(f) })
	return l
}

func (w Word) scale(f float64) Word {
	w.BBox = w.BBox.Scale(f)
	return w
}

// Renumber returns a copy of p as page n with element IDs rewritten to be
// unique across a merged document (page_N, block_N_i, par_N_i, line_N_i, word_N_i).
func (p Page) Renumber(n int) Page {
	var blocks, pars, lines, words int
	id := func(kind string, counter *int) string {
		*counter++
		return fmt.Sprintf("%s_%d_%d", kind, n, *counter)
	}
	word := func(w Word) Word {
		w.ID = id("word", &words)
		return w
	}
	line := func(l Line) Line {
		l.ID = id("line", &lines)
		l.Words = mapSlice(l.Words, word)
		return l
	}
	par := func(pp Paragraph) Paragraph {
		pp.ID = id("par", &pars)
		pp.Lines = mapSlice(pp.Lines, line)
		pp.Words = mapSlice(pp.Words, word)
		return pp
	}

	p.PageNumber = n
	p.ID = fmt.Sprintf("page_%d", n)
	p.Areas = mapSlice(p.Areas, func(a Area) Area {
		a.ID = id("block", &blocks)
		a.Paragraphs = mapSlice(a.Paragraphs, par)
		a.Lines = mapSlice(a.Lines, line)
		a.Words = mapSlice(a.Words, word)
		return a
	})
	p.Paragraphs = mapSlice(p.Paragraphs, par)
	p.Lines = mapSlice(p.Lines, line)
	return p
}

// mapSlice applies fn to a fresh copy of s so callers never alias the input.
func mapSlice[T any](s []T, fn func(T) T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}
