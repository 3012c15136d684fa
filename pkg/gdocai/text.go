package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// textFromLayout extracts text from a layout's text anchor segments.
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	segs := layout.GetTextAnchor().GetTextSegments()
	if len(segs) == 0 {
		return ""
	}
	runes := []rune(fullText)
	var b strings.Builder
	for _, seg := range segs {
		start := clamp(int(seg.GetStartIndex()), 0, len(runes))
		end := clamp(int(seg.GetEndIndex()), start, len(runes))
		b.WriteString(string(runes[start:end]))
	}
	return b.String()
}

// span returns the first text segment of layout.
func span(layout *documentaipb.Document_Page_Layout) (start, end int64, ok bool) {
	segs := layout.GetTextAnchor().GetTextSegments()
	if len(segs) == 0 {
		return 0, 0, false
	}
	return segs[0].GetStartIndex(), segs[0].GetEndIndex(), true
}

// within reports whether child's text lies inside parent's.
func within(child, parent *documentaipb.Document_Page_Layout) bool {
	cs, ce, ok := span(child)
	if !ok {
		return false
	}
	ps, pe, ok := span(parent)
	if !ok {
		return false
	}
	return cs >= ps && ce <= pe
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
