package raster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPageRange is returned for malformed or out-of-bounds page ranges.
var ErrInvalidPageRange = errors.New("raster: invalid page range")

// PageRange selects pages of a document, 1-based and inclusive.
type PageRange struct {
	All   bool
	First int
	Last  int
}

// AllPages selects every page.
var AllPages = PageRange{All: true}

// ParsePageRange accepts "All", "N" or "A-B".
func ParsePageRange(s string) (PageRange, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllPages, nil
	}

	first, last := s, s
	if i := strings.Index(s, "-"); i >= 0 {
		first, last = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	a, err := strconv.Atoi(first)
	if err != nil {
		return PageRange{}, fmt.Errorf("%w: %q", ErrInvalidPageRange, s)
	}
	b, err := strconv.Atoi(last)
	if err != nil {
		return PageRange{}, fmt.Errorf("%w: %q", ErrInvalidPageRange, s)
	}
	if a < 1 || b < a {
		return PageRange{}, fmt.Errorf("%w: %q", ErrInvalidPageRange, s)
	}
	return PageRange{First: a, Last: b}, nil
}

// Resolve pins an All range to the document and checks bounds.
func (r PageRange) Resolve(pageCount int) (PageRange, error) {
	if pageCount < 1 {
		return PageRange{}, fmt.Errorf("%w: document has no pages", ErrInvalidPageRange)
	}
	if r.All {
		return PageRange{First: 1, Last: pageCount}, nil
	}
	if r.First < 1 || r.Last < r.First || r.Last > pageCount {
		return PageRange{}, fmt.Errorf("%w: %s not within 1-%d", ErrInvalidPageRange, r, pageCount)
	}
	return r, nil
}

// Len returns the number of pages in a resolved range.
func (r PageRange) Len() int {
	if r.All {
		return 0
	}
	return r.Last - r.First + 1
}

// Pages lists the page numbers of a resolved range.
func (r PageRange) Pages() []int {
	pages := make([]int, 0, r.Len())
	for p := r.First; p <= r.Last && !r.All; p++ {
		pages = append(pages, p)
	}
	return pages
}

func (r PageRange) String() string {
	switch {
	case r.All:
		return "All"
	case r.First == r.Last:
		return strconv.Itoa(r.First)
	default:
		return fmt.Sprintf("%d-%d", r.First, r.Last)
	}
}

// Slug is the range as used in output file names: "all", "3" or "1_5".
func (r PageRange) Slug() string {
	if r.All {
		return "all"
	}
	return strings.ReplaceAll(r.String(), "-", "_")
}

// PageRanges returns the selectable ranges for a document: "All" followed by
// consecutive batches whose size grows with the page count.
func PageRanges(pageCount int) []string {
	ranges := []string{"All"}
	if pageCount <= 1 {
		return ranges
	}

	batch := 50
	switch {
	case pageCount <= 20:
		batch = 5
	case pageCount <= 100:
		batch = 20
	}
	for start := 1; start <= pageCount; start += batch {
		end := start + batch - 1
		if end > pageCount {
			end = pageCount
		}
		ranges = append(ranges, fmt.Sprintf("%d-%d", start, end))
	}
	return ranges
}
