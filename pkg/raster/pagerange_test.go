package raster

import (
	"errors"
	"reflect"
	"testing"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		in      string
		want    PageRange
		wantErr bool
	}{
		{"", AllPages, false},
		{"All", AllPages, false},
		{"all", AllPages, false},
		{"3", PageRange{First: 3, Last: 3}, false},
		{"1-5", PageRange{First: 1, Last: 5}, false},
		{" 2 - 4 ", PageRange{First: 2, Last: 4}, false},
		{"5-1", PageRange{}, true},
		{"0", PageRange{}, true},
		{"a-b", PageRange{}, true},
		{"1-", PageRange{}, true},
	}

	for _, tt := range tests {
		got, err := ParsePageRange(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPageRange) {
				t.Errorf("ParsePageRange(%q) error = %v, want ErrInvalidPageRange", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePageRange(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePageRange(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestPageRangeStringAndSlug(t *testing.T) {
	tests := []struct {
		r         PageRange
		str, slug string
	}{
		{AllPages, "All", "all"},
		{PageRange{First: 3, Last: 3}, "3", "3"},
		{PageRange{First: 1, Last: 2}, "1-2", "1_2"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
		if got := tt.r.Slug(); got != tt.slug {
			t.Errorf("Slug() = %q, want %q", got, tt.slug)
		}
	}
}

func TestPageRangeResolve(t *testing.T) {
	got, err := AllPages.Resolve(7)
	if err != nil {
		t.Fatal(err)
	}
	if got.First != 1 || got.Last != 7 || got.Len() != 7 {
		t.Errorf("Resolve(7) = %+v", got)
	}
	if !reflect.DeepEqual(got.Pages(), []int{1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("Pages() = %v", got.Pages())
	}

	if _, err := (PageRange{First: 5, Last: 9}).Resolve(7); !errors.Is(err, ErrInvalidPageRange) {
		t.Errorf("out of bounds range: err = %v", err)
	}
	if _, err := AllPages.Resolve(0); !errors.Is(err, ErrInvalidPageRange) {
		t.Errorf("empty document: err = %v", err)
	}
}

func TestPageRanges(t *testing.T) {
	tests := []struct {
		count int
		want  []string
	}{
		{1, []string{"All"}},
		{12, []string{"All", "1-5", "6-10", "11-12"}},
		{45, []string{"All", "1-20", "21-40", "41-45"}},
		{120, []string{"All", "1-50", "51-100", "101-120"}},
	}
	for _, tt := range tests {
		if got := PageRanges(tt.count); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PageRanges(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}
