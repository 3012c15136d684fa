package export

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gardar/gridocr/pkg/table"
)

func TestSummarize(t *testing.T) {
	text := "Invoice 1042 total 12.50\nContact: billing@acme.example or (555) 123-4567\nFax 555-987-6543 ✓"
	got := Summarize(text)

	if got.Words != 12 {
		t.Errorf("Words = %d, want 12", got.Words)
	}
	if got.Characters != len([]rune(text)) {
		t.Errorf("Characters = %d, want %d", got.Characters, len([]rune(text)))
	}
	wantNumbers := []string{"1042", "12.50", "555", "123", "4567", "555", "987", "6543"}
	if !reflect.DeepEqual(got.Numbers, wantNumbers) {
		t.Errorf("Numbers = %q, want %q", got.Numbers, wantNumbers)
	}
	if !reflect.DeepEqual(got.Emails, []string{"billing@acme.example"}) {
		t.Errorf("Emails = %q", got.Emails)
	}
	if !reflect.DeepEqual(got.Phones, []string{"(555) 123-4567", "555-987-6543"}) {
		t.Errorf("Phones = %q", got.Phones)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize("")
	if got.Words != 0 || got.Characters != 0 {
		t.Errorf("counts = %d words, %d chars", got.Words, got.Characters)
	}
	if got.Numbers == nil || got.Emails == nil || got.Phones == nil {
		t.Error("match lists should be empty, not nil")
	}
}

func reportEntries() []ReportEntry {
	at := time.Date(2025, 3, 4, 15, 16, 17, 0, time.UTC)
	a := NewReportEntry(Document{
		Source:      "/scans/a.png",
		Range:       "All",
		Text:        "Order 7\n\nmail: ops@acme.example",
		Tables:      []table.Table{{Label: "Table 1"}},
		ProcessedAt: at,
	})
	b := NewReportEntry(Document{Source: "/scans/b.pdf", Range: "1-2", Text: "Call 555-123-4567", ProcessedAt: at.Add(time.Minute)})
	return []ReportEntry{a, b}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.txt")
	if err := WriteReportFile(path, reportEntries()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	rule := strings.Repeat("=", 50)
	want := "IMAGE TEXT EXTRACTION RESULTS\n" + rule + "\n\n" +
		"Image: a.png\nProcessed: 2025-03-04 15:16:17\nPages: All\nTables: 1\nWord Count: 4\nCharacter Count: 31\n" +
		strings.Repeat("-", 30) + "\nEXTRACTED TEXT:\nOrder 7\n\nmail: ops@acme.example\n\n" + rule + "\n\n" +
		"Image: b.pdf\nProcessed: 2025-03-04 15:17:17\nPages: 1-2\nTables: 0\nWord Count: 2\nCharacter Count: 17\n" +
		strings.Repeat("-", 30) + "\nEXTRACTED TEXT:\nCall 555-123-4567\n\n" + rule + "\n\n"
	if got != want {
		t.Errorf("report =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteReportExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xlsx")
	if err := WriteReportFile(path, reportEntries()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"Extracted Data"}) {
		t.Fatalf("sheets = %v", got)
	}
	rows, err := f.GetRows("Extracted Data")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus one per file", len(rows))
	}
	if !reflect.DeepEqual(rows[0], reportColumns) {
		t.Errorf("header = %q", rows[0])
	}

	a := rows[1]
	for len(a) < len(reportColumns) {
		a = append(a, "")
	}
	want := []string{
		"a.png", "/scans/a.png", "2025-03-04 15:16:17", "4", "31",
		"Order 7\n\nmail: ops@acme.example", "Order 7\nmail: ops@acme.example", "7", "ops@acme.example", "",
	}
	if !reflect.DeepEqual(a, want) {
		t.Errorf("row a = %q\nwant %q", a, want)
	}
	if rows[2][0] != "b.pdf" || rows[2][9] != "555-123-4567" {
		t.Errorf("row b = %q", rows[2])
	}
}

func TestWriteFormatReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan"+FormatReport.Ext())
	doc := sampleDocument()
	if err := Write(path, FormatReport, doc); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Image: invoice.pdf\n", "Tables: 2\n", "Word Count: 6\n", "Invoice <42> & Co"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("report missing %q", want)
		}
	}
}
