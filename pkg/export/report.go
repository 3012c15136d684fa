package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	reportTitle = "IMAGE TEXT EXTRACTION RESULTS"
	reportSheet = "Extracted Data"
	reportTime  = "2006-01-02 15:04:05"
)

var reportColumns = []string{
	"Image Name", "Image Path", "Processed At", "Word Count", "Character Count",
	"Full Text", "Text Lines", "Numbers Found", "Emails Found", "Phone Numbers",
}

// ReportEntry is one processed input in a report.
type ReportEntry struct {
	Name        string
	Path        string
	ProcessedAt time.Time
	Pages       string
	Tables      int
	Text        string
	Summary     Summary
}

// NewReportEntry summarises doc for a report.
func NewReportEntry(doc Document) ReportEntry {
	return ReportEntry{
		Name:        filepath.Base(doc.Source),
		Path:        doc.Source,
		ProcessedAt: doc.ProcessedAt,
		Pages:       doc.Range,
		Tables:      len(doc.Tables),
		Text:        doc.Text,
		Summary:     Summarize(doc.Text),
	}
}

// WriteReport writes a text report with one section per entry.
func WriteReport(path string, entries []ReportEntry) error {
	rule := strings.Repeat("=", 50)
	var b strings.Builder
	b.WriteString(reportTitle + "\n")
	b.WriteString(rule + "\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "Image: %s\n", e.Name)
		fmt.Fprintf(&b, "Processed: %s\n", e.ProcessedAt.Format(reportTime))
		fmt.Fprintf(&b, "Pages: %s\n", e.Pages)
		fmt.Fprintf(&b, "Tables: %d\n", e.Tables)
		fmt.Fprintf(&b, "Word Count: %d\n", e.Summary.Words)
		fmt.Fprintf(&b, "Character Count: %d\n", e.Summary.Characters)
		b.WriteString(strings.Repeat("-", 30) + "\n")
		b.WriteString("EXTRACTED TEXT:\n")
		b.WriteString(e.Text)
		b.WriteString("\n\n" + rule + "\n\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// WriteReportExcel writes an "Extracted Data" sheet with a header row and
// one row per entry.
func WriteReportExcel(path string, entries []ReportEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	rows := [][]string{reportColumns}
	for _, e := range entries {
		var nonBlank []string
		for _, l := range lines(e.Text) {
			if strings.TrimSpace(l) != "" {
				nonBlank = append(nonBlank, strings.TrimSpace(l))
			}
		}
		rows = append(rows, []string{
			e.Name,
			e.Path,
			e.ProcessedAt.Format(reportTime),
			strconv.Itoa(e.Summary.Words),
			strconv.Itoa(e.Summary.Characters),
			e.Text,
			strings.Join(nonBlank, "\n"),
			strings.Join(e.Summary.Numbers, ", "),
			strings.Join(e.Summary.Emails, ", "),
			strings.Join(e.Summary.Phones, ", "),
		})
	}
	if err := writeRows(f, reportSheet, rows); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(reportColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, "A1", last, bold); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// WriteReportFile picks the report layout from the extension of path:
// .xlsx gets a spreadsheet, anything else the text report.
func WriteReportFile(path string, entries []ReportEntry) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return WriteReportExcel(path, entries)
	}
	return WriteReport(path, entries)
}
