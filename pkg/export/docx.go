package export

import (
	"archive/zip"
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

var docxFuncs = template.FuncMap{
	"xml": xmlEscape,
	"cell": func(s string) string {
		parts := strings.Split(s, "\n")
		for i, p := range parts {
			parts[i] = `<w:t xml:space="preserve">` + xmlEscape(p) + `</w:t>`
		}
		return strings.Join(parts, "<w:br/>")
	},
	"heading": func(level int, text string) docxHeading {
		return docxHeading{Level: level, Text: text}
	},
}

var (
	documentTemplate = template.Must(template.New("document.xml.tmpl").Funcs(docxFuncs).ParseFS(templateFS, "templates/document.xml.tmpl"))
	coreTemplate     = template.Must(template.New("core.xml.tmpl").Funcs(docxFuncs).ParseFS(templateFS, "templates/core.xml.tmpl"))
)

type docxHeading struct {
	Level int
	Text  string
}

type docxTable struct {
	Label string
	Cols  []int
	Rows  [][]string
}

type docxBody struct {
	Lines  []string
	Tables []docxTable
}

// WriteDocx writes a Word document: an "Extracted Text" section with one
// paragraph per line, then an "Extracted Tables" section holding each table
// under its own heading. The first detected row is the table's header row.
func WriteDocx(path string, doc Document) error {
	body := docxBody{Lines: lines(doc.Text)}
	for _, t := range doc.Tables {
		dt := docxTable{Label: t.Label, Rows: t.Grid}
		for c := 0; c < t.Grid.Cols(); c++ {
			dt.Cols = append(dt.Cols, c)
		}
		body.Tables = append(body.Tables, dt)
	}

	var document, core bytes.Buffer
	if err := documentTemplate.Execute(&document, body); err != nil {
		return fmt.Errorf("render document.xml: %w", err)
	}
	title := strings.TrimSuffix(filepath.Base(doc.Source), filepath.Ext(doc.Source))
	coreData := struct{ Title, Created string }{title, time.Now().UTC().Format(time.RFC3339)}
	if err := coreTemplate.Execute(&core, coreData); err != nil {
		return fmt.Errorf("render core.xml: %w", err)
	}

	parts := []struct {
		name string
		data func() ([]byte, error)
	}{
		{"[Content_Types].xml", static("templates/content_types.xml")},
		{"_rels/.rels", static("templates/rels.xml")},
		{"docProps/core.xml", func() ([]byte, error) { return core.Bytes(), nil }},
		{"word/_rels/document.xml.rels", static("templates/document_rels.xml")},
		{"word/styles.xml", static("templates/styles.xml")},
		{"word/document.xml", func() ([]byte, error) { return document.Bytes(), nil }},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		data, err := p.data()
		if err != nil {
			return err
		}
		w, err := zw.Create(p.name)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func static(name string) func() ([]byte, error) {
	return func() ([]byte, error) { return templateFS.ReadFile(name) }
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
