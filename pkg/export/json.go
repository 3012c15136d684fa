package export

import (
	"encoding/json"
	"os"
)

type jsonTable struct {
	Label string     `json:"label"`
	Page  int        `json:"page"`
	Rows  [][]string `json:"rows"`
}

type jsonDocument struct {
	Source  string      `json:"source"`
	Range   string      `json:"range"`
	Text    string      `json:"text"`
	Summary Summary     `json:"summary"`
	Tables  []jsonTable `json:"tables"`
}

// WriteJSON writes the text, its summary and the tables as indented JSON.
func WriteJSON(path string, doc Document) error {
	out := jsonDocument{
		Source:  doc.Source,
		Range:   doc.Range,
		Text:    doc.Text,
		Summary: Summarize(doc.Text),
		Tables:  []jsonTable{},
	}
	for _, t := range doc.Tables {
		rows := t.Grid
		if rows == nil {
			rows = [][]string{}
		}
		out.Tables = append(out.Tables, jsonTable{Label: t.Label, Page: t.Page, Rows: rows})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
