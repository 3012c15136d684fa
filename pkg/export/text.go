package export

import "os"

// WriteText writes the whole-page text as UTF-8. Table structure is dropped.
func WriteText(path string, doc Document) error {
	return os.WriteFile(path, []byte(doc.Text), 0o644)
}
