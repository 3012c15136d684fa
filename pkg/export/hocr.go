package export

import (
	"fmt"
	"os"

	"github.com/gardar/gridocr/pkg/hocr"
)

// WriteHOCR writes the combined hOCR document of all processed pages.
func WriteHOCR(path string, doc Document) error {
	if doc.HOCR == nil {
		return fmt.Errorf("%w: no hOCR recorded", ErrMissingData)
	}
	out, err := hocr.GenerateHOCRDocument(doc.HOCR)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0o644)
}
