package pdfocr

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// normalizeCoords maps a point from a srcW×srcH space into dstW×dstH.
func normalizeCoords(x, y, srcW, srcH, dstW, dstH float64) (float64, float64) {
	return x / srcW * dstW, y / srcH * dstH
}

var pdfUnescaper = strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`)

func unescapePDFString(s string) string {
	return pdfUnescaper.Replace(s)
}

// decodeUTF16BE decodes a PDF text string that starts with a UTF-16BE BOM.
func decodeUTF16BE(b []byte) (string, error) {
	dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
