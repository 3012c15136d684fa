// Package hocr models hOCR, the HTML format OCR engines use to report
// recognised text together with its position on the page.
//
// The object model follows the hOCR hierarchy:
//
//	HOCR → Page (ocr_page) → Area (ocr_carea) → Paragraph (ocr_par) → Line (ocr_line) → Word (ocrx_word)
//
// Pages produced by different engines, or by separate runs over single page
// images, can be rescaled and renumbered before being merged into one document
// with NewDocument.
package hocr
