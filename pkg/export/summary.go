package export

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern  = regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b|\(\d{3}\)\s*\d{3}-\d{4}\b`)
)

// Summary holds counts and common patterns found in extracted text.
type Summary struct {
	Words      int      `json:"word_count"`
	Characters int      `json:"char_count"`
	Numbers    []string `json:"numbers"`
	Emails     []string `json:"emails"`
	Phones     []string `json:"phone_numbers"`
}

// Summarize counts the words and characters of text and collects the
// numbers, email addresses and phone numbers in it, in order of appearance.
// Phone numbers are matched in the North American 555-123-4567 and
// (555) 123-4567 forms.
func Summarize(text string) Summary {
	return Summary{
		Words:      len(strings.Fields(text)),
		Characters: utf8.RuneCountInString(text),
		Numbers:    findAll(numberPattern, text),
		Emails:     findAll(emailPattern, text),
		Phones:     findAll(phonePattern, text),
	}
}

// findAll never returns nil so empty matches encode as [] in JSON.
func findAll(re *regexp.Regexp, text string) []string {
	m := re.FindAllString(text, -1)
	if m == nil {
		return []string{}
	}
	return m
}
