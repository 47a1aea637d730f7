package ingest

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxTitleLength is the longest line, in runes, accepted as a guessed title.
const MaxTitleLength = 140

var blankRun = regexp.MustCompile(`\n{3,}`)

// Normalize prepares extracted text for storage: Unicode NFC, LF line endings, at most one
// blank line in a row, and every line trimmed. Line structure is kept because sentence
// splitting treats blank lines as paragraph breaks.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(ln)
	}
	text = blankRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

// GuessTitle returns the first non-empty line of text that is at most MaxTitleLength runes and
// has at least three letters or digits, falling back to the file name without extension.
func GuessTitle(path, text string) string {
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" || utf8.RuneCountInString(s) > MaxTitleLength {
			continue
		}
		alnum := 0
		for _, r := range s {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				alnum++
			}
		}
		if alnum >= 3 {
			return s
		}
	}
	base := filepath.Base(path)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return base
}

// searchableTitle replaces underscores with spaces so the standard analyzer splits
// file-stem titles like "annual_report_2021" into words.
func searchableTitle(title string) string {
	return strings.ReplaceAll(title, "_", " ")
}
