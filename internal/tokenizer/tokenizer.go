// Package tokenizer splits normalized text into sentences and weighted terms.
// Every function is pure: the same text always yields the same output.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
)

// MinTermLength is the minimum number of runes a term must have to be kept.
const MinTermLength = 2

// termPattern matches a letter or digit followed by letters, digits and combining marks, so
// words in scripts that write vowels as marks (Devanagari, Thai) stay whole.
var termPattern = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{M}\p{N}]*`)

// Tokenize returns the sentences of text in original order and the raw count of each term.
// Empty or whitespace-only text yields no sentences and an empty term map.
func Tokenize(text string) (sentences []string, terms map[string]int) {
	return SplitSentences(text), Terms(text)
}

// Terms returns the raw occurrence count of every kept term in text.
func Terms(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range TermTokens(text) {
		counts[tok]++
	}
	return counts
}

// TermTokens returns the kept terms of text in order of appearance, repeats included.
// Terms are lowercased maximal runs of letters, digits and combining marks that start with a
// letter or digit; stopwords and runs shorter than MinTermLength runes are dropped.
func TermTokens(text string) []string {
	raw := termPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len([]rune(tok)) < MinTermLength || IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// SplitSentences segments text into trimmed sentences with internal whitespace collapsed.
//
// A sentence ends at '.', '!' or '?' (plus any trailing terminal punctuation and closing
// quotes or brackets) when followed by whitespace or the end of text, at a CJK terminal
// ('。', '！', '？') wherever it appears, and at a paragraph break (two line breaks separated
// only by spaces or tabs). Single line breaks are ordinary whitespace.
func SplitSentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	var out []string
	emit := func(from, to int) {
		s := strings.Join(strings.Fields(string(runes[from:to])), " ")
		if s != "" {
			out = append(out, s)
		}
	}
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case isCJKTerminal(r):
			end := skipClosers(runes, i+1)
			emit(start, end)
			start = end
			i = end - 1
		case isTerminal(r):
			end := i + 1
			for end < len(runes) && isTerminal(runes[end]) {
				end++
			}
			end = skipClosers(runes, end)
			if end == len(runes) || unicode.IsSpace(runes[end]) {
				emit(start, end)
				start = end
			}
			i = end - 1
		case r == '\n':
			if next, ok := paragraphBreak(runes, i); ok {
				emit(start, i)
				start = next
				i = next - 1
			}
		}
	}
	if start < len(runes) {
		emit(start, len(runes))
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCJKTerminal(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '」', '』', '）':
		return true
	}
	return false
}

func skipClosers(runes []rune, i int) int {
	for i < len(runes) && isCloser(runes[i]) {
		i++
	}
	return i
}

// paragraphBreak reports whether the line break at i is followed by another line break
// with only horizontal whitespace in between, and returns the index after it.
func paragraphBreak(runes []rune, i int) (int, bool) {
	for j := i + 1; j < len(runes); j++ {
		switch runes[j] {
		case '\n':
			return j + 1, true
		case ' ', '\t', '\r':
			continue
		default:
			return 0, false
		}
	}
	return 0, false
}
