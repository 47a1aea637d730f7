package keyword

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Suggester proposes corrected queries from the terms of a TermDictionary.
type Suggester struct {
	dict        TermDictionary
	maxDistance int
	minLength   int
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithMaxDistance sets the maximum edit distance of a suggestion.
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// NewSuggester creates a Suggester over dict.
func NewSuggester(dict TermDictionary, opts ...SuggesterOption) *Suggester {
	s := &Suggester{dict: dict, maxDistance: 2, minLength: 3}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest returns query with every unknown term replaced by its closest indexed term, or ""
// when nothing needs correcting. Closest means fewest edits, then most documents, then
// lexicographic. Terms shorter than three runes are left alone, and terms of up to four runes
// allow a single edit.
func (s *Suggester) Suggest(query string) (string, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return "", nil
	}
	dict, err := s.dict.Terms()
	if err != nil {
		return "", err
	}
	candidates := make([]string, 0, len(dict))
	for t := range dict {
		candidates = append(candidates, t)
	}
	sort.Strings(candidates)

	changed := false
	out := make([]string, len(terms))
	for i, term := range terms {
		out[i] = term
		if _, ok := dict[term]; ok || utf8.RuneCountInString(term) < s.minLength {
			continue
		}
		limit := s.maxDistance
		if utf8.RuneCountInString(term) <= 4 && limit > 1 {
			limit = 1
		}
		best, bestDist, bestFreq := "", limit+1, 0
		for _, c := range candidates {
			d := levenshtein(term, c)
			if d > limit {
				continue
			}
			if d < bestDist || (d == bestDist && dict[c] > bestFreq) {
				best, bestDist, bestFreq = c, d, dict[c]
			}
		}
		if best != "" {
			out[i] = best
			changed = true
		}
	}
	if !changed {
		return "", nil
	}
	return strings.Join(out, " "), nil
}

// levenshtein returns the edit distance between a and b, counted in runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
