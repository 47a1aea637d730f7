package tokenizer

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "also", "an", "and", "any", "are",
		"as", "at", "be", "been", "before", "being", "below", "between", "both", "but", "by", "can",
		"could", "did", "do", "does", "doing", "don", "down", "during", "each", "else", "few", "for",
		"from", "further", "had", "has", "have", "having", "he", "her", "here", "hers", "him", "his",
		"how", "i", "if", "in", "into", "is", "it", "its", "just", "me", "more", "most", "my", "no",
		"nor", "not", "now", "of", "off", "on", "once", "only", "or", "other", "our", "ours", "out",
		"over", "own", "same", "she", "should", "so", "some", "such", "than", "that", "the", "their",
		"theirs", "them", "then", "there", "these", "they", "this", "those", "through", "to", "too",
		"under", "until", "up", "very", "was", "we", "were", "what", "when", "where", "which", "while",
		"who", "whom", "why", "will", "with", "would", "you", "your", "yours",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopword reports whether the lowercased term is in the fixed stopword set.
func IsStopword(term string) bool {
	_, ok := stopwords[term]
	return ok
}
