// Package summarizer selects the most informative sentences of a document.
package summarizer

import (
	"math"
	"sort"

	"github.com/hyperjump/paperbox/internal/corpus"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/termweight"
	"github.com/hyperjump/paperbox/internal/tokenizer"
)

// Summarize picks up to sentenceCount sentences of doc. Weights come from model, i.e. from the
// full corpus doc belongs to, so importance is corpus-relative. Selected sentences keep their
// original order. sentenceCount <= 0 fails with InvalidArgument; a document without sentences
// yields an empty summary.
func Summarize(doc *corpus.Document, model *termweight.Model, sentenceCount int) (*models.Summary, error) {
	if sentenceCount <= 0 {
		return nil, models.InvalidArgumentf("summarize", "sentence count must be positive, got %d", sentenceCount)
	}
	weights, err := model.Weights(doc)
	if err != nil {
		return nil, err
	}
	summary := &models.Summary{DocumentID: doc.ID, Sentences: []models.ScoredSentence{}}
	if len(doc.Sentences) == 0 {
		return summary, nil
	}

	scored := make([]models.ScoredSentence, len(doc.Sentences))
	for i, s := range doc.Sentences {
		scored[i] = models.ScoredSentence{Index: i, Sentence: s, Score: ScoreSentence(s, weights)}
	}
	if sentenceCount < len(scored) {
		ranked := make([]models.ScoredSentence, len(scored))
		copy(ranked, scored)
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Score != ranked[j].Score {
				return ranked[i].Score > ranked[j].Score
			}
			return ranked[i].Index < ranked[j].Index
		})
		scored = ranked[:sentenceCount]
		sort.Slice(scored, func(i, j int) bool { return scored[i].Index < scored[j].Index })
	}
	summary.Sentences = scored
	return summary, nil
}

// ScoreSentence sums the weights of the sentence's distinct terms and divides by
// 1 + ln(token count). A sentence with no terms scores 0.
func ScoreSentence(sentence string, weights termweight.Vector) float64 {
	tokens := tokenizer.TermTokens(sentence)
	if len(tokens) == 0 {
		return 0
	}
	distinct := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		distinct = append(distinct, tok)
	}
	sort.Strings(distinct)
	sum := 0.0
	for _, tok := range distinct {
		sum += weights[tok]
	}
	return sum / (1 + math.Log(float64(len(tokens))))
}
