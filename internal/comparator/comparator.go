// Package comparator compares two documents by their term-weight vectors.
package comparator

import (
	"math"
	"sort"

	"github.com/hyperjump/paperbox/internal/corpus"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/termweight"
)

// Similarity returns the cosine similarity of a and b in [0,1]. Sums run over sorted terms so
// the result is bit-for-bit reproducible and Similarity(a, b) == Similarity(b, a).
// An empty vector on either side gives 0.
func Similarity(a, b termweight.Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot float64
	for _, term := range a.Terms() {
		if w, ok := b[term]; ok {
			dot += a[term] * w
		}
	}
	denom := math.Sqrt(sumSquares(a) * sumSquares(b))
	if denom == 0 || dot <= 0 {
		return 0
	}
	sim := dot / denom
	if sim > 1 {
		return 1
	}
	return sim
}

func sumSquares(v termweight.Vector) float64 {
	var s float64
	for _, term := range v.Terms() {
		s += v[term] * v[term]
	}
	return s
}

// Compare reports the similarity of docA and docB together with their top shared terms
// (ranked by weightA+weightB) and the top terms unique to each side (ranked by own weight).
// Ties rank lexicographically by term. topTerms <= 0 or comparing a document with itself
// fails with InvalidArgument.
func Compare(docA, docB *corpus.Document, model *termweight.Model, topTerms int) (*models.Comparison, error) {
	if topTerms <= 0 {
		return nil, models.InvalidArgumentf("compare", "top terms must be positive, got %d", topTerms)
	}
	if docA == nil || docB == nil {
		return nil, models.InvalidArgumentf("compare", "two documents are required")
	}
	if docA.ID == docB.ID {
		return nil, models.InvalidArgumentf("compare", "cannot compare document %d with itself", docA.ID)
	}
	va, err := model.Weights(docA)
	if err != nil {
		return nil, err
	}
	vb, err := model.Weights(docB)
	if err != nil {
		return nil, err
	}

	result := &models.Comparison{
		DocumentA:  docA.ID,
		DocumentB:  docB.ID,
		Similarity: Similarity(va, vb),
		Shared:     []models.SharedTerm{},
		UniqueA:    []models.TermScore{},
		UniqueB:    []models.TermScore{},
	}
	for term, wa := range va {
		if wa == 0 {
			continue
		}
		if wb := vb[term]; wb != 0 {
			result.Shared = append(result.Shared, models.SharedTerm{Term: term, ScoreA: wa, ScoreB: wb})
		} else {
			result.UniqueA = append(result.UniqueA, models.TermScore{Term: term, Score: wa})
		}
	}
	for term, wb := range vb {
		if wb != 0 && va[term] == 0 {
			result.UniqueB = append(result.UniqueB, models.TermScore{Term: term, Score: wb})
		}
	}

	sort.Slice(result.Shared, func(i, j int) bool {
		si := result.Shared[i].ScoreA + result.Shared[i].ScoreB
		sj := result.Shared[j].ScoreA + result.Shared[j].ScoreB
		if si != sj {
			return si > sj
		}
		return result.Shared[i].Term < result.Shared[j].Term
	})
	rankTermScores(result.UniqueA)
	rankTermScores(result.UniqueB)

	if len(result.Shared) > topTerms {
		result.Shared = result.Shared[:topTerms]
	}
	if len(result.UniqueA) > topTerms {
		result.UniqueA = result.UniqueA[:topTerms]
	}
	if len(result.UniqueB) > topTerms {
		result.UniqueB = result.UniqueB[:topTerms]
	}
	return result, nil
}

func rankTermScores(ts []models.TermScore) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Score != ts[j].Score {
			return ts[i].Score > ts[j].Score
		}
		return ts[i].Term < ts[j].Term
	})
}
