// Package termweight builds the TF-IDF term-weight model over one corpus snapshot.
package termweight

import (
	"math"
	"sort"

	"github.com/hyperjump/paperbox/internal/corpus"
	"github.com/hyperjump/paperbox/internal/models"
)

// Vector is a sparse term -> weight mapping. Terms a document does not contain are absent.
type Vector map[string]float64

// Terms returns the vector's terms in lexicographic order.
func (v Vector) Terms() []string {
	terms := make([]string, 0, len(v))
	for t := range v {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Model holds document frequencies and the document count of exactly one corpus.
// It is read-only after Build and safe to share between goroutines.
type Model struct {
	corpus *corpus.Corpus
	df     map[string]int
	n      int
}

// Build counts, for every term, the documents of c that contain it.
func Build(c *corpus.Corpus) *Model {
	df := make(map[string]int)
	for _, d := range c.Documents() {
		for term, count := range d.Terms {
			if count > 0 {
				df[term]++
			}
		}
	}
	return &Model{corpus: c, df: df, n: c.Len()}
}

// Corpus returns the snapshot the model was built from.
func (m *Model) Corpus() *corpus.Corpus {
	return m.corpus
}

// DocumentCount returns N, the number of documents in the corpus.
func (m *Model) DocumentCount() int {
	return m.n
}

// DocumentFrequency returns the number of documents containing term.
func (m *Model) DocumentFrequency(term string) int {
	return m.df[term]
}

// VocabularySize returns the number of distinct terms across the corpus.
func (m *Model) VocabularySize() int {
	return len(m.df)
}

// IDF returns log((1+N)/(1+df)) + 1.
func (m *Model) IDF(term string) float64 {
	return math.Log(float64(1+m.n)/float64(1+m.df[term])) + 1
}

// Weights computes doc's TF-IDF vector, with TF = count / total terms in doc.
// It is recomputed on every call. A document with no terms yields an empty vector.
// A document that is not part of the model's corpus snapshot fails with NotFound.
func (m *Model) Weights(doc *corpus.Document) (Vector, error) {
	if !m.corpus.Contains(doc) {
		id := int64(0)
		if doc != nil {
			id = doc.ID
		}
		return nil, models.NotFoundf("weights", "document %d is not part of this corpus snapshot", id)
	}
	v := make(Vector, len(doc.Terms))
	if doc.TermTotal == 0 {
		return v, nil
	}
	total := float64(doc.TermTotal)
	for term, count := range doc.Terms {
		if count <= 0 {
			continue
		}
		v[term] = float64(count) / total * m.IDF(term)
	}
	return v, nil
}
