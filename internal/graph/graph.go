// Package graph builds the pairwise similarity graph of a corpus.
package graph

import (
	"math"

	"github.com/hyperjump/paperbox/internal/comparator"
	"github.com/hyperjump/paperbox/internal/corpus"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/termweight"
)

// Labeler returns the display label for a document node.
type Labeler func(doc *corpus.Document) string

// TitleLabel labels nodes as "id: title".
func TitleLabel(doc *corpus.Document) string {
	return (&models.Document{ID: doc.ID, Title: doc.Title}).Label()
}

// Build evaluates every unordered document pair of c and keeps an edge when its similarity is
// at least threshold. This is O(D²) in the document count.
func Build(c *corpus.Corpus, model *termweight.Model, threshold float64, label Labeler) (*models.Graph, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, models.InvalidArgumentf("graph", "threshold must be within [0,1], got %v", threshold)
	}
	if label == nil {
		return nil, models.InvalidArgumentf("graph", "a node labeler is required")
	}
	if c == nil || model == nil || model.Corpus() != c {
		return nil, models.InvalidArgumentf("graph", "model was not built from this corpus")
	}

	docs := c.Documents()
	g := &models.Graph{
		Threshold: threshold,
		Nodes:     make([]models.GraphNode, 0, len(docs)),
		Edges:     []models.GraphEdge{},
	}
	vectors := make([]termweight.Vector, len(docs))
	for i, doc := range docs {
		v, err := model.Weights(doc)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
		g.Nodes = append(g.Nodes, models.GraphNode{ID: doc.ID, Label: label(doc)})
	}

	// docs is ascending by id, so (i, j) with i < j already yields edges in (from, to) order.
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			w := comparator.Similarity(vectors[i], vectors[j])
			if w >= threshold {
				g.Edges = append(g.Edges, models.GraphEdge{FromID: docs[i].ID, ToID: docs[j].ID, Weight: w})
			}
		}
	}
	return g, nil
}
