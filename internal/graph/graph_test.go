package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/paperbox/internal/corpus"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/termweight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, texts ...string) (*corpus.Corpus, *termweight.Model) {
	t.Helper()
	recs := make([]corpus.Record, len(texts))
	for i, text := range texts {
		recs[i] = corpus.Record{ID: int64((i + 1) * 10), Title: "Paper", Text: text}
	}
	c, err := corpus.New(recs)
	require.NoError(t, err)
	return c, termweight.Build(c)
}

func TestBuild_identicalPair(t *testing.T) {
	text := "Transformers improve machine translation quality."
	c, m := setup(t, text, "Soil erosion affects farmland yields.", text)

	g, err := Build(c, m, 0.99, TitleLabel)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, "10: Paper", g.Nodes[0].Label)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, int64(10), g.Edges[0].FromID)
	assert.Equal(t, int64(30), g.Edges[0].ToID)
	assert.InDelta(t, 1.0, g.Edges[0].Weight, 1e-12)
}

func TestBuild_thresholdMonotonic(t *testing.T) {
	c, m := setup(t,
		"graph neural networks for citation graphs",
		"citation counts and graphs of papers",
		"neural networks learn from papers",
		"cooking pasta with basil",
	)
	prev := math.MaxInt
	for _, th := range []float64{0, 0.05, 0.1, 0.2, 0.4, 0.8, 1} {
		g, err := Build(c, m, th, TitleLabel)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(g.Edges), prev, "threshold %v", th)
		prev = len(g.Edges)
	}

	all, err := Build(c, m, 0, TitleLabel)
	require.NoError(t, err)
	assert.Len(t, all.Edges, 6, "threshold 0 keeps every pair")
}

func TestBuild_edgeInvariants(t *testing.T) {
	c, m := setup(t, "alpha beta gamma", "beta gamma delta", "gamma delta epsilon", "alpha epsilon")
	g, err := Build(c, m, 0, TitleLabel)
	require.NoError(t, err)

	seen := map[[2]int64]bool{}
	for i, e := range g.Edges {
		assert.Less(t, e.FromID, e.ToID)
		key := [2]int64{e.FromID, e.ToID}
		assert.False(t, seen[key], "duplicate edge %v", key)
		seen[key] = true
		if i > 0 {
			p := g.Edges[i-1]
			assert.True(t, p.FromID < e.FromID || (p.FromID == e.FromID && p.ToID < e.ToID))
		}
	}
}

func TestBuild_deterministic(t *testing.T) {
	c, m := setup(t, "one two three", "two three four", "three four five")
	first, err := Build(c, m, 0.1, TitleLabel)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Build(c, m, 0.1, TitleLabel)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuild_customLabelAndEmptyDocuments(t *testing.T) {
	c, m := setup(t, "the of and", "a an the")
	g, err := Build(c, m, 0, func(d *corpus.Document) string { return "n" })
	require.NoError(t, err)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, 0.0, g.Edges[0].Weight)
	assert.Equal(t, "n", g.Nodes[1].Label)
}

func TestBuild_invalidArguments(t *testing.T) {
	c, m := setup(t, "alpha", "beta")
	for _, th := range []float64{-0.1, 1.5, math.NaN(), math.Inf(1)} {
		_, err := Build(c, m, th, TitleLabel)
		assert.True(t, errors.Is(err, models.ErrInvalidArgument), "threshold %v", th)
	}
	_, err := Build(c, m, 0.5, nil)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))

	other, _ := setup(t, "alpha", "beta")
	_, err = Build(other, m, 0.5, TitleLabel)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}
