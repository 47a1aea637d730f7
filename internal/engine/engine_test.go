package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/paperbox/internal/config"
	"github.com/hyperjump/paperbox/internal/keyword"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/storage"
)

type fixture struct {
	store  *storage.SQLiteStorage
	index  *keyword.BleveIndex
	engine *Engine
	ids    []int64
}

var fixtureDocs = []struct{ title, text string }{
	{"Pasta Basics", "Boil the pasta in salted water. Drain the pasta and keep some water. Toss the pasta with olive oil."},
	{"Pasta Sauce", "Simmer tomatoes for the sauce. Toss the pasta with the sauce. Grate cheese over the pasta."},
	{"Sourdough Bread", "Feed the starter every morning. Knead the dough slowly. Bake the bread in a hot oven."},
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "paperbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	idx, err := keyword.NewBleveIndex(filepath.Join(dir, "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	f := &fixture{store: store, index: idx}
	for i, d := range fixtureDocs {
		doc := &models.Document{
			SourcePath: fmt.Sprintf("/docs/%d.txt", i),
			Title:      d.title,
			SHA256:     fmt.Sprintf("sha-%d", i),
			Text:       d.text,
		}
		id, _, err := store.UpsertDocument(ctx, doc)
		require.NoError(t, err)
		require.NoError(t, idx.Index(ctx, doc))
		f.ids = append(f.ids, id)
	}
	f.engine = NewEngine(store, idx, WithLogger(zap.NewNop()), WithSuggester(keyword.NewSuggester(idx)))
	return f
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, m, err := f.engine.Snapshot(ctx, Scope{})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Same(t, c, m.Corpus())

	c, _, err = f.engine.Snapshot(ctx, Scope{IDs: []int64{f.ids[2], f.ids[0]}})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, f.ids[0], c.Documents()[0].ID)

	c, _, err = f.engine.Snapshot(ctx, Scope{MaxDocuments: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	_, err = c.Document(f.ids[2])
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, _, err = f.engine.Snapshot(ctx, Scope{IDs: []int64{f.ids[0], 404, 405}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "405")

	_, _, err = f.engine.Snapshot(ctx, Scope{IDs: []int64{f.ids[0], f.ids[0]}})
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestSummarize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.engine.Summarize(ctx, f.ids[0], 2, Scope{})
	require.NoError(t, err)
	assert.Equal(t, f.ids[0], s.DocumentID)
	require.Len(t, s.Sentences, 2)
	assert.Less(t, s.Sentences[0].Index, s.Sentences[1].Index)

	s, err = f.engine.Summarize(ctx, f.ids[0], 10, Scope{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, s.Indices())

	_, err = f.engine.Summarize(ctx, f.ids[0], 0, Scope{})
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))

	_, err = f.engine.Summarize(ctx, 404, 2, Scope{})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	// The document must be part of the scope it is weighted against.
	_, err = f.engine.Summarize(ctx, f.ids[0], 2, Scope{IDs: []int64{f.ids[1], f.ids[2]}})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ab, err := f.engine.Compare(ctx, f.ids[0], f.ids[1], 5, Scope{})
	require.NoError(t, err)
	ba, err := f.engine.Compare(ctx, f.ids[1], f.ids[0], 5, Scope{})
	require.NoError(t, err)
	assert.Equal(t, ab.Similarity, ba.Similarity)
	assert.Greater(t, ab.Similarity, 0.0)
	assert.LessOrEqual(t, ab.Similarity, 1.0)

	var shared []string
	for _, st := range ab.Shared {
		shared = append(shared, st.Term)
	}
	assert.Contains(t, shared, "pasta")

	ac, err := f.engine.Compare(ctx, f.ids[0], f.ids[2], 5, Scope{})
	require.NoError(t, err)
	assert.Less(t, ac.Similarity, ab.Similarity)

	_, err = f.engine.Compare(ctx, f.ids[0], f.ids[0], 5, Scope{})
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
	_, err = f.engine.Compare(ctx, f.ids[0], f.ids[1], 0, Scope{})
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
	_, err = f.engine.Compare(ctx, f.ids[0], 404, 5, Scope{})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.engine.Graph(ctx, 0, Scope{})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, fmt.Sprintf("%d: Pasta Basics", f.ids[0]), g.Nodes[0].Label)
	assert.Len(t, g.Edges, 3)

	strict, err := f.engine.Graph(ctx, 1, Scope{})
	require.NoError(t, err)
	assert.Len(t, strict.Nodes, 3)
	assert.Empty(t, strict.Edges)

	limited, err := f.engine.Graph(ctx, 0, Scope{MaxDocuments: 2})
	require.NoError(t, err)
	assert.Len(t, limited.Nodes, 2)
	assert.Len(t, limited.Edges, 1)

	for _, th := range []float64{-0.1, 1.5} {
		_, err = f.engine.Graph(ctx, th, Scope{})
		assert.True(t, errors.Is(err, models.ErrInvalidArgument), "threshold %v", th)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.engine.Search(ctx, &models.SearchQuery{Query: "pasta"})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	for i, hit := range resp.Hits {
		assert.Equal(t, i+1, hit.Rank)
		assert.Empty(t, hit.Document.Text)
		assert.NotEmpty(t, hit.Snippet)
		assert.Contains(t, hit.Document.Title, "Pasta")
	}
	assert.Empty(t, resp.Suggestion)

	resp, err = f.engine.Search(ctx, &models.SearchQuery{Query: "pastaa"})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	assert.Equal(t, "pasta", resp.Suggestion)

	_, err = f.engine.Search(ctx, &models.SearchQuery{Query: "  "})
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

// recordingIndex remembers the options of every search it forwards.
type recordingIndex struct {
	*keyword.BleveIndex
	opts []keyword.SearchOptions
}

func (r *recordingIndex) Search(ctx context.Context, query string, limit int, opts *keyword.SearchOptions) ([]*keyword.KeywordResult, error) {
	r.opts = append(r.opts, *opts)
	return r.BleveIndex.Search(ctx, query, limit, opts)
}

func searchConfig(autoFuzzy bool) config.SearchConfig {
	return config.SearchConfig{TitleBoost: 10, Fuzziness: 1, AutoFuzzy: &autoFuzzy}
}

func TestSearch_passesSearchConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := &recordingIndex{BleveIndex: f.index}
	eng := NewEngine(f.store, rec, WithSearchConfig(searchConfig(false)))

	resp, err := eng.Search(ctx, &models.SearchQuery{Query: "pasta"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.False(t, resp.Fuzzy)

	resp, err = eng.Search(ctx, &models.SearchQuery{Query: "pastaa", Fuzzy: true})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.True(t, resp.Fuzzy)

	assert.Equal(t, []keyword.SearchOptions{
		{TitleBoost: 10},
		{TitleBoost: 10, Fuzziness: 1},
	}, rec.opts)
}

func TestSearch_autoFuzzyRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := &recordingIndex{BleveIndex: f.index}
	eng := NewEngine(f.store, rec, WithSearchConfig(searchConfig(true)),
		WithSuggester(keyword.NewSuggester(f.index)))

	resp, err := eng.Search(ctx, &models.SearchQuery{Query: "pastaa"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.True(t, resp.Fuzzy)
	assert.Empty(t, resp.Suggestion, "no suggestion when the retry found hits")
	require.Len(t, rec.opts, 2)
	assert.Equal(t, 1, rec.opts[1].Fuzziness)

	resp, err = eng.Search(ctx, &models.SearchQuery{Query: "zzzzzzzz"})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	assert.False(t, resp.Fuzzy)
}

func TestSearch_noRetryWithoutConfig(t *testing.T) {
	f := newFixture(t)
	rec := &recordingIndex{BleveIndex: f.index}
	eng := NewEngine(f.store, rec)

	resp, err := eng.Search(context.Background(), &models.SearchQuery{Query: "pastaa"})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	assert.Len(t, rec.opts, 1)
}

func TestSearch_skipsHitsMissingFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.DeleteDocument(ctx, f.ids[0]))

	resp, err := f.engine.Search(ctx, &models.SearchQuery{Query: "pasta"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, f.ids[1], resp.Hits[0].Document.ID)
	assert.Equal(t, 1, resp.Hits[0].Rank)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	st, err := f.engine.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Documents)
	assert.Equal(t, uint64(3), st.Indexed)
	assert.Greater(t, st.Vocabulary, 10)
}
