// Package engine runs summarize, compare, graph and search against the stored documents.
// Every analytics call loads a fresh corpus snapshot from the Store, builds the term-weight
// model over it and discards both when the call returns.
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/paperbox/internal/comparator"
	"github.com/hyperjump/paperbox/internal/config"
	"github.com/hyperjump/paperbox/internal/corpus"
	"github.com/hyperjump/paperbox/internal/graph"
	"github.com/hyperjump/paperbox/internal/keyword"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/storage"
	"github.com/hyperjump/paperbox/internal/summarizer"
	"github.com/hyperjump/paperbox/internal/termweight"
	"github.com/hyperjump/paperbox/pkg/utils"
)

// SnippetLength is the rune length of search result snippets.
const SnippetLength = 200

// Scope selects the documents of a snapshot. Empty IDs means every stored document.
// MaxDocuments > 0 keeps only the first that many documents by id.
type Scope struct {
	IDs          []int64
	MaxDocuments int
}

// Engine runs analytics and search over a Store and its keyword index.
type Engine struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	suggester    *keyword.Suggester
	search       config.SearchConfig
	logger       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for per-operation debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSuggester enables "did you mean" suggestions for searches without hits.
func WithSuggester(s *keyword.Suggester) Option {
	return func(e *Engine) { e.suggester = s }
}

// WithSearchConfig sets the title boost, the fuzzy edit distance and whether searches without
// hits are retried fuzzily. Without it titles are not boosted and there is no retry.
func WithSearchConfig(cfg config.SearchConfig) Option {
	return func(e *Engine) { e.search = cfg }
}

// NewEngine creates an engine with the given dependencies.
func NewEngine(store storage.Storage, keywordIndex keyword.KeywordIndex, opts ...Option) *Engine {
	e := &Engine{storage: store, keywordIndex: keywordIndex}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.NopIfNil(e.logger)
	return e
}

// Snapshot loads the documents in scope and builds the term-weight model over them.
// Unknown ids in scope fail with NotFound naming all of them; duplicates fail with
// InvalidArgument.
func (e *Engine) Snapshot(ctx context.Context, scope Scope) (*corpus.Corpus, *termweight.Model, error) {
	var (
		docs []*models.Document
		err  error
	)
	if len(scope.IDs) == 0 {
		docs, err = e.storage.AllDocuments(ctx)
	} else {
		docs, err = e.storage.GetDocuments(ctx, scope.IDs)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load documents: %w", err)
	}
	c, err := newCorpus(docs)
	if err != nil {
		return nil, nil, err
	}
	if len(scope.IDs) > 0 {
		if _, err := c.Select(scope.IDs...); err != nil {
			return nil, nil, err
		}
	}
	if scope.MaxDocuments > 0 && len(docs) > scope.MaxDocuments {
		if c, err = newCorpus(docs[:scope.MaxDocuments]); err != nil {
			return nil, nil, err
		}
	}
	return c, termweight.Build(c), nil
}

// Summarize extracts up to sentenceCount sentences of document id, weighted against the
// documents in scope. The document must be within scope.
func (e *Engine) Summarize(ctx context.Context, id int64, sentenceCount int, scope Scope) (*models.Summary, error) {
	if sentenceCount <= 0 {
		return nil, models.InvalidArgumentf("summarize", "sentence count must be positive, got %d", sentenceCount)
	}
	start := time.Now()
	c, m, err := e.Snapshot(ctx, scope)
	if err != nil {
		return nil, err
	}
	doc, err := c.Document(id)
	if err != nil {
		return nil, err
	}
	s, err := summarizer.Summarize(doc, m, sentenceCount)
	if err != nil {
		return nil, err
	}
	e.logDone("summarize", m, start)
	return s, nil
}

// Compare compares documents a and b, weighted against the documents in scope. Both must
// exist or the call fails without a partial result.
func (e *Engine) Compare(ctx context.Context, a, b int64, topTerms int, scope Scope) (*models.Comparison, error) {
	if topTerms <= 0 {
		return nil, models.InvalidArgumentf("compare", "top terms must be positive, got %d", topTerms)
	}
	if a == b {
		return nil, models.InvalidArgumentf("compare", "cannot compare document %d with itself", a)
	}
	start := time.Now()
	c, m, err := e.Snapshot(ctx, scope)
	if err != nil {
		return nil, err
	}
	pair, err := c.Select(a, b)
	if err != nil {
		return nil, err
	}
	res, err := comparator.Compare(pair[0], pair[1], m, topTerms)
	if err != nil {
		return nil, err
	}
	e.logDone("compare", m, start)
	return res, nil
}

// Graph builds the similarity graph over the documents in scope, labelling nodes "id: title".
func (e *Engine) Graph(ctx context.Context, threshold float64, scope Scope) (*models.Graph, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, models.InvalidArgumentf("graph", "threshold must be within [0,1], got %v", threshold)
	}
	start := time.Now()
	c, m, err := e.Snapshot(ctx, scope)
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(c, m, threshold, graph.TitleLabel)
	if err != nil {
		return nil, err
	}
	e.logDone("graph", m, start, zap.Int("edges", len(g.Edges)))
	return g, nil
}

// Search runs a full-text query and hydrates hits from the Store. Document text is replaced
// by a short snippet. A query without hits is retried as a fuzzy search when auto fuzzy is
// configured; if that finds nothing either and a suggester is set, a corrected query is
// offered.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}
	resp := &models.SearchResponse{Query: query.Query, Fuzzy: query.Fuzzy}
	hits, err := e.keywordHits(ctx, query.Query, query.Limit, query.Fuzzy)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 && !query.Fuzzy && e.search.AutoFuzzy != nil && *e.search.AutoFuzzy {
		// A failed retry keeps the original empty result.
		if fuzzy, err := e.keywordHits(ctx, query.Query, query.Limit, true); err == nil && len(fuzzy) > 0 {
			hits, resp.Fuzzy = fuzzy, true
		}
	}
	resp.Hits = hits
	resp.Total = len(hits)
	if resp.Total == 0 && e.suggester != nil {
		if s, err := e.suggester.Suggest(query.Query); err == nil {
			resp.Suggestion = s
		} else {
			e.logger.Debug("search suggestion failed", zap.Error(err))
		}
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	e.logger.Debug("search done", zap.String("query", query.Query), zap.Int("hits", resp.Total),
		zap.Bool("fuzzy", resp.Fuzzy), zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// keywordHits searches the keyword index and hydrates the hits that are still stored.
func (e *Engine) keywordHits(ctx context.Context, query string, limit int, fuzzy bool) ([]*models.SearchHit, error) {
	opts := &keyword.SearchOptions{TitleBoost: e.search.TitleBoost}
	if fuzzy {
		opts.Fuzziness = e.search.Fuzziness
		if opts.Fuzziness <= 0 {
			opts.Fuzziness = config.DefaultFuzziness
		}
	}
	results, err := e.keywordIndex.Search(ctx, query, limit, opts)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	docs, err := e.storage.GetDocuments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load search hits: %w", err)
	}
	byID := make(map[int64]*models.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	hits := make([]*models.SearchHit, 0, len(results))
	for _, r := range results {
		d, ok := byID[r.ID]
		if !ok {
			// Indexed but no longer stored.
			continue
		}
		doc := *d
		doc.Text = ""
		hits = append(hits, &models.SearchHit{
			Rank:     len(hits) + 1,
			Score:    r.Score,
			Snippet:  snippet(d.Text),
			Document: &doc,
		})
	}
	return hits, nil
}

// Document returns a stored document with its text.
func (e *Engine) Document(ctx context.Context, id int64) (*models.Document, error) {
	return e.storage.GetDocument(ctx, id)
}

// Documents lists stored document metadata in id order.
func (e *Engine) Documents(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	return e.storage.ListDocuments(ctx, offset, limit)
}

// Stats reports document, index and vocabulary counts for the whole collection.
// Disk usage and paths are left for the caller.
func (e *Engine) Stats(ctx context.Context) (*models.Status, error) {
	n, err := e.storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	indexed, err := e.keywordIndex.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count indexed documents: %w", err)
	}
	_, m, err := e.Snapshot(ctx, Scope{})
	if err != nil {
		return nil, err
	}
	return &models.Status{Documents: n, Indexed: indexed, Vocabulary: m.VocabularySize()}, nil
}

func (e *Engine) logDone(op string, m *termweight.Model, start time.Time, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.Int("documents", m.DocumentCount()),
		zap.Int("vocabulary", m.VocabularySize()),
		zap.Duration("elapsed", time.Since(start)),
	}, fields...)
	e.logger.Debug(op+" done", fields...)
}

func newCorpus(docs []*models.Document) (*corpus.Corpus, error) {
	records := make([]corpus.Record, len(docs))
	for i, d := range docs {
		records[i] = corpus.RecordFrom(d)
	}
	return corpus.New(records)
}

func snippet(text string) string {
	return utils.Truncate(strings.Join(strings.Fields(text), " "), SnippetLength)
}
