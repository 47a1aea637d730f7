package keyword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/paperbox/internal/models"
)

// indexedFields are the document fields searched by default.
var indexedFields = []string{"title", "text"}

// indexDoc is what gets stored in Bleve for a document.
type indexDoc struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// BleveIndex implements KeywordIndex and TermDictionary using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. Parent directories are created.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer lowercases and tokenizes without stemming, so "bayes" matches "Bayes"
	// but not "Bayesian".
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	for _, f := range indexedFields {
		docMapping.AddFieldMappingsAt(f, textFieldMapping)
	}
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = standard.Name
	return im
}

func docKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Index indexes doc under its id, replacing any previous version.
func (b *BleveIndex) Index(ctx context.Context, doc *models.Document) error {
	if err := b.index.Index(docKey(doc.ID), indexDoc{Title: doc.Title, Text: doc.Text}); err != nil {
		return fmt.Errorf("failed to index document %d: %w", doc.ID, err)
	}
	return nil
}

// Search runs query and returns up to limit hits ordered by score. The query uses Bleve's
// query string syntax: plain terms, "phrases", +required, -excluded, prefix* and field:term.
// A query that does not parse fails with InvalidArgument.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.InvalidArgumentf("search", "query is required")
	}

	var q blevequery.Query
	if opts != nil && opts.Fuzziness > 0 {
		q = buildFuzzyQuery(query, opts.Fuzziness)
	} else {
		qs := bleve.NewQueryStringQuery(query)
		if _, err := qs.Parse(); err != nil {
			return nil, models.InvalidArgumentf("search", "invalid query %q: %v", query, err)
		}
		q = qs
	}
	if opts != nil && opts.TitleBoost > 1 {
		// The title match only adds score; every hit still has to satisfy q.
		tq := bleve.NewMatchQuery(plainTerms(query))
		tq.SetField("title")
		tq.SetBoost(opts.TitleBoost)
		q = blevequery.NewBooleanQuery([]blevequery.Query{q}, []blevequery.Query{tq}, nil)
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, &KeywordResult{ID: id, Score: hit.Score})
	}
	return out, nil
}

// plainTerms strips query string operators, leaving space separated lowercase words.
func plainTerms(query string) string {
	return strings.Join(tokenizeQuery(query), " ")
}

// tokenizeQuery splits query into lowercase terms without query string operators.
func tokenizeQuery(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '"', '+', '-', '*', '?', '(', ')', '^', '~', ':':
			return true
		}
		return false
	})
	return fields
}

// buildFuzzyQuery matches any query term within fuzziness edits, in any indexed field.
func buildFuzzyQuery(query string, fuzziness int) blevequery.Query {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return bleve.NewMatchQuery(query)
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes a document from the index. Deleting an unknown id is not an error.
func (b *BleveIndex) Delete(ctx context.Context, id int64) error {
	return b.index.Delete(docKey(id))
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// idPageSize is how many ids IDs fetches per search request.
const idPageSize = 1000

// IDs returns the ids of every indexed document in ascending order. Keys that are not
// document ids are skipped.
func (b *BleveIndex) IDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	for from := 0; ; from += idPageSize {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), idPageSize, from, false)
		req.SortBy([]string{"_id"})
		res, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list indexed ids: %w", err)
		}
		for _, hit := range res.Hits {
			if id, err := strconv.ParseInt(hit.ID, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		if len(res.Hits) < idPageSize {
			break
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Terms returns every indexed term of the title and text fields with the number of
// documents containing it. A term in both fields reports the larger count.
func (b *BleveIndex) Terms() (map[string]int, error) {
	terms := make(map[string]int)
	for _, field := range indexedFields {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil {
				_ = dict.Close()
				return nil, fmt.Errorf("failed to read %s dictionary: %w", field, err)
			}
			if entry == nil {
				break
			}
			if n := int(entry.Count); n > terms[entry.Term] {
				terms[entry.Term] = n
			}
		}
		if err := dict.Close(); err != nil {
			return nil, err
		}
	}
	return terms, nil
}
