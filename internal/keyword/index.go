// Package keyword provides the full-text search index over ingested documents.
package keyword

import (
	"context"

	"github.com/hyperjump/paperbox/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// TitleBoost multiplies the score of matches in the title field. Values <= 1 disable it.
	TitleBoost float64
	// Fuzziness, when > 0, matches each plain query term within that edit distance (1 or 2)
	// instead of parsing the query string.
	Fuzziness int
}

// KeywordIndex defines full-text search operations.
type KeywordIndex interface {
	Index(ctx context.Context, doc *models.Document) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	Delete(ctx context.Context, id int64) error
	Close() error
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	// IDs returns the ids of every indexed document in ascending order.
	IDs(ctx context.Context) ([]int64, error)
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    int64
	Score float64
}

// TermDictionary lists indexed terms with their document frequencies.
type TermDictionary interface {
	Terms() (map[string]int, error)
}
