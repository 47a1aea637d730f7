package models

import (
	"fmt"
	"strings"
)

// SearchQuery is a full-text search request against the keyword index.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Fuzzy matches each term within a small edit distance instead of parsing query syntax.
	Fuzzy bool `json:"fuzzy,omitempty"`
}

// Validate ensures the query is non-empty and normalizes the limit (default 10, max 100).
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return InvalidArgumentf("search", "query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// SearchHit is a single search result with its document (text omitted) and score.
type SearchHit struct {
	Rank     int       `json:"rank"`
	Score    float64   `json:"score"`
	Snippet  string    `json:"snippet,omitempty"`
	Document *Document `json:"document"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query      string       `json:"query"`
	Hits       []*SearchHit `json:"hits"`
	Total      int          `json:"total"`
	QueryTime  int64        `json:"query_time_ms"`
	Suggestion string       `json:"suggestion,omitempty"` // corrected query offered when nothing matched
	Fuzzy      bool         `json:"fuzzy,omitempty"`      // hits come from fuzzy matching
}

func formatLabel(id int64, title string) string {
	return fmt.Sprintf("%d: %s", id, title)
}

// Status describes the stored collection and where it lives on disk.
type Status struct {
	Documents      int64  `json:"documents"`
	Indexed        uint64 `json:"indexed"`
	Vocabulary     int    `json:"vocabulary"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
	DatabasePath   string `json:"database_path,omitempty"`
	IndexPath      string `json:"index_path,omitempty"`
}
