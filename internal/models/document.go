// Package models defines core data structures for documents, queries, analytics results, and errors.
package models

import "time"

// Document is a stored document as kept by the Store.
type Document struct {
	ID          int64     `json:"id" db:"id"`
	SourcePath  string    `json:"source_path" db:"source_path"`
	Title       string    `json:"title" db:"title"`
	SHA256      string    `json:"sha256" db:"sha256"`
	Text        string    `json:"text,omitempty" db:"text"`
	IngestBatch string    `json:"ingest_batch,omitempty" db:"ingest_batch"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Label returns the display label used for graph nodes: "<id>: <title>".
func (d *Document) Label() string {
	return formatLabel(d.ID, d.Title)
}
