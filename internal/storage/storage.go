// Package storage defines the persistence interface for ingested documents.
package storage

import (
	"context"

	"github.com/hyperjump/paperbox/internal/models"
)

// Storage defines document persistence operations. Documents are keyed by an auto-assigned
// integer id and deduplicated by the sha256 of their source file.
type Storage interface {
	// UpsertDocument inserts doc, or updates the stored document with the same SHA256.
	// It sets doc.ID and reports whether a new row was inserted.
	UpsertDocument(ctx context.Context, doc *models.Document) (id int64, inserted bool, err error)
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	// GetDocuments returns the stored documents among ids, ascending by id. Unknown ids are omitted.
	GetDocuments(ctx context.Context, ids []int64) ([]*models.Document, error)
	// AllDocuments returns every document with its text, ascending by id.
	AllDocuments(ctx context.Context) ([]*models.Document, error)
	// ListDocuments returns document metadata without text, ascending by id. limit <= 0 means no limit.
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id int64) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
