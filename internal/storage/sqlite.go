package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/paperbox/internal/models"
)

// SQLiteStorage implements Storage using SQLite through sqlx.
type SQLiteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_path TEXT NOT NULL,
		title TEXT NOT NULL,
		sha256 TEXT NOT NULL UNIQUE,
		text TEXT NOT NULL,
		ingest_batch TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

const documentColumns = `id, source_path, title, sha256, text, ingest_batch, created_at, updated_at`

const metadataColumns = `id, source_path, title, sha256, '' AS text, ingest_batch, created_at, updated_at`

// UpsertDocument inserts doc or, when a document with the same sha256 exists, refreshes its
// source path, title, text and batch in place.
func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *models.Document) (int64, bool, error) {
	if doc.SHA256 == "" {
		return 0, false, models.InvalidArgumentf("upsert document", "sha256 is required")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	now := time.Now()
	var existing models.Document
	err = tx.GetContext(ctx, &existing, `SELECT `+documentColumns+` FROM documents WHERE sha256 = ?`, doc.SHA256)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		doc.CreatedAt = now
		doc.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx,
			`INSERT INTO documents (source_path, title, sha256, text, ingest_batch, created_at, updated_at)
			 VALUES (:source_path, :title, :sha256, :text, :ingest_batch, :created_at, :updated_at)`, doc)
		if err != nil {
			return 0, false, fmt.Errorf("failed to insert document: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, err
		}
		doc.ID = id
		return id, true, tx.Commit()
	case err != nil:
		return 0, false, fmt.Errorf("failed to look up document: %w", err)
	}

	doc.ID = existing.ID
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx,
		`UPDATE documents SET source_path = :source_path, title = :title, text = :text,
		 ingest_batch = :ingest_batch, updated_at = :updated_at WHERE id = :id`, doc); err != nil {
		return 0, false, fmt.Errorf("failed to update document: %w", err)
	}
	return doc.ID, false, tx.Commit()
}

// GetDocument returns a document by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	err := s.db.GetContext(ctx, &doc, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("get document", "document %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocuments returns the documents among ids in ascending id order.
func (s *SQLiteStorage) GetDocuments(ctx context.Context, ids []int64) ([]*models.Document, error) {
	if len(ids) == 0 {
		return []*models.Document{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+documentColumns+` FROM documents WHERE id IN (?) ORDER BY id ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	docs := []*models.Document{}
	if err := s.db.SelectContext(ctx, &docs, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return docs, nil
}

// AllDocuments returns every document with its text in ascending id order.
func (s *SQLiteStorage) AllDocuments(ctx context.Context) ([]*models.Document, error) {
	docs := []*models.Document{}
	if err := s.db.SelectContext(ctx, &docs, `SELECT `+documentColumns+` FROM documents ORDER BY id ASC`); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListDocuments returns document metadata with offset and limit.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	if limit <= 0 {
		limit = -1
	}
	docs := []*models.Document{}
	err := s.db.SelectContext(ctx, &docs,
		`SELECT `+metadataColumns+` FROM documents ORDER BY id ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes a document by ID.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return models.NotFoundf("delete document", "document %d not found", id)
	}
	return nil
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM documents`)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
