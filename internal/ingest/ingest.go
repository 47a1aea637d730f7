// Package ingest turns files on disk into stored, searchable documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/paperbox/internal/extract"
	"github.com/hyperjump/paperbox/internal/fileid"
	"github.com/hyperjump/paperbox/internal/keyword"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/storage"
	"github.com/hyperjump/paperbox/pkg/utils"
)

// Status is the outcome of ingesting one file.
type Status string

const (
	StatusNew     Status = "NEW"
	StatusUpdated Status = "UPD"
	StatusSkipped Status = "SKIP"
)

// Skip reasons.
const (
	ReasonOK          = "ok"
	ReasonUnsupported = "unsupported extension"
	ReasonEmptyText   = "empty text (maybe scanned PDF?)"
)

// Result reports what happened to a single file.
type Result struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	DocID  int64  `json:"doc_id,omitempty"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

// Report is the outcome of one ingest run. Every document written in the run carries Batch.
type Report struct {
	Batch   string   `json:"batch"`
	Results []Result `json:"results"`
}

// Count returns how many results have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Ingester extracts files and writes them to the Store and the keyword index.
type Ingester struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	extractor    *extract.Extractor
	extensions   []string
	logger       *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets a logger for debug output (file ingested, file skipped, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) { in.logger = l }
}

// WithExtensions restricts ingest to the given extensions (with leading dot, any case).
// Extensions without an extractor are ignored.
func WithExtensions(exts []string) Option {
	return func(in *Ingester) {
		if len(exts) > 0 {
			in.extensions = exts
		}
	}
}

// NewIngester creates an ingester with the given dependencies. By default every extension
// the extractor supports is accepted.
func NewIngester(store storage.Storage, keywordIndex keyword.KeywordIndex, extractor *extract.Extractor, opts ...Option) *Ingester {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	in := &Ingester{
		storage:      store,
		keywordIndex: keywordIndex,
		extractor:    extractor,
		extensions:   extractor.Extensions(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = utils.NopIfNil(in.logger)
	return in
}

// Ingest walks paths (files or directories, directories recursively in lexical order) and
// ingests every regular file. Per-file problems become SKIP results; a missing input path or
// a Store/index failure aborts the run with an error.
func (in *Ingester) Ingest(ctx context.Context, paths ...string) (*Report, error) {
	report := &Report{Batch: uuid.NewString(), Results: []Result{}}
	for _, p := range paths {
		files, err := collectFiles(p)
		if err != nil {
			return report, err
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			res, err := in.ingestFile(ctx, f, report.Batch)
			if err != nil {
				return report, err
			}
			report.Results = append(report.Results, res)
		}
	}
	in.logger.Debug("ingest finished",
		zap.String("batch", report.Batch),
		zap.Int("new", report.Count(StatusNew)),
		zap.Int("updated", report.Count(StatusUpdated)),
		zap.Int("skipped", report.Count(StatusSkipped)))
	return report, nil
}

func collectFiles(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, models.NotFoundf("ingest", "path %s does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}
	var files []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != abs && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		// Resolve symlinks so only regular files are ingested.
		if fi, statErr := os.Stat(p); statErr == nil && fi.Mode().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	return files, nil
}

func (in *Ingester) ingestFile(ctx context.Context, path, batch string) (Result, error) {
	skip := func(reason string) (Result, error) {
		in.logger.Debug("ingest skipping file", zap.String("path", path), zap.String("reason", reason))
		return Result{Path: path, Status: StatusSkipped, Reason: reason}, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !extensionAllowed(ext, in.extensions) || !in.extractor.Supports(ext) {
		return skip(ReasonUnsupported)
	}
	hash, err := fileid.ContentHash(path)
	if err != nil {
		return skip(fmt.Sprintf("hash failed: %v", err))
	}
	raw, err := in.extractor.Extract(path)
	if err != nil {
		return skip(fmt.Sprintf("extract failed: %v", err))
	}
	text := Normalize(raw)
	if text == "" {
		return skip(ReasonEmptyText)
	}

	doc := &models.Document{
		SourcePath:  path,
		Title:       GuessTitle(path, text),
		SHA256:      hash,
		Text:        text,
		IngestBatch: batch,
	}
	id, inserted, err := in.storage.UpsertDocument(ctx, doc)
	if err != nil {
		return Result{}, fmt.Errorf("failed to store %s: %w", path, err)
	}
	if err := in.indexDocument(ctx, doc); err != nil {
		return Result{}, err
	}

	status := StatusUpdated
	if inserted {
		status = StatusNew
	}
	in.logger.Debug("ingest file stored",
		zap.String("path", path), zap.Int64("doc_id", id), zap.String("status", string(status)))
	return Result{Path: path, Status: status, DocID: id, Title: doc.Title, Reason: ReasonOK}, nil
}

func (in *Ingester) indexDocument(ctx context.Context, doc *models.Document) error {
	forIndex := *doc
	forIndex.Title = searchableTitle(doc.Title)
	if err := in.keywordIndex.Index(ctx, &forIndex); err != nil {
		return fmt.Errorf("failed to index keywords: %w", err)
	}
	return nil
}

// DeleteDocument removes a document from the keyword index and the Store.
func (in *Ingester) DeleteDocument(ctx context.Context, id int64) error {
	in.logger.Debug("ingest deleting document", zap.Int64("id", id))
	if _, err := in.storage.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := in.keywordIndex.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	if err := in.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// SyncIndex repairs the keyword index when its document count disagrees with the Store, for
// example after the index directory was removed or a delete was interrupted. Stored documents
// missing from the index are indexed and indexed ids without a stored document are removed.
// It returns how many index entries were added or removed.
func (in *Ingester) SyncIndex(ctx context.Context) (int, error) {
	stored, err := in.storage.CountDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	indexed, err := in.keywordIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count indexed documents: %w", err)
	}
	if uint64(stored) == indexed {
		return 0, nil
	}
	docs, err := in.storage.AllDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load documents: %w", err)
	}
	ids, err := in.keywordIndex.IDs(ctx)
	if err != nil {
		return 0, err
	}
	inIndex := make(map[int64]bool, len(ids))
	for _, id := range ids {
		inIndex[id] = true
	}
	inStore := make(map[int64]bool, len(docs))
	added := 0
	for _, d := range docs {
		inStore[d.ID] = true
		if inIndex[d.ID] {
			continue
		}
		if err := in.indexDocument(ctx, d); err != nil {
			return added, err
		}
		added++
	}
	removed := 0
	for _, id := range ids {
		if inStore[id] {
			continue
		}
		if err := in.keywordIndex.Delete(ctx, id); err != nil {
			return added + removed, fmt.Errorf("failed to delete stale index entry %d: %w", id, err)
		}
		removed++
	}
	in.logger.Debug("keyword index resynced",
		zap.Int("added", added), zap.Int("removed", removed), zap.Uint64("was", indexed))
	return added + removed, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
