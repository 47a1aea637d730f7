// Package corpus builds the immutable document snapshot one analytics run works on.
package corpus

import (
	"sort"
	"strings"

	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/tokenizer"
)

// Record is the validated boundary shape of a document handed over by the Store.
type Record struct {
	ID    int64
	Title string
	Text  string
}

// RecordFrom converts a stored document into a Record.
func RecordFrom(d *models.Document) Record {
	return Record{ID: d.ID, Title: d.Title, Text: d.Text}
}

// Document is a tokenized record. It is never mutated after New returns.
type Document struct {
	ID        int64
	Title     string
	Text      string
	Sentences []string
	Terms     map[string]int
	// TermTotal is the sum of all term counts.
	TermTotal int
}

// Corpus is the set of documents considered in one analytics run, ordered by id.
type Corpus struct {
	docs []*Document
	byID map[int64]*Document
}

// New validates records and tokenizes each one. Records may come in any order.
// A duplicate id or an empty title fails with InvalidArgument.
func New(records []Record) (*Corpus, error) {
	c := &Corpus{
		docs: make([]*Document, 0, len(records)),
		byID: make(map[int64]*Document, len(records)),
	}
	for _, r := range records {
		if _, dup := c.byID[r.ID]; dup {
			return nil, models.InvalidArgumentf("corpus", "duplicate document id %d", r.ID)
		}
		if strings.TrimSpace(r.Title) == "" {
			return nil, models.InvalidArgumentf("corpus", "document %d has an empty title", r.ID)
		}
		sentences, terms := tokenizer.Tokenize(r.Text)
		total := 0
		for _, n := range terms {
			total += n
		}
		d := &Document{
			ID:        r.ID,
			Title:     r.Title,
			Text:      r.Text,
			Sentences: sentences,
			Terms:     terms,
			TermTotal: total,
		}
		c.docs = append(c.docs, d)
		c.byID[r.ID] = d
	}
	sort.Slice(c.docs, func(i, j int) bool { return c.docs[i].ID < c.docs[j].ID })
	return c, nil
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Documents returns the documents in ascending id order. Callers must not modify the slice.
func (c *Corpus) Documents() []*Document {
	return c.docs
}

// Document returns the document with id, or NotFound.
func (c *Corpus) Document(id int64) (*Document, error) {
	d, ok := c.byID[id]
	if !ok {
		return nil, models.NotFoundf("corpus", "document %d", id)
	}
	return d, nil
}

// Contains reports whether doc is the exact document held by this corpus snapshot.
func (c *Corpus) Contains(doc *Document) bool {
	if doc == nil {
		return false
	}
	return c.byID[doc.ID] == doc
}

// Select returns documents for ids in the order given. An empty or duplicate selection
// fails with InvalidArgument; unknown ids fail with a single NotFound naming all of them.
func (c *Corpus) Select(ids ...int64) ([]*Document, error) {
	if len(ids) == 0 {
		return nil, models.InvalidArgumentf("corpus", "empty document selection")
	}
	seen := make(map[int64]struct{}, len(ids))
	var missing []int64
	out := make([]*Document, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, models.InvalidArgumentf("corpus", "duplicate document id %d in selection", id)
		}
		seen[id] = struct{}{}
		d, ok := c.byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, d)
	}
	if len(missing) > 0 {
		return nil, models.NotFoundf("corpus", "documents %s", FormatIDs(missing))
	}
	return out, nil
}
