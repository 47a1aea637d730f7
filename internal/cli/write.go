package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/hyperjump/paperbox/internal/ingest"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/pkg/utils"
)

// WriteIngestReport writes one row per ingested file followed by totals.
func WriteIngestReport(w io.Writer, report *ingest.Report, format OutputFormat) error {
	return write(w, format, report, func() string {
		t := newTable([]string{"Path", "Status", "DocID", "Note"}, 2)
		for _, r := range report.Results {
			docID := "-"
			if r.DocID > 0 {
				docID = id(r.DocID)
			}
			status := lipgloss.NewStyle().Bold(true).Foreground(statusColors[string(r.Status)]).Render(string(r.Status))
			t.Row(r.Path, status, docID, r.Reason)
		}
		footer := fmt.Sprintf("%d new, %d updated, %d skipped (batch %s)",
			report.Count(ingest.StatusNew), report.Count(ingest.StatusUpdated), report.Count(ingest.StatusSkipped), report.Batch)
		return titled("Ingest results", t.String()) + "\n" + mutedStyle.Render(footer)
	})
}

// WriteDocuments writes a document listing.
func WriteDocuments(w io.Writer, docs []*models.Document, format OutputFormat) error {
	if docs == nil {
		docs = []*models.Document{}
	}
	return write(w, format, docs, func() string {
		if len(docs) == 0 {
			return mutedStyle.Render("No documents.")
		}
		t := newTable([]string{"ID", "Title", "Added", "Source"}, 0)
		for _, d := range docs {
			t.Row(id(d.ID), d.Title, humanize.Time(d.CreatedAt), d.SourcePath)
		}
		return titled("Documents", t.String())
	})
}

// WriteDocument writes the first head lines of a document's text. head <= 0 shows all of it.
func WriteDocument(w io.Writer, doc *models.Document, head int, format OutputFormat) error {
	shown := *doc
	shown.Text = utils.HeadLines(doc.Text, head)
	return write(w, format, &shown, func() string {
		return panel(doc.Label(), shown.Text, doc.SourcePath)
	})
}

// WriteSearchResults writes search hits in rank order.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	return write(w, format, response, func() string {
		title := fmt.Sprintf("Search: %s (%d hits in %dms)", response.Query, response.Total, response.QueryTime)
		if response.Fuzzy {
			title += " [fuzzy]"
		}
		var b strings.Builder
		if len(response.Hits) == 0 {
			b.WriteString(titleStyle.Render(title))
			b.WriteString("\n")
			b.WriteString(mutedStyle.Render("No matches."))
		} else {
			t := newTable([]string{"Rank", "ID", "Score", "Title"}, 0, 1, 2)
			for _, h := range response.Hits {
				t.Row(fmt.Sprint(h.Rank), id(h.Document.ID), fmt.Sprintf("%.3f", h.Score), h.Document.Title)
			}
			b.WriteString(titled(title, t.String()))
		}
		if response.Suggestion != "" {
			b.WriteString("\n")
			fmt.Fprintf(&b, "Did you mean: %s?", titleStyle.Render(response.Suggestion))
		}
		return b.String()
	})
}

// WriteSummary writes the selected sentences of doc in document order, one per line.
func WriteSummary(w io.Writer, doc *models.Document, summary *models.Summary, format OutputFormat) error {
	return write(w, format, summary, func() string {
		lines := make([]string, len(summary.Sentences))
		for i, s := range summary.Sentences {
			lines[i] = s.Sentence
		}
		return panel("Summary: "+doc.Label(), strings.Join(lines, "\n"), "")
	})
}

// WriteComparison writes the similarity of a and b followed by their shared and unique terms.
func WriteComparison(w io.Writer, cmp *models.Comparison, a, b *models.Document, format OutputFormat) error {
	return write(w, format, cmp, func() string {
		var sb strings.Builder
		sb.WriteString(panel("Compare", fmt.Sprintf("Cosine similarity: %.3f\n\nDoc1: %s\nDoc2: %s",
			cmp.Similarity, a.Label(), b.Label()), ""))

		shared := newTable([]string{"Term", "Doc1", "Doc2"}, 1, 2)
		for _, st := range cmp.Shared {
			shared.Row(st.Term, fmt.Sprintf("%.4f", st.ScoreA), fmt.Sprintf("%.4f", st.ScoreB))
		}
		sb.WriteString("\n")
		sb.WriteString(titled("Common terms", shared.String()))
		sb.WriteString("\n")
		sb.WriteString(termTable(fmt.Sprintf("Doc1 unique terms (ID %d)", a.ID), cmp.UniqueA))
		sb.WriteString("\n")
		sb.WriteString(termTable(fmt.Sprintf("Doc2 unique terms (ID %d)", b.ID), cmp.UniqueB))
		return sb.String()
	})
}

func termTable(title string, terms []models.TermScore) string {
	t := newTable([]string{"Term", "Weight"}, 1)
	for _, ts := range terms {
		t.Row(ts.Term, fmt.Sprintf("%.4f", ts.Score))
	}
	return titled(title, t.String())
}

// WriteStatus writes collection counts and storage locations.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	return write(w, format, status, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "documents:      %s\n", humanize.Comma(status.Documents))
		fmt.Fprintf(&b, "indexed:        %s\n", humanize.Comma(int64(status.Indexed)))
		fmt.Fprintf(&b, "vocabulary:     %s", humanize.Comma(int64(status.Vocabulary)))
		if status.DiskUsageBytes != nil {
			fmt.Fprintf(&b, "\ndisk_usage:     %s", humanize.Bytes(uint64(*status.DiskUsageBytes)))
		}
		if status.DatabasePath != "" {
			fmt.Fprintf(&b, "\ndatabase_path:  %s", status.DatabasePath)
		}
		if status.IndexPath != "" {
			fmt.Fprintf(&b, "\nindex_path:     %s", status.IndexPath)
		}
		return b.String()
	})
}
