package e2e

import (
	"strings"
	"testing"

	"github.com/hyperjump/paperbox/internal/extract"
	"github.com/hyperjump/paperbox/internal/ingest"
)

func TestEncode_everyFormatExtracts(t *testing.T) {
	e := extract.NewExtractor()
	title, body := "Harbor 1", "Tugboats nudge freighters toward the crowded harbor berth. zqbb."
	for _, ext := range FileExtensions {
		t.Run(ext, func(t *testing.T) {
			content, err := Encode(ext, title, body)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := e.ExtractBytes(content, ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			text := ingest.Normalize(got)
			if !strings.Contains(text, body) {
				t.Errorf("extracted text %q does not contain body", text)
			}
			if g := ingest.GuessTitle("/x/harbor-1"+ext, text); !strings.HasSuffix(g, title) {
				t.Errorf("GuessTitle = %q, want %q", g, title)
			}
		})
	}
}

func TestEncode_unknownExtension(t *testing.T) {
	if _, err := Encode(".pptx", "t", "b"); err == nil {
		t.Fatal("expected an error for .pptx")
	}
}

func TestWriteCorpus(t *testing.T) {
	docs := BuildCorpus()
	paths, err := WriteCorpus(t.TempDir(), docs)
	if err != nil {
		t.Fatalf("WriteCorpus: %v", err)
	}
	if len(paths) != len(docs) {
		t.Fatalf("wrote %d files, want %d", len(paths), len(docs))
	}
	if !strings.HasSuffix(paths[docs[3].Key], ".docx") {
		t.Errorf("document 3 written as %s, want .docx", paths[docs[3].Key])
	}
}
