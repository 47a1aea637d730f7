package fileid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestContentHash(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "sub", "renamed.md")
	c := filepath.Join(dir, "c.txt")
	if err := os.MkdirAll(filepath.Dir(b), 0755); err != nil {
		t.Fatal(err)
	}
	for path, content := range map[string]string{a: "same bytes", b: "same bytes", c: "other bytes"} {
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	ha, err := ContentHash(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, _ := ContentHash(b)
	hc, _ := ContentHash(c)
	if ha != hb {
		t.Errorf("same content should give same hash: %q vs %q", ha, hb)
	}
	if ha == hc {
		t.Errorf("different content should give different hashes: %q", ha)
	}
	if len(ha) != 64 {
		t.Errorf("hash should be 64 hex chars, got %d", len(ha))
	}
}

func TestHashReader_knownValue(t *testing.T) {
	got, err := HashReader(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != empty {
		t.Errorf("HashReader(\"\") = %s, want %s", got, empty)
	}
}

func TestContentHash_missingFile(t *testing.T) {
	if _, err := ContentHash(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
