package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/paperbox/internal/config"
	"github.com/hyperjump/paperbox/internal/engine"
	"github.com/hyperjump/paperbox/internal/extract"
	"github.com/hyperjump/paperbox/internal/ingest"
	"github.com/hyperjump/paperbox/internal/keyword"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/storage"
)

type testServer struct {
	handler http.Handler
	dir     string
	ids     map[string]int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	kwIdx, err := keyword.NewBleveIndex(cfg.Storage.IndexPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kwIdx.Close() })

	logger := zap.NewNop()
	ing := ingest.NewIngester(store, kwIdx, extract.NewExtractor(), ingest.WithLogger(logger))
	eng := engine.NewEngine(store, kwIdx, engine.WithLogger(logger), engine.WithSuggester(keyword.NewSuggester(kwIdx)))

	files := map[string]string{
		"basics.txt": "Pasta Basics\n\nBoil the pasta in salted water. Drain the pasta and keep some water. Toss the pasta with oil.",
		"sauce.txt":  "Pasta Sauce\n\nSimmer tomatoes for the sauce. Toss the pasta with the sauce. Grate cheese over the pasta.",
		"bread.txt":  "Sourdough Bread\n\nFeed the starter every morning. Knead the dough slowly. Bake the bread in a hot oven.",
	}
	in := filepath.Join(dir, "in")
	if err := os.MkdirAll(in, 0755); err != nil {
		t.Fatal(err)
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(in, name), []byte(text), 0600); err != nil {
			t.Fatal(err)
		}
	}
	report, err := ing.Ingest(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]int64{}
	for _, r := range report.Results {
		ids[filepath.Base(r.Path)] = r.DocID
	}
	return &testServer{handler: NewServer(eng, ing, cfg, logger).Router(), dir: dir, ids: ids}
}

func (ts *testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var status models.Status
	decode(t, w, &status)
	if status.Documents != 3 || status.Indexed != 3 {
		t.Errorf("documents=%d indexed=%d, want 3/3", status.Documents, status.Indexed)
	}
	if status.DiskUsageBytes == nil || *status.DiskUsageBytes <= 0 {
		t.Error("expected disk usage")
	}
}

func TestHandleListAndGetDocuments(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/v1/documents?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var list struct {
		Documents []models.Document `json:"documents"`
	}
	decode(t, w, &list)
	if len(list.Documents) != 2 {
		t.Fatalf("listing: got %d documents, want 2", len(list.Documents))
	}
	if list.Documents[0].Text != "" {
		t.Error("listing should not include text")
	}

	id := ts.ids["basics.txt"]
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/documents/%d", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: got %d", w.Code)
	}
	var doc models.Document
	decode(t, w, &doc)
	if doc.Title != "Pasta Basics" || !strings.Contains(doc.Text, "salted water") {
		t.Errorf("get: got title=%q text=%q", doc.Title, doc.Text)
	}

	cases := []struct {
		target string
		want   int
	}{
		{"/api/v1/documents/9999", http.StatusNotFound},
		{"/api/v1/documents/abc", http.StatusBadRequest},
		{"/api/v1/documents?limit=x", http.StatusBadRequest},
	}
	for _, tc := range cases {
		if w := ts.do(t, http.MethodGet, tc.target, nil); w.Code != tc.want {
			t.Errorf("GET %s: got %d, want %d", tc.target, w.Code, tc.want)
		}
	}
}

func TestHandleDeleteDocument(t *testing.T) {
	ts := newTestServer(t)
	target := fmt.Sprintf("/api/v1/documents/%d", ts.ids["bread.txt"])
	if w := ts.do(t, http.MethodDelete, target, nil); w.Code != http.StatusOK {
		t.Fatalf("delete: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, target, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", w.Code)
	}
	if w := ts.do(t, http.MethodDelete, target, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", w.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/v1/search", models.SearchQuery{Query: "pasta", Limit: 5})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp models.SearchResponse
	decode(t, w, &resp)
	if resp.Total != 2 {
		t.Errorf("hits: got %d, want 2", resp.Total)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/search", models.SearchQuery{Query: "pastaa", Fuzzy: true})
	resp = models.SearchResponse{}
	decode(t, w, &resp)
	if resp.Total != 2 || !resp.Fuzzy {
		t.Errorf("fuzzy search: got %d hits, fuzzy=%v, want 2 and true", resp.Total, resp.Fuzzy)
	}

	if w := ts.do(t, http.MethodPost, "/api/v1/search", models.SearchQuery{Query: " "}); w.Code != http.StatusBadRequest {
		t.Errorf("empty query: got %d, want 400", w.Code)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: got %d, want 400", rec.Code)
	}
}

func TestHandleSummary(t *testing.T) {
	ts := newTestServer(t)
	id := ts.ids["basics.txt"]
	w := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/documents/%d/summary?sentences=2", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var s models.Summary
	decode(t, w, &s)
	if s.DocumentID != id || len(s.Sentences) != 2 {
		t.Errorf("summary: got doc=%d sentences=%d", s.DocumentID, len(s.Sentences))
	}

	cases := []struct {
		target string
		want   int
	}{
		{fmt.Sprintf("/api/v1/documents/%d/summary?sentences=0", id), http.StatusBadRequest},
		{fmt.Sprintf("/api/v1/documents/%d/summary?ids=%d", id, ts.ids["bread.txt"]), http.StatusNotFound},
		{"/api/v1/documents/9999/summary", http.StatusNotFound},
	}
	for _, tc := range cases {
		if w := ts.do(t, http.MethodGet, tc.target, nil); w.Code != tc.want {
			t.Errorf("GET %s: got %d, want %d", tc.target, w.Code, tc.want)
		}
	}
}

func TestHandleCompare(t *testing.T) {
	ts := newTestServer(t)
	a, b := ts.ids["basics.txt"], ts.ids["sauce.txt"]
	w := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/compare?a=%d&b=%d&top_terms=3", a, b), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var cmp models.Comparison
	decode(t, w, &cmp)
	if cmp.Similarity <= 0 || cmp.Similarity > 1 {
		t.Errorf("similarity out of range: %v", cmp.Similarity)
	}
	if len(cmp.Shared) > 3 || len(cmp.UniqueA) > 3 || len(cmp.UniqueB) > 3 {
		t.Error("term lists must be truncated to top_terms")
	}

	cases := []struct {
		target string
		want   int
	}{
		{fmt.Sprintf("/api/v1/compare?a=%d", a), http.StatusBadRequest},
		{fmt.Sprintf("/api/v1/compare?a=%d&b=%d", a, a), http.StatusBadRequest},
		{fmt.Sprintf("/api/v1/compare?a=%d&b=9999", a), http.StatusNotFound},
		{fmt.Sprintf("/api/v1/compare?a=%d&b=%d&ids=1,x", a, b), http.StatusBadRequest},
	}
	for _, tc := range cases {
		if w := ts.do(t, http.MethodGet, tc.target, nil); w.Code != tc.want {
			t.Errorf("GET %s: got %d, want %d", tc.target, w.Code, tc.want)
		}
	}
}

func TestHandleGraph(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/v1/graph?threshold=0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var g models.Graph
	decode(t, w, &g)
	if len(g.Nodes) != 3 || len(g.Edges) != 3 {
		t.Errorf("graph: got %d nodes %d edges, want 3/3", len(g.Nodes), len(g.Edges))
	}

	w = ts.do(t, http.MethodGet, "/api/v1/graph?threshold=0&format=mermaid&max_nodes=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mermaid: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type: got %q", ct)
	}
	out := w.Body.String()
	if !strings.HasPrefix(out, "```mermaid\ngraph TD\n") || strings.Count(out, "---|") != 1 {
		t.Errorf("mermaid output:\n%s", out)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/graph?format=dot", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "graph G {") {
		t.Errorf("dot: got %d:\n%s", w.Code, w.Body.String())
	}

	for _, target := range []string{
		"/api/v1/graph?threshold=1.5",
		"/api/v1/graph?threshold=abc",
		"/api/v1/graph?format=svg",
		"/api/v1/graph?max_nodes=many",
	} {
		if w := ts.do(t, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("GET %s: got %d, want 400", target, w.Code)
		}
	}
}

func TestHandleIngest(t *testing.T) {
	ts := newTestServer(t)
	extra := filepath.Join(ts.dir, "extra.md")
	if err := os.WriteFile(extra, []byte("# Noodle Shapes\nFarfalle and fusilli hold sauce."), 0600); err != nil {
		t.Fatal(err)
	}
	w := ts.do(t, http.MethodPost, "/api/v1/ingest", ingestRequest{Paths: []string{extra}})
	if w.Code != http.StatusOK {
		t.Fatalf("ingest: got %d: %s", w.Code, w.Body.String())
	}
	var report ingest.Report
	decode(t, w, &report)
	if len(report.Results) != 1 || report.Results[0].Status != ingest.StatusNew {
		t.Errorf("ingest report: %+v", report.Results)
	}

	if w := ts.do(t, http.MethodPost, "/api/v1/ingest", ingestRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("no paths: got %d, want 400", w.Code)
	}
	missing := ingestRequest{Paths: []string{filepath.Join(ts.dir, "missing")}}
	if w := ts.do(t, http.MethodPost, "/api/v1/ingest", missing); w.Code != http.StatusNotFound {
		t.Errorf("missing path: got %d, want 404", w.Code)
	}
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"[::1]", true},
		{"", false},
		{"0.0.0.0", false},
		{"192.168.1.10", false},
		{"example.com", false},
	}
	for _, tt := range tests {
		if got := isLoopback(tt.host); got != tt.want {
			t.Errorf("isLoopback(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
