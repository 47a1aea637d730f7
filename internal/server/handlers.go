package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/paperbox/internal/corpus"
	"github.com/hyperjump/paperbox/internal/engine"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/render"
	"github.com/hyperjump/paperbox/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Stats(r.Context())
	if err != nil {
		s.respondErr(w, "status", err)
		return
	}
	status.DatabasePath = s.config.Storage.DatabasePath
	status.IndexPath = s.config.Storage.IndexPath
	if usage, err := storage.DiskUsage(s.config.Storage.DatabasePath, s.config.Storage.IndexPath); err == nil {
		total := usage.Total()
		status.DiskUsageBytes = &total
	}
	s.respondJSON(w, http.StatusOK, status)
}

type ingestRequest struct {
	Paths []string `json:"paths"`
}

// handleIngest ingests server-side paths. Any path readable by the process is accepted; see
// config.ServerConfig for why the default host is loopback only.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Paths) == 0 {
		s.respondError(w, http.StatusBadRequest, "paths is required")
		return
	}
	s.logger.Debug("ingest request", zap.Strings("paths", req.Paths))
	report, err := s.ingester.Ingest(r.Context(), req.Paths...)
	if err != nil {
		s.respondErr(w, "ingest", err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondErr(w, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		s.respondErr(w, "list documents", err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		s.respondErr(w, "list documents", err)
		return
	}
	docs, err := s.engine.Documents(r.Context(), offset, limit)
	if err != nil {
		s.respondErr(w, "list documents", err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondErr(w, "get document", err)
		return
	}
	doc, err := s.engine.Document(r.Context(), id)
	if err != nil {
		s.respondErr(w, "get document", err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondErr(w, "delete document", err)
		return
	}
	s.logger.Debug("delete document request", zap.Int64("id", id))
	if err := s.ingester.DeleteDocument(r.Context(), id); err != nil {
		s.respondErr(w, "delete document", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondErr(w, "summarize", err)
		return
	}
	n, err := intParam(r, "sentences", s.config.Analytics.SentenceCount)
	if err != nil {
		s.respondErr(w, "summarize", err)
		return
	}
	scope, err := scopeParam(r, 0)
	if err != nil {
		s.respondErr(w, "summarize", err)
		return
	}
	summary, err := s.engine.Summarize(r.Context(), id, n, scope)
	if err != nil {
		s.respondErr(w, "summarize", err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	a, err := requiredInt64(r, "a")
	if err != nil {
		s.respondErr(w, "compare", err)
		return
	}
	b, err := requiredInt64(r, "b")
	if err != nil {
		s.respondErr(w, "compare", err)
		return
	}
	top, err := intParam(r, "top_terms", s.config.Analytics.TopTerms)
	if err != nil {
		s.respondErr(w, "compare", err)
		return
	}
	scope, err := scopeParam(r, 0)
	if err != nil {
		s.respondErr(w, "compare", err)
		return
	}
	cmp, err := s.engine.Compare(r.Context(), a, b, top, scope)
	if err != nil {
		s.respondErr(w, "compare", err)
		return
	}
	s.respondJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	threshold := s.config.Analytics.ThresholdOrDefault()
	if v := r.URL.Query().Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.respondErr(w, "graph", models.InvalidArgumentf("graph", "invalid threshold %q", v))
			return
		}
		threshold = f
	}
	maxNodes, err := intParam(r, "max_nodes", s.config.Analytics.MaxNodes)
	if err != nil {
		s.respondErr(w, "graph", err)
		return
	}
	format := render.FormatJSON
	if v := r.URL.Query().Get("format"); v != "" {
		if format, err = render.ParseFormat(v); err != nil {
			s.respondErr(w, "graph", err)
			return
		}
	}
	scope, err := scopeParam(r, maxNodes)
	if err != nil {
		s.respondErr(w, "graph", err)
		return
	}
	g, err := s.engine.Graph(r.Context(), threshold, scope)
	if err != nil {
		s.respondErr(w, "graph", err)
		return
	}
	if format == render.FormatJSON {
		s.respondJSON(w, http.StatusOK, g)
		return
	}
	out, err := render.Graph(g, format)
	if err != nil {
		s.respondErr(w, "graph", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out + "\n"))
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, models.InvalidArgumentf("request", "invalid document id %q", raw)
	}
	return id, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.InvalidArgumentf("request", "invalid %s %q", name, raw)
	}
	return n, nil
}

func requiredInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, models.InvalidArgumentf("request", "%s is required", name)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, models.InvalidArgumentf("request", "invalid %s %q", name, raw)
	}
	return n, nil
}

// scopeParam reads the optional ids=1,2,3 selection.
func scopeParam(r *http.Request, maxDocuments int) (engine.Scope, error) {
	ids, err := corpus.ParseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		return engine.Scope{}, err
	}
	return engine.Scope{IDs: ids, MaxDocuments: maxDocuments}, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps error kinds to status codes. Errors without a kind are logged and reported
// as internal errors.
func (s *Server) respondErr(w http.ResponseWriter, op string, err error) {
	switch models.KindOf(err) {
	case models.KindInvalidArgument:
		s.respondError(w, http.StatusBadRequest, err.Error())
	case models.KindNotFound:
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}
