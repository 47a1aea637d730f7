// Package server provides the HTTP API for paperbox.
package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/paperbox/internal/config"
	"github.com/hyperjump/paperbox/internal/engine"
	"github.com/hyperjump/paperbox/internal/ingest"
	"github.com/hyperjump/paperbox/pkg/utils"
)

// Server is the HTTP server for the paperbox API.
type Server struct {
	engine   *engine.Engine
	ingester *ingest.Ingester
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(eng *engine.Engine, ing *ingest.Ingester, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		engine:   eng,
		ingester: ing,
		config:   cfg,
		logger:   utils.NopIfNil(logger),
	}
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/ingest", s.handleIngest)
		r.Post("/search", s.handleSearch)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Delete("/documents/{id}", s.handleDeleteDocument)
		r.Get("/documents/{id}/summary", s.handleSummary)
		r.Get("/compare", s.handleCompare)
		r.Get("/graph", s.handleGraph)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Address()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           middleware.Logger(s.Router()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	if !isLoopback(s.config.Server.Host) {
		s.logger.Warn("server is reachable from other hosts; POST /api/v1/ingest reads any path this process can read",
			zap.String("host", s.config.Server.Host))
	}
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// isLoopback reports whether host only accepts local connections. An empty host listens on
// every interface.
func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}
