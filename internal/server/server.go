// Package server exposes the vault analyses over HTTP.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fossilbed/strata/internal/db"
	"fossilbed/strata/internal/vault"
)

// Server is the strata HTTP API server.
type Server struct {
	db      *db.DB
	vault   *vault.Vault
	metrics http.Handler
	logger  *slog.Logger
	router  chi.Router
	version string
	started time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the logger used for request failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new Server over the given store and vault.
func New(store *db.DB, v *vault.Vault, version string, opts ...Option) *Server {
	s := &Server{
		db:      store,
		vault:   v,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		version: version,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/analyze", s.handleAnalyze)
		r.Get("/resurface", s.handleResurface)
		r.Post("/conflicts", s.handleConflicts)
		r.Get("/graph", s.handleGraph)
		r.Get("/clusters", s.handleClusters)
		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/bridges", s.handleBridges)
		r.Post("/edges", s.handleAddEdge)

		r.Get("/fossils/{id}/related", s.handleRelated)
		r.Get("/fossils/{id}/neighborhood", s.handleNeighborhood)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Conn().Ping(); err != nil {
		dbOK = false
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

// writeJSON encodes v before writing the status; encoding failures become a 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding response", slog.String("error", err.Error()))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
