package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fossilbed/strata/internal/db"
	"fossilbed/strata/internal/vault"
)

// load reads the whole vault from the store. Every request sees current data.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*vault.Snapshot, bool) {
	records, err := s.db.AllFossils()
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	manual, err := s.db.ManualEdges()
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return s.vault.Snapshot(records, manual), true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, vault.ErrUnknownFossil), errors.Is(err, db.ErrFossilNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	report, err := s.vault.Analyze(r.Context(), snap)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleResurface(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	pick, pool := s.vault.Resurface(snap, q.Get("context"), q.Get("today"))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"fossil": pick,
		"pool":   pool,
	})
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "text required")
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"conflicts": nonNil(s.vault.Conflicts(snap, req.Text)),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, err1 := floatParam(q.Get("width"))
	height, err2 := floatParam(q.Get("height"))
	iterations, err3 := intParam(q.Get("iterations"))
	if err := errors.Join(err1, err2, err3); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.vault.Graph(snap, s.vault.LayoutOptions(width, height, iterations)))
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"clusters": nonNil(s.vault.Clusters(snap))})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"suggestions": nonNil(s.vault.Suggestions(snap))})
}

func (s *Server) handleBridges(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"bridges": nonNil(s.vault.Bridges(snap, nil))})
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	excludeChain, err := strconv.ParseBool(defaultString(r.URL.Query().Get("exclude_chain"), "false"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "exclude_chain must be a boolean")
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	related, err := s.vault.Related(snap, id, excludeChain)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "related": nonNil(related)})
}

func (s *Server) handleNeighborhood(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	neighbors, err := s.vault.Neighborhood(snap, id, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "neighbors": nonNil(neighbors)})
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string   `json:"source"`
		Target string   `json:"target"`
		Weight *float64 `json:"weight"`
		Reason string   `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Source == "" || req.Target == "" {
		s.writeError(w, http.StatusBadRequest, "source and target required")
		return
	}
	weight := 1.0
	if req.Weight != nil {
		weight = *req.Weight
	}
	id, err := s.db.AddManualEdge(req.Source, req.Target, weight, req.Reason)
	if err != nil {
		if errors.Is(err, db.ErrFossilNotFound) {
			s.fail(w, r, err)
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func floatParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("invalid number: " + v)
	}
	return f, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid integer: " + v)
	}
	return n, nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// nonNil keeps empty results encoding as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
