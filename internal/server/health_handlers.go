package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"newsengine/internal/core"

	"github.com/go-chi/chi/v5"
)

// handleGetInfoHealth handles GET /api/v1/users/{userID}/health/info.
func (s *Server) handleGetInfoHealth(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	rec, err := s.eng.GetInfoHealth(r.Context(), userID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

// handleGetHierarchicalHealth handles GET
// /api/v1/users/{userID}/health/hierarchical.
func (s *Server) handleGetHierarchicalHealth(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	h, err := s.eng.GetHierarchicalHealth(r.Context(), userID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, h)
}

type groupSimilarArticlesRequest struct {
	Articles []core.Article `json:"articles"`
	Tau      float64        `json:"tau"`
}

// handleGroupSimilarArticles handles POST
// /api/v1/users/{userID}/health/group. It is a pure function over the
// supplied article list, not the user's stored corpus.
func (s *Server) handleGroupSimilarArticles(w http.ResponseWriter, r *http.Request) {
	var req groupSimilarArticlesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	groups := s.eng.GroupSimilarArticles(req.Articles, req.Tau)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// handleRecordHealthSnapshot handles POST
// /api/v1/users/{userID}/health/snapshot.
func (s *Server) handleRecordHealthSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := s.eng.RecordHealthSnapshot(r.Context(), userID); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleGetHealthHistory handles GET
// /api/v1/users/{userID}/health/history?days=30.
func (s *Server) handleGetHealthHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			days = v
		}
	}

	history, err := s.eng.GetHealthHistory(r.Context(), userID, days)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}
