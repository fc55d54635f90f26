package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleRank handles GET
// /api/v1/users/{userID}/feed?filter_strength=0.5&n=30.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	filterStrength := 0.5
	if raw := r.URL.Query().Get("filter_strength"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filterStrength = v
		}
	}
	n := 30
	if raw := r.URL.Query().Get("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			n = v
		}
	}

	ranked, err := s.eng.Rank(r.Context(), userID, filterStrength, n)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"articles": ranked})
}
