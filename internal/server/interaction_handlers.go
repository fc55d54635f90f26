package server

import (
	"net/http"
	"strconv"

	"newsengine/internal/core"

	"github.com/go-chi/chi/v5"
)

// handleRecordView handles POST
// /api/v1/users/{userID}/articles/{articleID}/view.
func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	articleID := chi.URLParam(r, "articleID")

	if err := s.eng.RecordView(r.Context(), userID, articleID); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleRecordDeepDive handles POST
// /api/v1/users/{userID}/articles/{articleID}/deep-dive.
func (s *Server) handleRecordDeepDive(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	articleID := chi.URLParam(r, "articleID")

	if err := s.eng.RecordDeepDive(r.Context(), userID, articleID); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleRecordNotInterested handles POST
// /api/v1/users/{userID}/articles/{articleID}/not-interested.
func (s *Server) handleRecordNotInterested(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	articleID := chi.URLParam(r, "articleID")

	if err := s.eng.RecordNotInterested(r.Context(), userID, articleID); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleGetInteractedIDs handles GET
// /api/v1/users/{userID}/interactions/ids?kinds=view,deep_dive.
func (s *Server) handleGetInteractedIDs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	kinds := parseKinds(r.URL.Query().Get("kinds"))

	ids, err := s.eng.GetInteractedIDs(r.Context(), userID, kinds)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"ids": out})
}

// handleGetInteractionHistory handles GET
// /api/v1/users/{userID}/interactions/history?kinds=view&limit=50.
func (s *Server) handleGetInteractionHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	kinds := parseKinds(r.URL.Query().Get("kinds"))

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	history, err := s.eng.GetInteractionHistory(r.Context(), userID, kinds, limit)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// handleGetStats handles GET /api/v1/users/{userID}/stats.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	stats, err := s.eng.GetStats(r.Context(), userID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func parseKinds(raw string) []core.InteractionKind {
	if raw == "" {
		return []core.InteractionKind{core.View, core.DeepDive, core.NotInterested}
	}
	names := splitCSV(raw)
	out := make([]core.InteractionKind, 0, len(names))
	for _, n := range names {
		k := core.InteractionKind(n)
		if k.Valid() {
			out = append(out, k)
		}
	}
	return out
}
