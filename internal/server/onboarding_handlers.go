package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleIsOnboarded handles GET /api/v1/users/{userID}/onboarded.
func (s *Server) handleIsOnboarded(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	onboarded, err := s.eng.IsOnboarded(r.Context(), userID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"onboarded": onboarded})
}

// handleGetOnboardingArticles handles GET
// /api/v1/users/{userID}/onboarding-articles?categories=a,b&n=10.
func (s *Server) handleGetOnboardingArticles(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	_ = userID // onboarding sample selection is not user-specific, see spec §4.2

	categories := splitCSV(r.URL.Query().Get("categories"))
	n := 30
	if raw := r.URL.Query().Get("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			n = v
		}
	}

	articles, err := s.eng.OnboardingArticles(r.Context(), categories, n)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"articles": articles})
}

type completeOnboardingRequest struct {
	LikedIDs    []string `json:"liked_ids"`
	DislikedIDs []string `json:"disliked_ids"`
}

// handleCompleteOnboarding handles POST /api/v1/users/{userID}/onboarding.
func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req completeOnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.eng.CompleteOnboarding(r.Context(), userID, req.LikedIDs, req.DislikedIDs); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
