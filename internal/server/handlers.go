package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"newsengine/internal/engine"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if err := s.eng.Ping(r.Context()); err != nil {
		checks["store"] = "error"
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Checks: checks})
		return
	}

	checks["store"] = "ok"
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}

// respondJSON writes a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
	})
}

// boundaryErrors maps the engine's typed validation errors (spec §7 "Invalid
// input") to 400; anything else is a 500.
var boundaryErrors = []error{
	engine.ErrEmptyUserID,
	engine.ErrFilterStrengthOutOfRange,
	engine.ErrTopNOutOfRange,
	engine.ErrDimensionMismatch,
	engine.ErrInsufficientVotes,
	engine.ErrNoUsableEmbeddings,
}

// respondEngineError classifies and writes an error returned by the engine.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	for _, be := range boundaryErrors {
		if errors.Is(err, be) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	s.log.Error("engine call failed", "error", err)
	s.respondError(w, http.StatusInternalServerError, "internal error")
}
