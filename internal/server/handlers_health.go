package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
	})
}

// handleUpstreamHealth reports whether the Optimization API is reachable.
func (s *Server) handleUpstreamHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.optimizer.Health(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("optimization API unreachable")
		s.errorResponse(w, http.StatusServiceUnavailable, "optimization API unavailable")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"upstream": health,
	})
}
