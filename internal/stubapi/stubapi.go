// Package stubapi is a deterministic local stand-in for the Optimization API.
// It scores resumes by keyword overlap and renders a real PDF, so the site can
// be developed and tested end to end without the AI backend.
package stubapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Service identifies the stub in health responses.
const Service = "tailorhire-stub-api"

// Error details returned in {"detail": ...} bodies.
const (
	DetailEmptyInput = "Resume text and job description cannot be empty."
	DetailNoFile     = "No file uploaded."
	DetailTooLarge   = "File too large."
)

// maxUploadBytes matches the site's own upload limit.
const maxUploadBytes = 10 << 20

// Config configures the stub.
type Config struct {
	Version string
	// Delay is added to every optimize call to mimic model latency.
	Delay time.Duration
}

// Server serves the stub endpoints.
type Server struct {
	version string
	delay   time.Duration
	now     func() time.Time
}

// New creates a stub server.
func New(cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "stub"
	}
	return &Server{version: version, delay: cfg.Delay, now: time.Now}
}

// Handler returns the stub's routes. Paths mirror the real API, which is
// rooted at /api with health checks at /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/optimize", s.handleOptimize)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

// OptimizeRequest is the body of POST /api/optimize.
type OptimizeRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	UserID         string `json:"user_id,omitempty"`
}

// OptimizeResponse is the body returned by POST /api/optimize.
type OptimizeResponse struct {
	OptimizedResumePDFBase64 string         `json:"optimized_resume_pdf_base64"`
	OriginalResumeText       string         `json:"original_resume_text"`
	OptimizedResumeJSON      map[string]any `json:"optimized_resume_json"`
	MatchScore               float64        `json:"match_score"`
	KeyChanges               []string       `json:"key_changes"`
	Suggestions              []string       `json:"suggestions"`
	ProcessingTime           float64        `json:"processing_time"`
}

// UploadResponse is the body returned by POST /api/upload.
type UploadResponse struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Length   int    `json:"length"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	start := s.now()

	var req OptimizeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		s.detailResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	resp, err := Optimize(req.ResumeText, req.JobDescription)
	if err != nil {
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			s.detailResponse(w, http.StatusBadRequest, inputErr.Detail)
			return
		}
		log.Error().Err(err).Msg("stub optimize failed")
		s.detailResponse(w, http.StatusInternalServerError, "Failed to generate PDF.")
		return
	}
	resp.ProcessingTime = s.now().Sub(start).Seconds()

	log.Info().
		Float64("match_score", resp.MatchScore).
		Int("key_changes", len(resp.KeyChanges)).
		Msg("stub optimization complete")
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.detailResponse(w, http.StatusRequestEntityTooLarge, DetailTooLarge)
			return
		}
		s.detailResponse(w, http.StatusBadRequest, DetailNoFile)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.detailResponse(w, http.StatusBadRequest, DetailNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.detailResponse(w, http.StatusBadRequest, DetailNoFile)
		return
	}

	text := ExtractText(header.Filename, data)
	s.jsonResponse(w, http.StatusOK, UploadResponse{
		Text:     text,
		Filename: header.Filename,
		Length:   len(text),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": Service,
		"version": s.version,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error encoding JSON response")
	}
}

// detailResponse writes an error body in the API's {"detail": ...} shape.
func (s *Server) detailResponse(w http.ResponseWriter, status int, detail string) {
	s.jsonResponse(w, status, map[string]string{"detail": detail})
}
