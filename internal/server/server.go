// Package server serves the TailorHire website: the resume optimizer flow,
// optimization results, and the blog.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/tailorhire/internal/blob"
	"github.com/jonathan/tailorhire/internal/config"
	"github.com/jonathan/tailorhire/internal/optimizer"
	"github.com/jonathan/tailorhire/internal/rendering"
	"github.com/jonathan/tailorhire/internal/results"
	"github.com/jonathan/tailorhire/internal/richtext"
	"github.com/jonathan/tailorhire/internal/server/middleware"
	"github.com/jonathan/tailorhire/internal/server/ratelimit"
	"github.com/jonathan/tailorhire/internal/types"
)

// ArticleSource provides blog articles.
type ArticleSource interface {
	ListArticles(ctx context.Context) []types.Article
	GetArticleBySlug(ctx context.Context, slug string) (*types.Article, bool, error)
}

// Optimizer is the Optimization API.
type Optimizer interface {
	Optimize(ctx context.Context, req *types.OptimizeRequest) (*types.OptimizationResult, error)
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (*types.UploadResponse, error)
	Health(ctx context.Context) (*optimizer.Health, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	handler        http.Handler
	articles       ArticleSource
	optimizer      Optimizer
	pages          *rendering.Renderer
	richText       *richtext.Renderer
	results        *results.Store
	blobs          *blob.Store
	rateLimiter    *ratelimit.Limiter
	allowedOrigins map[string]bool
	version        string
}

// Config holds server configuration
type Config struct {
	Site      *config.Config
	Articles  ArticleSource
	Optimizer Optimizer
	// RateLimit defaults to ratelimit.LoadConfig().
	RateLimit *ratelimit.Config
	Version   string
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Articles == nil || cfg.Optimizer == nil {
		return nil, errors.New("server requires an article source and an optimizer")
	}
	site := cfg.Site
	if site == nil {
		defaults := config.Default()
		site = &defaults
	}

	pages, err := rendering.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load page templates: %w", err)
	}
	policy, err := richtext.ParseUnknownBlockPolicy(site.UnknownBlocks)
	if err != nil {
		return nil, err
	}

	rateConfig := cfg.RateLimit
	if rateConfig == nil {
		rateConfig = ratelimit.LoadConfig()
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		articles:  cfg.Articles,
		optimizer: cfg.Optimizer,
		pages:     pages,
		richText: richtext.NewRenderer(richtext.Options{
			DefaultHeadingLevel: site.HeadingDefaultLevel,
			UnknownBlocks:       policy,
		}),
		results:        results.NewStore(results.DefaultStoreSize, results.DefaultStoreTTL),
		blobs:          blob.NewStore(blob.DefaultSize, blob.DefaultTTL),
		rateLimiter:    ratelimit.NewLimiter(rateConfig),
		allowedOrigins: make(map[string]bool, len(site.AllowedOrigins)),
		version:        version,
	}
	for _, origin := range site.AllowedOrigins {
		s.allowedOrigins[strings.TrimRight(origin, "/")] = true
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /upload/clear", s.handleUploadClear)
	mux.HandleFunc("GET /blobs/{id}", s.handleBlob)
	mux.HandleFunc("POST /optimize", s.handleOptimize)
	mux.HandleFunc("GET /results/{id}", s.handleResult)
	mux.HandleFunc("GET /results/{id}/download", s.handleDownload)

	mux.HandleFunc("GET /blog", s.handleBlogList)
	mux.HandleFunc("GET /blog/{slug}", s.handleBlogPost)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz/upstream", s.handleUpstreamHealth)

	mux.HandleFunc("/", s.handleNotFound)

	recoverer := middleware.Recover(s.handlePanic)
	s.handler = middleware.RequestID(recoverer(s.withLogging(s.withCORS(s.withRateLimit(mux)))))

	s.httpServer = &http.Server{
		Addr:         site.Addr(),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: site.OptimizeTimeout.Std() + 30*time.Second, // optimize calls run long
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()

	log.Info().Msg("server stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers. Without configured origins any origin is allowed.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.allowedOrigins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && s.allowedOrigins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging. Handlers reach the request-scoped logger
// through zerolog.Ctx.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := log.With().Str("request_id", middleware.GetRequestID(r)).Logger()
		rec := middleware.NewStatusRecorder(w)

		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))

		event := logger.Info()
		if rec.Status >= http.StatusInternalServerError {
			event = logger.Error()
		} else if rec.Status >= http.StatusBadRequest {
			event = logger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.Status).
			Int("bytes", rec.Bytes).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request completed")
	})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response. Browsers get the
// error page; API clients get JSON.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	retryAfter := int(info.RetryAfter.Seconds() + 0.999)
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	}

	log.Warn().
		Str("request_id", middleware.GetRequestID(r)).
		Str("path", r.URL.Path).
		Int("limit", info.Limit).
		Time("reset_at", info.ResetTime).
		Msg("rate limit exceeded")

	if wantsHTML(r) {
		s.render(w, r, http.StatusTooManyRequests, rendering.PageError, rendering.ErrorPage{
			Page:     s.page(r, "Too Many Requests", &rendering.Flash{Kind: rendering.FlashError, Message: rateLimitMessage}),
			Message:  rateLimitMessage,
			RetryURL: retryURL(r),
		})
		return
	}

	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   rateLimitMessage,
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		response["retry_after"] = retryAfter
	}
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

const rateLimitMessage = "Rate limit exceeded. Please try again later."

// handlePanic renders the error boundary page.
func (s *Server) handlePanic(w http.ResponseWriter, r *http.Request, _ any) {
	s.renderError(w, r, http.StatusInternalServerError)
}

// renderError renders the fallback page offering to retry the request.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	s.render(w, r, status, rendering.PageError, rendering.ErrorPage{
		Page:     s.page(r, "Something went wrong", nil),
		RetryURL: retryURL(r),
	})
}

// renderNotFound renders the 404 page for a missing resource.
func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request, err *ErrNotFound) {
	zerolog.Ctx(r.Context()).Debug().Err(err).Msg("not found")
	s.render(w, r, HTTPStatus(err), rendering.PageNotFound, s.page(r, "Page Not Found", nil))
}

// retryURL is the current URL for safe requests and the home page otherwise.
func retryURL(r *http.Request) string {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.RequestURI()
	}
	return "/"
}

func wantsHTML(r *http.Request) bool {
	if accept := r.Header.Get("Accept"); accept != "" {
		return strings.Contains(accept, "text/html")
	}
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "multipart/form-data") ||
		strings.HasPrefix(contentType, "application/x-www-form-urlencoded")
}

// page fills the shared page fields.
func (s *Server) page(r *http.Request, title string, flash *rendering.Flash) rendering.Page {
	return rendering.Page{
		Title:     title,
		Flash:     flash,
		RequestID: middleware.GetRequestID(r),
	}
}

// render writes a page with the given status. Template failures fall back to
// a plain-text 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.Render(&buf, name, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("failed to write page")
	}
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
