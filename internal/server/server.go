package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jonathan/seo-content-machine/internal/coder"
	"github.com/jonathan/seo-content-machine/internal/config"
	"github.com/jonathan/seo-content-machine/internal/db"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/metrics"
	"github.com/jonathan/seo-content-machine/internal/pipeline"
	"github.com/jonathan/seo-content-machine/internal/project"
	"github.com/jonathan/seo-content-machine/internal/server/middleware"
	"github.com/jonathan/seo-content-machine/internal/server/ratelimit"
	"github.com/jonathan/seo-content-machine/internal/sitemap"
	"github.com/jonathan/seo-content-machine/internal/strategist"
	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/jonathan/seo-content-machine/internal/vectordb"
	"github.com/jonathan/seo-content-machine/internal/writer"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 4 << 20

// Services are the components the handlers call. Nil services make the
// routes that need them answer 503.
type Services struct {
	Strategist  *strategist.Strategist
	Writer      *writer.Writer
	SERP        pipeline.SERPAnalyzer
	Competitors pipeline.CompetitorAnalyzer
	Coder       *coder.Coder
	Pages       *vectordb.Store
	Projects    *project.Manager
	DB          *db.DB
}

// Config holds server configuration
type Config struct {
	Port int
	// Auth enables bearer-token authentication when set.
	Auth *config.AuthConfig
	// RateLimit defaults to ratelimit.LoadConfig().
	RateLimit *ratelimit.Config
	// CMS is used for projects whose metadata names none.
	CMS string
	// Sitemap configures POST /sitemap/ingest.
	Sitemap sitemap.Options
	// TargetScore and MaxRewrites are pipeline defaults for requests that
	// leave them unset.
	TargetScore int
	MaxRewrites int
}

// Server represents the HTTP server
type Server struct {
	cfg         Config
	svc         Services
	httpServer  *http.Server
	rateLimiter *ratelimit.Limiter
	tokens      *TokenService
	handler     http.Handler
}

// New creates a new server instance
func New(cfg Config, svc Services) (*Server, error) {
	if svc.Projects == nil {
		return nil, errors.New("server: project manager is required")
	}

	s := &Server{cfg: cfg, svc: svc}

	if cfg.Auth != nil {
		if err := cfg.Auth.Validate(); err != nil {
			return nil, fmt.Errorf("invalid auth config: %w", err)
		}
		s.tokens = NewTokenService(cfg.Auth)
	}

	limits := cfg.RateLimit
	if limits == nil {
		limits = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(limits)

	// The limiter runs inside auth so it can key on the token subject.
	h := s.withRateLimit(s.withMetrics(s.routes()))
	if s.tokens != nil {
		h = middleware.Auth(s.tokens.AsTokenValidator(), "/health", "/metrics")(h)
	}
	s.handler = s.withLogging(s.withCORS(h))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Minute, // pipeline streams
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	// Research
	mux.HandleFunc("POST /topics", s.handleTopics)
	mux.HandleFunc("POST /keywords", s.handleKeywords)
	mux.HandleFunc("POST /serp", s.handleSERP)
	mux.HandleFunc("POST /competitors", s.handleCompetitors)
	mux.HandleFunc("POST /entities", s.handleEntities)
	mux.HandleFunc("POST /faq", s.handleFAQ)

	// Brand voice and audience
	mux.HandleFunc("POST /tov", s.handleToV)
	mux.HandleFunc("POST /tov/refine", s.handleRefineToV)
	mux.HandleFunc("POST /tov/competitor", s.handleCompetitorToV)
	mux.HandleFunc("POST /audience", s.handleAudience)
	mux.HandleFunc("POST /cjm", s.handleCJM)

	// Content
	mux.HandleFunc("POST /outline", s.handleOutline)
	mux.HandleFunc("POST /articles", s.handleWriteArticle)
	mux.HandleFunc("POST /articles/rewrite", s.handleRewriteArticle)
	mux.HandleFunc("POST /code", s.handleCode)
	mux.HandleFunc("POST /audit", s.handleAudit)
	mux.HandleFunc("POST /pipeline", s.handlePipeline)
	mux.HandleFunc("POST /pipeline/stream", s.handlePipelineStream)

	// Projects and the page index
	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("GET /projects/{brand}", s.handleGetProject)
	mux.HandleFunc("DELETE /projects/{brand}", s.handleDeleteProject)
	mux.HandleFunc("POST /projects/{brand}/assets", s.handleUploadAssets)
	mux.HandleFunc("POST /sitemap/ingest", s.handleSitemapIngest)
	mux.HandleFunc("GET /projects/{brand}/pages", s.handleListPages)
	mux.HandleFunc("GET /projects/{brand}/pages/similar", s.handleSimilarPages)

	// Stored articles and runs
	mux.HandleFunc("GET /articles", s.handleListArticles)
	mux.HandleFunc("GET /articles/{id}", s.handleGetArticle)
	mux.HandleFunc("DELETE /articles/{id}", s.handleDeleteArticle)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /runs/{id}", s.handleDeleteRun)
	mux.HandleFunc("GET /runs/{id}/artifacts/{step}", s.handleGetRunArtifact)
	mux.HandleFunc("GET /crawled-pages/by-url", s.handleGetCrawledPageByURL)

	return mux
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	log := logging.Component("server")
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Bool("auth", s.tokens != nil).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// Close releases the rate limiter without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

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
		allowed, info := s.rateLimiter.Allow(clientOf(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status. It passes Flush through so
// SSE handlers can stream.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		logging.Component("http").Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.code()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// withMetrics records request metrics labelled by route pattern. It wraps
// the mux directly so the matched pattern is visible afterwards.
func (s *Server) withMetrics(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		mux.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(r.Method, route, rec.code(), start)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if s.svc.DB != nil {
		if err := s.svc.DB.Ping(r.Context()); err != nil {
			status["database"] = "unreachable"
		} else {
			status["database"] = "ok"
		}
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Component("http").Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to a status code and writes it. Server errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.Component("http").Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	s.errorResponse(w, status, err.Error())
}

// decode reads a JSON body into v and checks its validate tags.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			s.errorResponse(w, http.StatusBadRequest, "Request body is required")
		} else {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		}
		return false
	}
	if err := types.ValidateRequest(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// require writes 503 and returns false when a service is missing.
func (s *Server) require(w http.ResponseWriter, r *http.Request, ok bool, service string) bool {
	if !ok {
		s.fail(w, r, &ErrUnavailable{Service: service})
	}
	return ok
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &ErrValidation{Field: name, Message: "must be a non-negative integer"}
	}
	return n, nil
}

// clientOf identifies the caller by token subject when auth has run and by
// RemoteAddr IP otherwise. Forwarded headers are not trusted.
func clientOf(r *http.Request) ratelimit.Client {
	c := ratelimit.Client{IP: r.RemoteAddr}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		c.IP = ip
	}
	if subject, err := middleware.Subject(r); err == nil {
		c.Subject = subject
	}
	return c
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	client := clientOf(r)
	logging.Component("ratelimit").Warn().
		Str("subject", client.Subject).
		Str("ip", client.IP).
		Str("path", r.URL.Path).
		Int("limit", info.Limit).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
