// Package server exposes the engine over HTTP. Customer-facing routes
// (consume, unique review) are public; generation and model administration
// require a service token.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"reviewloop/internal/app"
	"reviewloop/internal/servicetoken"
	"reviewloop/internal/util"
	"reviewloop/pkg/domain"
	"reviewloop/pkg/queue"
	"reviewloop/pkg/store"
)

// Enqueuer hands replenishment work to a durable queue. Nil-able; without
// one the server replenishes inline.
type Enqueuer interface {
	Enqueue(ctx context.Context, categoryID, businessID string) (queue.ReplenishJob, error)
}

// Limiter throttles the public widget routes per client IP. Nil-able.
type Limiter interface {
	Allow(key string) bool
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                *app.App
	Queue              Enqueuer
	Limiter            Limiter
	TrustedProxies     *util.TrustedProxies
	ServiceTokenSecret string
	AllowedIssuers     []string
}

// Server exposes HTTP endpoints for the review template engine.
type Server struct {
	app      *app.App
	queue    Enqueuer
	limiter  Limiter
	trusted  *util.TrustedProxies
	verifier *servicetoken.Verifier
	mux      *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	issuers := cfg.AllowedIssuers
	if len(issuers) == 0 {
		issuers = []string{"admin-cli"}
	}
	verifier, err := servicetoken.NewVerifierWithOptions(servicetoken.VerifierOptions{
		Secret:         strings.TrimSpace(cfg.ServiceTokenSecret),
		Audience:       "reviewloop",
		AllowedIssuers: issuers,
		Leeway:         servicetoken.DefaultLeeway,
	})
	if err != nil {
		return nil, err
	}
	s := &Server{
		app:      cfg.App,
		queue:    cfg.Queue,
		limiter:  cfg.Limiter,
		trusted:  cfg.TrustedProxies,
		verifier: verifier,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("reviewloop", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// public, consumed by the review widget
	s.mux.Handle("/api/templates/", s.withRateLimit(s.handleTemplateByID))
	s.mux.Handle("/api/reviews/unique/", s.withRateLimit(s.handleUniqueReview))

	// admin
	s.mux.Handle("/api/reviews/generate", s.withServiceToken(s.handleGenerate))
	s.mux.Handle("/api/templates/manual", s.withServiceToken(s.handleManualTemplate))
	s.mux.Handle("/api/models/", s.withServiceToken(s.handleModels))
	s.mux.Handle("/api/categories/", s.withServiceToken(s.handleCategoryByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withRateLimit(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(util.ClientIP(r, s.trusted)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	})
}

func (s *Server) withServiceToken(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := servicetoken.BearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := s.verifier.Verify(token); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	})
}

// POST /api/reviews/generate
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reviews, err := s.app.GenerateReviews(r.Context(), req)
	if err != nil {
		status, msg := generationErrorStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// POST /api/reviews/unique/{businessId}
func (s *Server) handleUniqueReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	businessID := strings.TrimPrefix(r.URL.Path, "/api/reviews/unique/")
	if businessID == "" || strings.Contains(businessID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	content, method, err := s.app.GenerateUniqueReview(r.Context(), businessID)
	if err != nil {
		if errors.Is(err, app.ErrNoTemplates) {
			writeError(w, http.StatusNotFound, "no active templates")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"content": content,
		"method":  string(method),
	})
}

// POST /api/templates/{id}/consume
func (s *Server) handleTemplateByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	id, action, found := strings.Cut(rest, "/")
	if !found || id == "" || action != "consume" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		BusinessID string `json:"businessId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.BusinessID == "" {
		writeError(w, http.StatusBadRequest, "businessId required")
		return
	}
	if err := s.app.OnTemplateConsumed(r.Context(), id, body.BusinessID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Regeneration runs in the background; its outcome never changes this
	// response.
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "consumed"})
}

// POST /api/templates/manual
func (s *Server) handleManualTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var tpl domain.Template
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.SaveManualTemplate(r.Context(), tpl); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// GET /api/models (all), GET /api/models/{provider}, DELETE /api/models/cache,
// DELETE /api/models/cache/{provider}
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/models"), "/")
	switch r.Method {
	case http.MethodGet:
		if rest == "" {
			writeJSON(w, http.StatusOK, map[string]any{"models": s.app.AllModels()})
			return
		}
		provider := domain.Provider(rest)
		apiKey := strings.TrimSpace(r.Header.Get("X-Provider-Api-Key"))
		models := s.app.DiscoverModels(r.Context(), provider, apiKey)
		writeJSON(w, http.StatusOK, map[string]any{"models": models})
	case http.MethodDelete:
		provider, ok := strings.CutPrefix(rest, "cache")
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.app.ClearModelCache(domain.Provider(strings.Trim(provider, "/")))
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// POST /api/categories/{id}/replenish
func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/categories/")
	id, action, found := strings.Cut(rest, "/")
	if !found || id == "" || action != "replenish" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		BusinessID string `json:"businessId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.BusinessID == "" {
		writeError(w, http.StatusBadRequest, "businessId required")
		return
	}
	if s.queue != nil {
		job, err := s.queue.Enqueue(r.Context(), id, body.BusinessID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "enqueue failed")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"jobId": job.ID, "status": job.Status})
		return
	}
	if err := s.app.EnsurePoolSize(r.Context(), id, body.BusinessID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "replenished"})
}

func generationErrorStatus(err error) (int, string) {
	var genErr *app.GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Kind {
		case app.KindUnsupportedProvider:
			return http.StatusBadRequest, genErr.Error()
		case app.KindMissingCredentials:
			return http.StatusUnprocessableEntity, genErr.Error()
		default:
			return http.StatusBadGateway, genErr.Error()
		}
	}
	return http.StatusBadRequest, err.Error()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}
