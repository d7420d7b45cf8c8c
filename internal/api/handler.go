// Package api implements the SKOUT search service.
//
// Routes:
//
//	POST /api/auth/signup             → create account, returns session
//	POST /api/auth/signin             → returns session
//	POST /api/auth/refresh            → reissue token for the bearer
//	POST /api/search/coaches          → cached results (200) or queued job (202)
//	GET  /api/search/status/{id}      → owner-only job lookup
//	POST /api/search/coaches/dev      → synchronous agent run
//	GET  /health                      → liveness
//
// Search routes require "Authorization: Bearer <token>".
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/auth"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
)

const (
	version = "1.0.0"

	// EventSearchJob is published on Redis whenever a background search ends.
	EventSearchJob = "EVENT_SEARCH_JOB"

	defaultCacheWindow = 24 * time.Hour
	defaultJobTimeout  = 5 * time.Minute
)

// ─── Dependencies ─────────────────────────────────────────────────────────────

// Pipeline runs the coach-discovery agent.
type Pipeline interface {
	Run(ctx context.Context, school, sport string) ([]model.CoachProfile, error)
}

// Accounts is the account flow behind the auth routes.
type Accounts interface {
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	Refresh(ctx context.Context, sess *model.Session) (*model.Session, error)
}

// Deps groups what Handler needs. Redis is optional.
type Deps struct {
	Jobs        repository.JobRepository
	Cache       repository.CacheRepository
	Accounts    Accounts
	Issuer      *auth.Issuer
	Agent       Pipeline
	Redis       *redis.Client
	CacheWindow time.Duration
	JobTimeout  time.Duration
	Logger      *zap.Logger
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies and tracks background searches.
type Handler struct {
	jobs        repository.JobRepository
	cache       repository.CacheRepository
	accounts    Accounts
	issuer      *auth.Issuer
	agent       Pipeline
	rdb         *redis.Client
	cacheWindow time.Duration
	jobTimeout  time.Duration
	logger      *zap.Logger

	dev singleflight.Group

	// background searches outlive their request; baseCtx is cancelled by Close
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// NewHandler returns a configured Handler.
func NewHandler(d Deps) *Handler {
	if d.CacheWindow <= 0 {
		d.CacheWindow = defaultCacheWindow
	}
	if d.JobTimeout <= 0 {
		d.JobTimeout = defaultJobTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		jobs:        d.Jobs,
		cache:       d.Cache,
		accounts:    d.Accounts,
		issuer:      d.Issuer,
		agent:       d.Agent,
		rdb:         d.Redis,
		cacheWindow: d.CacheWindow,
		jobTimeout:  d.JobTimeout,
		logger:      d.Logger.Named("api"),
		baseCtx:     ctx,
		stop:        cancel,
	}
}

// RegisterRoutes mounts every route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := auth.Middleware(h.issuer)

	mux.HandleFunc("GET /health", h.health)

	mux.HandleFunc("POST /api/auth/signup", h.signUp)
	mux.HandleFunc("POST /api/auth/signin", h.signIn)
	mux.HandleFunc("POST /api/auth/refresh", h.refresh)

	mux.Handle("POST /api/search/coaches", requireAuth(http.HandlerFunc(h.searchCoaches)))
	mux.Handle("GET /api/search/status/{id}", requireAuth(http.HandlerFunc(h.jobStatus)))
	mux.Handle("POST /api/search/coaches/dev", requireAuth(http.HandlerFunc(h.searchCoachesDev)))
}

// Close cancels running background searches and waits for them to record
// their outcome.
func (h *Handler) Close() {
	h.stop()
	h.wg.Wait()
}

// Wait blocks until every background search has finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": "skout-api",
		"version": version,
	})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, http.StatusOK, v)
}

func jsonStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonStatus(w, code, map[string]string{"error": msg})
}
