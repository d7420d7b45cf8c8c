package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/auth"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/search"
)

// searchCoaches handles POST /api/search/coaches.
func (h *Handler) searchCoaches(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	if cached, ok := h.lookupCache(r.Context(), req); ok {
		jsonOK(w, cached)
		return
	}

	job, err := h.jobs.Create(r.Context(), userID, req)
	if err != nil {
		h.logger.Error("create job failed", zap.Error(err))
		jsonError(w, "failed to create background job", http.StatusInternalServerError)
		return
	}

	resp := model.JobResponse{JobID: job.ID, Status: job.Status}
	h.wg.Add(1)
	go h.runJob(job.ID, userID, req)

	jsonStatus(w, http.StatusAccepted, resp)
}

// jobStatus handles GET /api/search/status/{id}.
func (h *Handler) jobStatus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.jobs.Get(r.Context(), userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("get job failed", zap.String("job_id", id.String()), zap.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, job)
}

// searchCoachesDev handles POST /api/search/coaches/dev. Identical
// concurrent requests share one agent run, which outlives any single caller
// and is bounded by the job timeout.
func (h *Handler) searchCoachesDev(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	ch := h.dev.DoChan(cacheKey(req), func() (any, error) {
		ctx, cancel := context.WithTimeout(h.baseCtx, h.jobTimeout)
		defer cancel()
		return h.agent.Run(ctx, req.SchoolName, req.SportName)
	})

	var res singleflight.Result
	select {
	case <-r.Context().Done():
		h.logger.Debug("dev search caller left", zap.String("school", req.SchoolName))
		return
	case res = <-ch:
	}

	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		h.logger.Warn("dev search failed",
			zap.String("school", req.SchoolName),
			zap.String("sport", req.SportName),
			zap.Error(err),
		)
		jsonError(w, "search agent failed", http.StatusBadGateway)
		return
	}
	if shared {
		h.logger.Debug("dev search shared", zap.String("school", req.SchoolName))
	}
	jsonOK(w, search.Clean(v.([]model.CoachProfile)))
}

// ─── Background jobs ─────────────────────────────────────────────────────────

func (h *Handler) runJob(id uuid.UUID, userID string, req model.SearchRequest) {
	defer h.wg.Done()

	ctx, cancel := context.WithTimeout(h.baseCtx, h.jobTimeout)
	defer cancel()

	log := h.logger.With(zap.String("job_id", id.String()))
	results, err := h.agent.Run(ctx, req.SchoolName, req.SportName)

	// Record the outcome even when baseCtx was cancelled mid-run.
	recCtx, recCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer recCancel()

	status := model.JobCompleted
	if err != nil {
		status = model.JobFailed
		log.Warn("search job failed", zap.Error(err))
		if ferr := h.jobs.Fail(recCtx, id, err.Error()); ferr != nil {
			log.Error("mark job failed", zap.Error(ferr))
		}
	} else {
		if cerr := h.jobs.Complete(recCtx, id, results); cerr != nil {
			log.Error("mark job completed", zap.Error(cerr))
		}
		h.storeCache(recCtx, req, results)
		log.Info("search job completed", zap.Int("coaches", len(results)))
	}

	h.publish(recCtx, id, userID, status)
}

func (h *Handler) publish(ctx context.Context, id uuid.UUID, userID, status string) {
	if h.rdb == nil {
		return
	}
	event, _ := json.Marshal(map[string]string{
		"type":   EventSearchJob,
		"jobId":  id.String(),
		"userId": userID,
		"status": status,
	})
	if err := h.rdb.Publish(ctx, EventSearchJob, event).Err(); err != nil {
		h.logger.Warn("publish "+EventSearchJob+" failed", zap.Error(err))
	}
}

// ─── Cache ───────────────────────────────────────────────────────────────────

// lookupCache checks Redis first, then search_cache rows inside the window.
func (h *Handler) lookupCache(ctx context.Context, req model.SearchRequest) ([]model.CoachProfile, bool) {
	key := cacheKey(req)
	if h.rdb != nil {
		raw, err := h.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var coaches []model.CoachProfile
			if json.Unmarshal(raw, &coaches) == nil {
				return coaches, true
			}
		case !errors.Is(err, redis.Nil):
			h.logger.Warn("redis cache read failed", zap.Error(err))
		}
	}

	coaches, err := h.cache.Latest(ctx, req.SchoolName, req.SportName, time.Now().Add(-h.cacheWindow))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.logger.Warn("search cache read failed", zap.Error(err))
		}
		return nil, false
	}
	return coaches, true
}

func (h *Handler) storeCache(ctx context.Context, req model.SearchRequest, results []model.CoachProfile) {
	if err := h.cache.Put(ctx, req.SchoolName, req.SportName, results); err != nil {
		h.logger.Warn("search cache write failed", zap.Error(err))
	}
	if h.rdb == nil {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := h.rdb.Set(ctx, cacheKey(req), raw, h.cacheWindow).Err(); err != nil {
		h.logger.Warn("redis cache write failed", zap.Error(err))
	}
}

func cacheKey(req model.SearchRequest) string {
	return "skout:search:" + strings.ToLower(strings.TrimSpace(req.SchoolName)) + ":" + strings.ToLower(strings.TrimSpace(req.SportName))
}

func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (model.SearchRequest, bool) {
	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return req, false
	}
	req.SchoolName = strings.TrimSpace(req.SchoolName)
	req.SportName = strings.TrimSpace(req.SportName)
	if req.SchoolName == "" || req.SportName == "" {
		jsonError(w, "school_name and sport_name are required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}
