package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
)

// Housekeeper purges expired search cache rows and fails background jobs
// that never finished.
type Housekeeper struct {
	r          *runner
	jobs       repository.JobRepository
	cache      repository.CacheRepository
	cacheTTL   time.Duration
	staleAfter time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewHousekeeper(jobs repository.JobRepository, cache repository.CacheRepository, spec string, cacheTTL, staleAfter time.Duration, logger *zap.Logger) *Housekeeper {
	logger = logger.Named("housekeeping")
	return &Housekeeper{
		r:          newRunner(spec, logger),
		jobs:       jobs,
		cache:      cache,
		cacheTTL:   cacheTTL,
		staleAfter: staleAfter,
		logger:     logger,
		now:        time.Now,
	}
}

func (h *Housekeeper) Start(ctx context.Context) error {
	return h.r.start(ctx, func(ctx context.Context) {
		if err := h.Sweep(ctx); err != nil {
			h.logger.Warn("sweep failed", zap.Error(err))
		}
	})
}

func (h *Housekeeper) Stop() {
	h.r.stop()
}

// Sweep runs one housekeeping pass. Both steps run even if the first fails.
func (h *Housekeeper) Sweep(ctx context.Context) error {
	now := h.now()

	purged, perr := h.cache.PurgeOlderThan(ctx, now.Add(-h.cacheTTL))
	if perr != nil {
		perr = fmt.Errorf("purge search cache: %w", perr)
	}

	failed, ferr := h.jobs.FailStale(ctx, now.Add(-h.staleAfter))
	if ferr != nil {
		ferr = fmt.Errorf("fail stale jobs: %w", ferr)
	}

	h.logger.Info("sweep complete",
		zap.Int64("cache_purged", purged),
		zap.Int64("jobs_failed", failed),
	)
	return errors.Join(perr, ferr)
}
