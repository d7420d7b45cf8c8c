package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

type cacheRepository struct {
	pool *pgxpool.Pool
}

// NewCacheRepository returns a CacheRepository backed by pool.
func NewCacheRepository(pool *pgxpool.Pool) CacheRepository {
	return &cacheRepository{pool: pool}
}

func (r *cacheRepository) Latest(ctx context.Context, school, sport string, since time.Time) ([]model.CoachProfile, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT results FROM search_cache
		 WHERE lower(school_name) = lower($1) AND lower(sport_name) = lower($2) AND created_at > $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		school, sport, since,
	).Scan(&raw)
	if err != nil {
		return nil, notFound(err)
	}

	var coaches []model.CoachProfile
	if err := json.Unmarshal(raw, &coaches); err != nil {
		return nil, fmt.Errorf("decode cached results: %w", err)
	}
	return coaches, nil
}

func (r *cacheRepository) Put(ctx context.Context, school, sport string, results []model.CoachProfile) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode cached results: %w", err)
	}
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO search_cache (school_name, sport_name, results) VALUES ($1, $2, $3::jsonb)`,
		school, sport, string(raw),
	); err != nil {
		return fmt.Errorf("put search cache: %w", err)
	}
	return nil
}

func (r *cacheRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM search_cache WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge search cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
