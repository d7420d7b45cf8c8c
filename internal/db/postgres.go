// Package db provides database connection helpers.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/retry"
)

// NewPostgresPool creates and verifies a pgxpool connection pool, retrying
// transient connection failures.
func NewPostgresPool(ctx context.Context, databaseURL string, maxConns int32, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	cfg := &retry.Config{
		MaxRetries:   4,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	attempt := 0
	return retry.DoWithResult(ctx, cfg, func() (*pgxpool.Pool, error) {
		attempt++
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			logger.Warn("postgres ping failed", zap.Int("attempt", attempt), zap.Error(err))
			return nil, fmt.Errorf("postgres ping failed: %w", err)
		}
		return pool, nil
	})
}
