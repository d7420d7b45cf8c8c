// skout-api: coach search service
//
// Fronts the coach-discovery agent for the skout client:
//   - POST /api/search/coaches       cached results or a queued background job
//   - GET  /api/search/status/{id}   poll a background job
//   - POST /api/auth/*               email/password accounts, JWT sessions
//
// Completed jobs are cached in Postgres (and Redis when configured) and
// announced with EVENT_SEARCH_JOB. A housekeeping cron purges old cache rows
// and fails jobs that never finished.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/agent"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/api"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/auth"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/config"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/db"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/logging"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/retry"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/scheduler"
)

func main() {
	configPath := flag.String("config", os.Getenv("SKOUT_CONFIG"), "path to YAML config")
	flag.Parse()

	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[skout-api] Config error: %v", err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatalf("[skout-api] Config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("[skout-api] Logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("skout-api failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.MaxConnections, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(pool, logger); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// ── Redis (optional) ─────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info("redis connected")
	} else {
		logger.Info("REDIS_URL not set, caching in postgres only")
	}

	// ── Services ─────────────────────────────────────────────────────────────
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	users := repository.NewUserRepository(pool)
	jobs := repository.NewJobRepository(pool)
	cache := repository.NewCacheRepository(pool)

	h := api.NewHandler(api.Deps{
		Jobs:        jobs,
		Cache:       cache,
		Accounts:    auth.NewService(users, issuer, logger),
		Issuer:      issuer,
		Agent:       agent.NewClient(cfg.API.AgentURL, cfg.API.AgentTimeout, retry.DefaultConfig(), logger),
		Redis:       rdb,
		CacheWindow: cfg.API.CacheWindow,
		Logger:      logger,
	})

	hk := scheduler.NewHousekeeper(jobs, cache, cfg.API.HousekeepingSpec, cfg.API.CacheWindow, cfg.API.JobStaleAfter, logger)
	if err := hk.Start(ctx); err != nil {
		return fmt.Errorf("housekeeping: %w", err)
	}
	defer hk.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.API.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.API.AgentTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	h.Close()
	logger.Info("stopped")
	return nil
}
