package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/auth"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/config"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/db"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/scheduler"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/search"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/store"
)

// app holds the stores for one command invocation. The database is opened
// only by commands that need it.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer

	auth    *store.AuthStore
	network *store.NetworkStore
	search  *search.Client

	pool      *pgxpool.Pool
	contacts  *store.ContactsStore
	templates *store.TemplatesStore
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	sessionPath := cfg.Auth.SessionFile
	if sessionPath == "" {
		p, err := auth.DefaultSessionPath()
		if err != nil {
			return nil, err
		}
		sessionPath = p
	}

	a := &app{cfg: cfg, logger: logger, out: os.Stdout}
	a.auth = store.NewAuthStore(auth.NewClient(cfg.Search.BaseURL), auth.NewFileSessionStore(sessionPath), logger)
	a.auth.Initialize(ctx)
	a.network = store.NewNetworkStore()
	a.search = search.NewClient(cfg.Search.BaseURL, cfg.Search.Timeout, a.auth, logger)
	return a, nil
}

// requireSession fails when nobody is signed in.
func (a *app) requireSession() error {
	if a.auth.CurrentUserID() == "" {
		return fmt.Errorf("not signed in; run 'skout signin' first")
	}
	return nil
}

// openStores connects to Postgres and loads contacts and templates.
func (a *app) openStores(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.cfg.ValidateClient(); err != nil {
		return err
	}

	pool, err := db.NewPostgresPool(ctx, a.cfg.DatabaseURL, a.cfg.MaxConnections, a.logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.pool = pool
	a.contacts = store.NewContactsStore(repository.NewCoachRepository(pool), a.auth, a.logger)
	a.templates = store.NewTemplatesStore(repository.NewTemplateRepository(pool), a.auth, a.logger)

	if err := a.contacts.Load(ctx); err != nil {
		return err
	}
	return a.templates.Load(ctx)
}

// monitor probes the search service once, then keeps probing in the
// background until stop is called.
func (a *app) monitor(ctx context.Context) (stop func(), err error) {
	m := scheduler.NewMonitor(a.search, a.network, a.cfg.Network.ProbeSpec, a.cfg.Network.ProbeTimeout, a.logger)
	m.Probe(ctx)
	if err := m.Start(ctx); err != nil {
		return nil, err
	}
	return m.Stop, nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.logger.Sync()
}
