// Package repository persists SKOUT data in PostgreSQL. Every query is
// scoped by the owning user's ID; callers never see another user's rows.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

var (
	// ErrNotFound is returned when a row is missing or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
)

// CoachRepository stores a user's saved coaches.
type CoachRepository interface {
	// List returns the user's contacts ordered by full name ascending.
	List(ctx context.Context, userID string) ([]model.SavedCoach, error)
	// Insert stores a contact and returns its ID. Inserting a (name, school)
	// pair the user already saved returns the existing row's ID.
	Insert(ctx context.Context, userID string, c model.SavedCoach) (string, error)
	Delete(ctx context.Context, userID, id string) error
	// DeleteByKey removes by case-insensitive (name, school).
	DeleteByKey(ctx context.Context, userID, name, school string) error
	SetContacted(ctx context.Context, userID, id string, contacted bool) error
}

// TemplateRepository stores outreach templates.
type TemplateRepository interface {
	List(ctx context.Context, userID string) ([]model.Template, error)
	Insert(ctx context.Context, userID string, t model.Template) (string, error)
	// InsertDefaults inserts all templates in one transaction and returns
	// their IDs in input order.
	InsertDefaults(ctx context.Context, userID string, ts []model.Template) ([]string, error)
	Update(ctx context.Context, userID string, t model.Template) error
	Delete(ctx context.Context, userID, id string) error
}

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// JobRepository tracks asynchronous searches in background_jobs.
type JobRepository interface {
	Create(ctx context.Context, userID string, req model.SearchRequest) (*model.Job, error)
	// Get returns the job only if it belongs to userID.
	Get(ctx context.Context, userID string, id uuid.UUID) (*model.Job, error)
	Complete(ctx context.Context, id uuid.UUID, results []model.CoachProfile) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	// FailStale marks processing jobs older than cutoff as failed.
	FailStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// CacheRepository stores completed search results keyed by (school, sport).
type CacheRepository interface {
	// Latest returns the newest entry created after since, or ErrNotFound.
	Latest(ctx context.Context, school, sport string, since time.Time) ([]model.CoachProfile, error)
	Put(ctx context.Context, school, sport string, results []model.CoachProfile) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// querier is the subset of pgxpool.Pool and pgx.Tx the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
