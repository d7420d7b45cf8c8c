package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

type jobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository returns a JobRepository backed by pool.
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{pool: pool}
}

func (r *jobRepository) Create(ctx context.Context, userID string, req model.SearchRequest) (*model.Job, error) {
	payload, err := json.Marshal(map[string]string{"school": req.SchoolName, "sport": req.SportName})
	if err != nil {
		return nil, fmt.Errorf("encode job payload: %w", err)
	}

	job := model.Job{
		ID:      uuid.New(),
		UserID:  userID,
		Status:  model.JobProcessing,
		Payload: req,
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO background_jobs (id, user_id, status, payload)
		 VALUES ($1, $2, $3, $4::jsonb)
		 RETURNING created_at, updated_at`,
		job.ID, userID, job.Status, string(payload),
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*model.Job, error) {
	var (
		job     model.Job
		payload []byte
		results []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id::text, status, payload, error_message, results, created_at, updated_at
		 FROM background_jobs
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&job.ID, &job.UserID, &job.Status, &payload, &job.ErrorMessage, &results, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	var p struct {
		School string `json:"school"`
		Sport  string `json:"sport"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}
	job.Payload = model.SearchRequest{SchoolName: p.School, SportName: p.Sport}

	if len(results) > 0 {
		if err := json.Unmarshal(results, &job.Results); err != nil {
			return nil, fmt.Errorf("decode job results: %w", err)
		}
	}
	return &job, nil
}

func (r *jobRepository) Complete(ctx context.Context, id uuid.UUID, results []model.CoachProfile) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode job results: %w", err)
	}
	if _, err := r.pool.Exec(ctx,
		`UPDATE background_jobs
		 SET status = $1, results = $2::jsonb, updated_at = NOW()
		 WHERE id = $3`,
		model.JobCompleted, string(raw), id,
	); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

func (r *jobRepository) Fail(ctx context.Context, id uuid.UUID, message string) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE background_jobs
		 SET status = $1, error_message = $2, updated_at = NOW()
		 WHERE id = $3`,
		model.JobFailed, message, id,
	); err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

func (r *jobRepository) FailStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE background_jobs
		 SET status = $1, error_message = 'search timed out', updated_at = NOW()
		 WHERE status = $2 AND created_at < $3`,
		model.JobFailed, model.JobProcessing, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("fail stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
