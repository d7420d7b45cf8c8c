package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

type coachRepository struct {
	pool *pgxpool.Pool
}

// NewCoachRepository returns a CoachRepository backed by pool.
func NewCoachRepository(pool *pgxpool.Pool) CoachRepository {
	return &coachRepository{pool: pool}
}

func (r *coachRepository) List(ctx context.Context, userID string) ([]model.SavedCoach, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, full_name, position, COALESCE(email, ''), COALESCE(phone, ''),
		        COALESCE(twitter_handle, ''), university_name, COALESCE(sport, ''),
		        COALESCE(school_logo_url, ''), contacted, created_at
		 FROM coaches
		 WHERE user_id = $1
		 ORDER BY full_name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}
	defer rows.Close()

	coaches := make([]model.SavedCoach, 0)
	for rows.Next() {
		var c model.SavedCoach
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Position, &c.Email, &c.Phone,
			&c.Twitter, &c.School, &c.Sport,
			&c.SchoolLogoURL, &c.Contacted, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan coach: %w", err)
		}
		coaches = append(coaches, c)
	}
	return coaches, rows.Err()
}

func (r *coachRepository) Insert(ctx context.Context, userID string, c model.SavedCoach) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`WITH ins AS (
		   INSERT INTO coaches (user_id, full_name, position, email, phone, twitter_handle,
		                        university_name, sport, school_logo_url, contacted)
		   VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), NULLIF($9, ''), $10)
		   ON CONFLICT (user_id, lower(full_name), lower(university_name)) DO NOTHING
		   RETURNING id
		 )
		 SELECT id::text FROM ins
		 UNION ALL
		 SELECT id::text FROM coaches
		 WHERE user_id = $1 AND lower(full_name) = lower($2) AND lower(university_name) = lower($7)
		 LIMIT 1`,
		userID, c.Name, c.Position, c.Email, c.Phone, c.Twitter,
		c.School, c.Sport, c.SchoolLogoURL, c.Contacted,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert coach: %w", err)
	}
	return id, nil
}

func (r *coachRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM coaches WHERE id = $1 AND user_id = $2`,
		id, userID,
	); err != nil {
		return fmt.Errorf("delete coach: %w", err)
	}
	return nil
}

func (r *coachRepository) DeleteByKey(ctx context.Context, userID, name, school string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM coaches
		 WHERE user_id = $1 AND lower(full_name) = lower($2) AND lower(university_name) = lower($3)`,
		userID, name, school,
	); err != nil {
		return fmt.Errorf("delete coach by key: %w", err)
	}
	return nil
}

func (r *coachRepository) SetContacted(ctx context.Context, userID, id string, contacted bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coaches SET contacted = $1 WHERE id = $2 AND user_id = $3`,
		contacted, id, userID,
	)
	if err != nil {
		return fmt.Errorf("set contacted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
