package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository returns a TemplateRepository backed by pool.
func NewTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) List(ctx context.Context, userID string) ([]model.Template, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, template_name, subject_line, message_body, channel,
		        COALESCE(highlight_url, ''), is_default, created_at, updated_at
		 FROM templates
		 WHERE user_id = $1
		 ORDER BY is_default DESC, created_at ASC, template_name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]model.Template, 0)
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Subject, &t.Body, &t.Channel,
			&t.HighlightURL, &t.IsDefault, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *templateRepository) Insert(ctx context.Context, userID string, t model.Template) (string, error) {
	return insertTemplate(ctx, r.pool, userID, t)
}

func (r *templateRepository) InsertDefaults(ctx context.Context, userID string, ts []model.Template) ([]string, error) {
	ids := make([]string, 0, len(ts))
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, t := range ts {
			id, err := insertTemplate(ctx, tx, userID, t)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert default templates: %w", err)
	}
	return ids, nil
}

func insertTemplate(ctx context.Context, q querier, userID string, t model.Template) (string, error) {
	var id string
	err := q.QueryRow(ctx,
		`INSERT INTO templates (user_id, template_name, subject_line, message_body, channel, highlight_url, is_default)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		 RETURNING id::text`,
		userID, t.Name, t.Subject, t.Body, t.Channel, t.HighlightURL, t.IsDefault,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert template %q: %w", t.Name, err)
	}
	return id, nil
}

func (r *templateRepository) Update(ctx context.Context, userID string, t model.Template) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE templates
		 SET template_name = $1, subject_line = $2, message_body = $3, channel = $4,
		     highlight_url = NULLIF($5, ''), updated_at = NOW()
		 WHERE id = $6 AND user_id = $7`,
		t.Name, t.Subject, t.Body, t.Channel, t.HighlightURL, t.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM templates WHERE id = $1 AND user_id = $2`,
		id, userID,
	); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
