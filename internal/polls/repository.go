package polls

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pollify/backend/internal/models"
	"github.com/pollify/backend/pkg/database"
)

// Repository handles poll and option persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePoll inserts the poll and its options in one transaction, so a failed option insert
// leaves no orphan poll behind.
func (r *Repository) CreatePoll(ctx context.Context, p *models.Poll, optionTexts []string) ([]models.Option, error) {
	const pollQ = `INSERT INTO pollify_polls (question, allow_multiple, require_name_email, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	const optionQ = `INSERT INTO pollify_poll_options (poll_id, option_text)
		VALUES ($1, $2)
		RETURNING id, created_at`

	var opts []models.Option
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, pollQ, p.Question, p.AllowMultiple, p.RequireNameEmail, p.Active).
			Scan(&p.ID, &p.CreatedAt); err != nil {
			return fmt.Errorf("insert poll: %w", err)
		}
		opts = make([]models.Option, 0, len(optionTexts))
		for _, text := range optionTexts {
			o := models.Option{PollID: p.ID, Text: text}
			if err := tx.QueryRow(ctx, optionQ, p.ID, text).Scan(&o.ID, &o.CreatedAt); err != nil {
				return fmt.Errorf("insert option: %w", err)
			}
			opts = append(opts, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// GetPoll returns a poll by ID with its options in creation order.
func (r *Repository) GetPoll(ctx context.Context, id uuid.UUID) (*models.PollWithOptions, error) {
	const pollQ = `SELECT id, question, allow_multiple, require_name_email, active, created_at
		FROM pollify_polls WHERE id = $1`
	var p models.PollWithOptions
	err := r.pool.QueryRow(ctx, pollQ, id).
		Scan(&p.ID, &p.Question, &p.AllowMultiple, &p.RequireNameEmail, &p.Active, &p.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("select poll: %w", err)
	}

	const optionsQ = `SELECT id, poll_id, option_text, created_at
		FROM pollify_poll_options WHERE poll_id = $1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, optionsQ, id)
	if err != nil {
		return nil, fmt.Errorf("select options: %w", err)
	}
	defer rows.Close()

	p.Options = []models.Option{}
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text, &o.CreatedAt); err != nil {
			return nil, err
		}
		p.Options = append(p.Options, o)
	}
	return &p, rows.Err()
}

// ListPolls returns all polls ordered by creation time, newest first.
func (r *Repository) ListPolls(ctx context.Context) ([]models.Poll, error) {
	const q = `SELECT id, question, allow_multiple, require_name_email, active, created_at
		FROM pollify_polls ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Poll{}
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.Question, &p.AllowMultiple, &p.RequireNameEmail, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// SetActive updates the poll's active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	const q = `UPDATE pollify_polls SET active = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPollNotFound
	}
	return nil
}
