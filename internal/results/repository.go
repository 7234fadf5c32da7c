package results

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pollify/backend/internal/models"
)

// Repository reads votes for aggregation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a results repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListVoteRows returns the poll's votes joined with option text, oldest first.
func (r *Repository) ListVoteRows(ctx context.Context, pollID uuid.UUID) ([]models.VoteRow, error) {
	const q = `SELECT v.option_id, o.option_text, v.name, v.email, v.created_at
		FROM pollify_votes v
		INNER JOIN pollify_poll_options o ON o.id = v.option_id
		WHERE v.poll_id = $1
		ORDER BY v.created_at, v.id`
	rows, err := r.pool.Query(ctx, q, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.VoteRow
	for rows.Next() {
		var v models.VoteRow
		if err := rows.Scan(&v.OptionID, &v.OptionText, &v.Name, &v.Email, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// CountVotesByPoll returns vote totals for every poll that has votes.
func (r *Repository) CountVotesByPoll(ctx context.Context) (map[uuid.UUID]int, error) {
	const q = `SELECT poll_id, COUNT(*) FROM pollify_votes GROUP BY poll_id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
