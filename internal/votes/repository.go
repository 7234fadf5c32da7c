package votes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pollify/backend/internal/models"
	"github.com/pollify/backend/pkg/database"
)

// foreignKeyViolation is the SQLSTATE raised when a vote names an option of another poll.
const foreignKeyViolation = "23503"

// Repository handles vote persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a votes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// HasEmailVoted reports whether a vote on the poll carries this exact email.
func (r *Repository) HasEmailVoted(ctx context.Context, pollID uuid.UUID, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM pollify_votes WHERE poll_id = $1 AND email = $2)`
	var voted bool
	if err := r.pool.QueryRow(ctx, q, pollID, email).Scan(&voted); err != nil {
		return false, err
	}
	return voted, nil
}

// InsertBallot claims the voter email (if any) and inserts every vote row in one transaction.
func (r *Repository) InsertBallot(ctx context.Context, pollID uuid.UUID, rows []*models.Vote) error {
	const claimQ = `INSERT INTO pollify_poll_voters (poll_id, email) VALUES ($1, $2)
		ON CONFLICT (poll_id, email) DO NOTHING`
	const voteQ = `INSERT INTO pollify_votes (poll_id, option_id, name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if len(rows) > 0 && rows[0].Email != nil {
			tag, err := tx.Exec(ctx, claimQ, pollID, *rows[0].Email)
			if err != nil {
				return fmt.Errorf("claim voter: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrDuplicateVoter
			}
		}
		for _, v := range rows {
			err := tx.QueryRow(ctx, voteQ, pollID, v.OptionID, v.Name, v.Email).Scan(&v.ID, &v.CreatedAt)
			if err != nil {
				return mapInsertError(err)
			}
		}
		return nil
	})
}

func mapInsertError(err error) error {
	if database.IsUniqueViolation(err, "") {
		return ErrDuplicateVoter
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrOptionMismatch
	}
	return fmt.Errorf("insert vote: %w", err)
}
