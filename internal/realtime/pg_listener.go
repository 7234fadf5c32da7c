package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pollify/backend/internal/models"
)

// VotesChannel is the NOTIFY channel the votes insert trigger writes to.
const VotesChannel = "pollify_votes"

const listenRetryBackoff = 3 * time.Second

// PGListener relays the database change feed (NOTIFY on vote insert) to a Publisher.
type PGListener struct {
	pool    *pgxpool.Pool
	channel string
	sink    Publisher
	logger  *zap.Logger
}

// NewPGListener creates a listener on VotesChannel that forwards to sink.
func NewPGListener(pool *pgxpool.Pool, sink Publisher, logger *zap.Logger) *PGListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGListener{pool: pool, channel: VotesChannel, sink: sink, logger: logger}
}

// ParseNotification decodes the trigger payload.
func ParseNotification(payload string) (models.VoteEvent, error) {
	var ev models.VoteEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, fmt.Errorf("decode vote notification: %w", err)
	}
	return ev, nil
}

// Run listens until ctx is done, reconnecting after connection errors.
func (l *PGListener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			l.logger.Info("vote listener stopping")
			return
		}
		l.logger.Warn("vote listener disconnected", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(listenRetryBackoff):
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.logger.Info("listening for votes", zap.String("channel", l.channel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := ParseNotification(n.Payload)
		if err != nil {
			l.logger.Warn("skip notification", zap.Error(err))
			continue
		}
		if err := l.sink.Publish(ctx, ev); err != nil {
			l.logger.Warn("relay vote event", zap.String("poll_id", ev.PollID.String()), zap.Error(err))
		}
	}
}
