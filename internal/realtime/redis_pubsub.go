package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pollify/backend/internal/models"
)

const (
	channelPrefix = "pollify:poll:"
	publishTTL    = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance fan-out.
type redisPayload struct {
	Event models.VoteEvent `json:"event"`
	At    int64            `json:"at"`
}

// RedisPubSub implements Notifier over Redis pub/sub so votes reach every server instance.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for vote events.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// PollChannel returns the Redis channel carrying votes of a poll.
func PollChannel(pollID uuid.UUID) string {
	return channelPrefix + pollID.String()
}

// Publish sends the event to the poll's Redis channel.
func (r *RedisPubSub) Publish(ctx context.Context, ev models.VoteEvent) error {
	body, err := json.Marshal(redisPayload{Event: ev, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTTL)
	defer cancel()
	return r.client.Publish(ctx, PollChannel(ev.PollID), body).Err()
}

// Subscribe subscribes to a poll's Redis channel and calls fn for each event.
// The returned function stops the subscription.
func (r *RedisPubSub) Subscribe(pollID uuid.UUID, fn func(models.VoteEvent)) (func(), error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, PollChannel(pollID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var p redisPayload
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					r.logger.Warn("invalid vote payload", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				fn(p.Event)
			}
		}
	}()
	return cancelCtx, nil
}
