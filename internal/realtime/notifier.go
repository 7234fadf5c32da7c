package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pollify/backend/internal/models"
)

// Publisher delivers a vote event to everyone subscribed to its poll.
type Publisher interface {
	Publish(ctx context.Context, ev models.VoteEvent) error
}

// Subscriber registers interest in new votes for one poll. The returned function deregisters.
type Subscriber interface {
	Subscribe(pollID uuid.UUID, fn func(models.VoteEvent)) (unsubscribe func(), err error)
}

// Notifier is both ends of the "new vote for poll P" channel.
type Notifier interface {
	Publisher
	Subscriber
}

var (
	_ Notifier = (*Broker)(nil)
	_ Notifier = (*RedisPubSub)(nil)
)

// Broker is an in-process Notifier. Callbacks run on the publishing goroutine.
type Broker struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[uint64]func(models.VoteEvent)
	next uint64
}

// NewBroker creates an empty in-process broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[uuid.UUID]map[uint64]func(models.VoteEvent))}
}

// Publish calls every callback subscribed to ev.PollID.
func (b *Broker) Publish(_ context.Context, ev models.VoteEvent) error {
	b.mu.RLock()
	fns := make([]func(models.VoteEvent), 0, len(b.subs[ev.PollID]))
	for _, fn := range b.subs[ev.PollID] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

// Subscribe registers fn for votes on pollID.
func (b *Broker) Subscribe(pollID uuid.UUID, fn func(models.VoteEvent)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	if b.subs[pollID] == nil {
		b.subs[pollID] = make(map[uint64]func(models.VoteEvent))
	}
	b.subs[pollID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[pollID], id)
			if len(b.subs[pollID]) == 0 {
				delete(b.subs, pollID)
			}
		})
	}, nil
}

// Subscribers returns the number of callbacks registered for a poll.
func (b *Broker) Subscribers(pollID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[pollID])
}
