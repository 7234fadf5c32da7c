package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pollify/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	// EventResults carries a fresh models.PollResults snapshot.
	EventResults = "results"

	snapshotTimeout = 10 * time.Second
)

// Snapshotter computes the live view of a poll.
type Snapshotter interface {
	Snapshot(ctx context.Context, pollID uuid.UUID) (*models.PollResults, error)
}

// room is the set of clients watching one poll.
type room struct {
	clients     map[string]*Client
	unsubscribe func()
	// kick has capacity 1, so a burst of votes collapses into one recomputation.
	kick chan struct{}
	done chan struct{}
}

// Hub maintains poll_id -> set of connections and pushes recomputed results on every vote.
type Hub struct {
	rooms   map[uuid.UUID]*room
	mu      sync.RWMutex
	logger  *zap.Logger
	votes   Subscriber
	results Snapshotter
}

// NewHub creates a new WebSocket hub fed by votes and computing snapshots with results.
func NewHub(logger *zap.Logger, votes Subscriber, results Snapshotter) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:   make(map[uuid.UUID]*room),
		logger:  logger,
		votes:   votes,
		results: results,
	}
}

// Register adds a client to a poll room. The first client of a poll subscribes to its votes.
// Every new client triggers a snapshot so it starts with current results.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	r := h.rooms[c.PollID]
	if r == nil {
		r = &room{
			clients: make(map[string]*Client),
			kick:    make(chan struct{}, 1),
			done:    make(chan struct{}),
		}
		h.rooms[c.PollID] = r
		pollID := c.PollID
		unsubscribe, err := h.votes.Subscribe(pollID, func(models.VoteEvent) { h.Refresh(pollID) })
		if err != nil {
			h.logger.Warn("subscribe to poll votes", zap.String("poll_id", pollID.String()), zap.Error(err))
		} else {
			r.unsubscribe = unsubscribe
		}
		go h.run(pollID, r)
	}
	r.clients[c.ID] = c
	h.mu.Unlock()

	h.Refresh(c.PollID)
	h.logger.Debug("client joined poll", zap.String("client_id", c.ID), zap.String("poll_id", c.PollID.String()))
}

// Unregister removes a client. The last client leaving a poll cancels its vote subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if r, ok := h.rooms[c.PollID]; ok {
		if _, member := r.clients[c.ID]; member {
			delete(r.clients, c.ID)
			close(c.send)
		}
		if len(r.clients) == 0 {
			delete(h.rooms, c.PollID)
			if r.unsubscribe != nil {
				r.unsubscribe()
			}
			close(r.done)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left poll", zap.String("client_id", c.ID), zap.String("poll_id", c.PollID.String()))
}

// Refresh schedules a recomputation for a poll's room. It never blocks.
func (h *Hub) Refresh(pollID uuid.UUID) {
	h.mu.RLock()
	r := h.rooms[pollID]
	h.mu.RUnlock()
	if r == nil {
		return
	}
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (h *Hub) run(pollID uuid.UUID, r *room) {
	for {
		select {
		case <-r.done:
			return
		case <-r.kick:
			h.pushSnapshot(pollID)
		}
	}
}

func (h *Hub) pushSnapshot(pollID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	snap, err := h.results.Snapshot(ctx, pollID)
	if err != nil {
		h.logger.Warn("compute snapshot", zap.String("poll_id", pollID.String()), zap.Error(err))
		return
	}
	h.BroadcastToPoll(pollID, EventResults, snap)
}

// BroadcastToPoll sends a message to all clients watching a poll on this instance.
func (h *Hub) BroadcastToPoll(pollID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal broadcast", zap.String("event", event), zap.Error(err))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	r := h.rooms[pollID]
	if r == nil {
		return
	}
	for _, c := range r.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// ClientCount returns the number of connected clients watching a poll.
func (h *Hub) ClientCount(pollID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r := h.rooms[pollID]; r != nil {
		return len(r.clients)
	}
	return 0
}
