package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pollify/backend/internal/models"
)

// countingSnapshotter reports the number of times it was asked as the poll's total.
type countingSnapshotter struct {
	calls atomic.Int32
	err   error
}

func (s *countingSnapshotter) Snapshot(_ context.Context, pollID uuid.UUID) (*models.PollResults, error) {
	n := s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &models.PollResults{PollID: pollID, TotalVotes: int(n), Results: []models.OptionResult{}}, nil
}

func receive(t *testing.T, c *Client) models.PollResults {
	t.Helper()
	select {
	case msg := <-c.send:
		require.Equal(t, EventResults, msg.Event)
		var res models.PollResults
		require.NoError(t, json.Unmarshal(msg.Data, &res))
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no results message")
		return models.PollResults{}
	}
}

func TestHubPushesSnapshotOnJoinAndVote(t *testing.T) {
	broker := NewBroker()
	snaps := &countingSnapshotter{}
	hub := NewHub(zap.NewNop(), broker, snaps)
	pollID := uuid.New()

	c := newClient(hub, pollID, nil, zap.NewNop())
	hub.Register(c)
	defer hub.Unregister(c)

	first := receive(t, c)
	assert.Equal(t, pollID, first.PollID)
	assert.Equal(t, 1, broker.Subscribers(pollID))

	require.NoError(t, broker.Publish(context.Background(), models.VoteEvent{VoteID: uuid.New(), PollID: pollID}))
	second := receive(t, c)
	assert.Greater(t, second.TotalVotes, first.TotalVotes)

	// Votes on other polls do not reach this room.
	require.NoError(t, broker.Publish(context.Background(), models.VoteEvent{PollID: uuid.New()}))
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message %q", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubSubscribesOncePerPoll(t *testing.T) {
	broker := NewBroker()
	hub := NewHub(nil, broker, &countingSnapshotter{})
	pollID := uuid.New()

	a := newClient(hub, pollID, nil, zap.NewNop())
	b := newClient(hub, pollID, nil, zap.NewNop())
	hub.Register(a)
	hub.Register(b)

	assert.Equal(t, 2, hub.ClientCount(pollID))
	assert.Equal(t, 1, broker.Subscribers(pollID))

	hub.Unregister(a)
	assert.Equal(t, 1, broker.Subscribers(pollID))

	hub.Unregister(b)
	assert.Zero(t, hub.ClientCount(pollID))
	assert.Zero(t, broker.Subscribers(pollID))

	// Refreshing a poll nobody watches is a no-op.
	hub.Refresh(pollID)
}

// gatedSnapshotter blocks every Snapshot until gate is closed.
type gatedSnapshotter struct {
	countingSnapshotter
	entered chan struct{}
	gate    chan struct{}
}

func (s *gatedSnapshotter) Snapshot(ctx context.Context, pollID uuid.UUID) (*models.PollResults, error) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.gate
	return s.countingSnapshotter.Snapshot(ctx, pollID)
}

func TestHubBurstCoalesces(t *testing.T) {
	broker := NewBroker()
	snaps := &gatedSnapshotter{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	hub := NewHub(nil, broker, snaps)
	pollID := uuid.New()

	c := newClient(hub, pollID, nil, zap.NewNop())
	hub.Register(c)
	defer hub.Unregister(c)

	// The join snapshot is in flight while the burst arrives.
	select {
	case <-snaps.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot not started")
	}
	for i := 0; i < 100; i++ {
		require.NoError(t, broker.Publish(context.Background(), models.VoteEvent{PollID: pollID}))
	}
	close(snaps.gate)

	receive(t, c)
	last := receive(t, c)
	assert.Equal(t, 2, last.TotalVotes)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), snaps.calls.Load())
	assert.Empty(t, c.send)
}

func TestHubSnapshotErrorSendsNothing(t *testing.T) {
	snaps := &countingSnapshotter{err: errors.New("db down")}
	hub := NewHub(nil, NewBroker(), snaps)
	c := newClient(hub, uuid.New(), nil, zap.NewNop())
	hub.Register(c)
	defer hub.Unregister(c)

	assert.Eventually(t, func() bool { return snaps.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, c.send)
}

func TestServeWs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	broker := NewBroker()
	hub := NewHub(nil, broker, &countingSnapshotter{})
	r := gin.New()
	r.GET("/ws", ServeWs(hub, NewUpgrader([]string{"*"}), zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?poll_id=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)

	pollID := uuid.New()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?poll_id="+pollID.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() WSMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, EventResults, read().Event)

	require.NoError(t, conn.WriteJSON(WSMessage{Event: "refresh"}))
	assert.Equal(t, EventResults, read().Event)

	require.NoError(t, broker.Publish(context.Background(), models.VoteEvent{PollID: pollID}))
	msg := read()
	var res models.PollResults
	require.NoError(t, json.Unmarshal(msg.Data, &res))
	assert.Equal(t, pollID, res.PollID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount(pollID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewUpgraderOrigins(t *testing.T) {
	up := NewUpgrader([]string{"https://polls.example.com"})

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "https://polls.example.com")
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, up.CheckOrigin(req))

	assert.True(t, NewUpgrader(nil).CheckOrigin(req))
}
