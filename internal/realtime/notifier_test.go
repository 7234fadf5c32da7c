package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollify/backend/internal/models"
)

func TestBrokerRoutesByPoll(t *testing.T) {
	b := NewBroker()
	pollA, pollB := uuid.New(), uuid.New()

	var gotA, gotB []models.VoteEvent
	unsubA, err := b.Subscribe(pollA, func(ev models.VoteEvent) { gotA = append(gotA, ev) })
	require.NoError(t, err)
	_, err = b.Subscribe(pollB, func(ev models.VoteEvent) { gotB = append(gotB, ev) })
	require.NoError(t, err)

	ev := models.VoteEvent{VoteID: uuid.New(), PollID: pollA, OptionID: uuid.New(), CreatedAt: time.Now()}
	require.NoError(t, b.Publish(context.Background(), ev))

	assert.Equal(t, []models.VoteEvent{ev}, gotA)
	assert.Empty(t, gotB)

	unsubA()
	unsubA()
	assert.Zero(t, b.Subscribers(pollA))
	assert.Equal(t, 1, b.Subscribers(pollB))

	require.NoError(t, b.Publish(context.Background(), ev))
	assert.Len(t, gotA, 1)
}

func TestParseNotification(t *testing.T) {
	voteID, pollID, optionID := uuid.New(), uuid.New(), uuid.New()
	payload := `{"vote_id":"` + voteID.String() + `","poll_id":"` + pollID.String() +
		`","option_id":"` + optionID.String() + `","created_at":"2025-01-01T12:00:00.123456+00:00"}`

	ev, err := ParseNotification(payload)
	require.NoError(t, err)
	assert.Equal(t, voteID, ev.VoteID)
	assert.Equal(t, pollID, ev.PollID)
	assert.Equal(t, optionID, ev.OptionID)
	assert.Equal(t, 123456000, ev.CreatedAt.Nanosecond())

	_, err = ParseNotification("not json")
	require.Error(t, err)
}

func TestPollChannel(t *testing.T) {
	id := uuid.MustParse("7f9c24e8-3b12-4fef-91e5-a6b2e0f9b0d1")
	assert.Equal(t, "pollify:poll:7f9c24e8-3b12-4fef-91e5-a6b2e0f9b0d1", PollChannel(id))
}
