package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is one voter's selection of one option. Name and Email are nil when the poll
// does not collect voter identity.
type Vote struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	OptionID  uuid.UUID `json:"option_id"`
	Name      *string   `json:"name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteRow is a vote joined with the text of its option, as read by aggregation.
type VoteRow struct {
	OptionID   uuid.UUID
	OptionText string
	Name       *string
	Email      *string
	CreatedAt  time.Time
}

// VoteEvent is the change notification emitted for every inserted vote row.
type VoteEvent struct {
	VoteID    uuid.UUID `json:"vote_id"`
	PollID    uuid.UUID `json:"poll_id"`
	OptionID  uuid.UUID `json:"option_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EventFromVote builds the notification for an inserted vote.
func EventFromVote(v Vote) VoteEvent {
	return VoteEvent{VoteID: v.ID, PollID: v.PollID, OptionID: v.OptionID, CreatedAt: v.CreatedAt}
}
