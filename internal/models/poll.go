package models

import (
	"time"

	"github.com/google/uuid"
)

// Poll is a question with selectable options and voting rules.
type Poll struct {
	ID               uuid.UUID `json:"id"`
	Question         string    `json:"question"`
	AllowMultiple    bool      `json:"allow_multiple"`
	RequireNameEmail bool      `json:"require_name_email"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

// Option is one selectable answer belonging to exactly one poll.
type Option struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	Text      string    `json:"option_text"`
	CreatedAt time.Time `json:"created_at"`
}

// PollWithOptions is a poll together with its options in creation order.
type PollWithOptions struct {
	Poll
	Options []Option `json:"options"`
}

// HasOption reports whether optionID belongs to the poll.
func (p *PollWithOptions) HasOption(optionID uuid.UUID) bool {
	for _, o := range p.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// PollSummary is a poll with its aggregated vote total (admin listing).
type PollSummary struct {
	Poll
	TotalVotes int `json:"total_votes"`
}
