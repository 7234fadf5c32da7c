package models

import (
	"time"

	"github.com/google/uuid"
)

// OptionResult is the aggregated vote count of one option.
type OptionResult struct {
	OptionID   uuid.UUID `json:"option_id"`
	OptionText string    `json:"option_text"`
	VoteCount  int       `json:"vote_count"`
	Percentage int       `json:"percentage"`
}

// Voter is the identity attached to one vote, as shown in the detail view.
type Voter struct {
	Name      *string   `json:"name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OptionVoters lists the voters of one option, newest first.
type OptionVoters struct {
	OptionID   uuid.UUID `json:"option_id"`
	OptionText string    `json:"option_text"`
	Voters     []Voter   `json:"voters"`
}

// PollResults is the payload pushed to live observers of a poll.
type PollResults struct {
	PollID     uuid.UUID      `json:"poll_id"`
	TotalVotes int            `json:"total_votes"`
	Results    []OptionResult `json:"results"`
	Voters     []OptionVoters `json:"voters,omitempty"`
}

// TopPoll is the poll with the most votes across all polls.
type TopPoll struct {
	PollID   uuid.UUID `json:"poll_id"`
	Question string    `json:"question"`
	Votes    int       `json:"votes"`
}

// DashboardStats is the administrative overview.
type DashboardStats struct {
	TotalPolls  int      `json:"total_polls"`
	ActivePolls int      `json:"active_polls"`
	TotalVotes  int      `json:"total_votes"`
	TopPoll     *TopPoll `json:"top_poll"`
}
