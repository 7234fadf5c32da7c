// Package testutil provides an in-memory poll store and fixtures for service and handler tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pollify/backend/internal/models"
	"github.com/pollify/backend/internal/polls"
	"github.com/pollify/backend/internal/votes"
)

// MemStore implements the polls, votes and results stores in memory. It enforces the same
// (poll, email) claim as the Postgres schema. Timestamps advance by one millisecond per row so
// ordering is deterministic.
type MemStore struct {
	mu      sync.Mutex
	now     time.Time
	polls   map[uuid.UUID]models.Poll
	order   []uuid.UUID
	options map[uuid.UUID][]models.Option
	votes   []models.Vote
	voters  map[uuid.UUID]map[string]bool

	// CreatePollErr fails CreatePoll before anything is stored.
	CreatePollErr error
	// FailOptionAt, when >= 0, stores the poll and options before that index, then fails with
	// polls.ErrPartialCreate, like a store without transactions.
	FailOptionAt int
	// InsertErr fails InsertBallot before anything is stored.
	InsertErr error
	// CheckErr fails HasEmailVoted.
	CheckErr error
	// AfterCheck runs after HasEmailVoted has computed its answer, outside the lock.
	AfterCheck func()
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		now:          time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		polls:        make(map[uuid.UUID]models.Poll),
		options:      make(map[uuid.UUID][]models.Option),
		voters:       make(map[uuid.UUID]map[string]bool),
		FailOptionAt: -1,
	}
}

func (m *MemStore) tick() time.Time {
	m.now = m.now.Add(time.Millisecond)
	return m.now
}

// CreatePoll implements polls.Store.
func (m *MemStore) CreatePoll(_ context.Context, p *models.Poll, optionTexts []string) ([]models.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreatePollErr != nil {
		return nil, m.CreatePollErr
	}
	p.ID = uuid.New()
	p.CreatedAt = m.tick()
	m.polls[p.ID] = *p
	m.order = append(m.order, p.ID)

	opts := make([]models.Option, 0, len(optionTexts))
	for i, text := range optionTexts {
		if i == m.FailOptionAt {
			m.options[p.ID] = opts
			return nil, polls.ErrPartialCreate
		}
		opts = append(opts, models.Option{ID: uuid.New(), PollID: p.ID, Text: text, CreatedAt: m.tick()})
	}
	m.options[p.ID] = opts
	return append([]models.Option(nil), opts...), nil
}

// GetPoll implements polls.Store.
func (m *MemStore) GetPoll(_ context.Context, id uuid.UUID) (*models.PollWithOptions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok {
		return nil, polls.ErrPollNotFound
	}
	return &models.PollWithOptions{Poll: p, Options: append([]models.Option{}, m.options[id]...)}, nil
}

// ListPolls implements polls.Store, newest first.
func (m *MemStore) ListPolls(_ context.Context) ([]models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]models.Poll, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		list = append(list, m.polls[m.order[i]])
	}
	return list, nil
}

// SetActive implements polls.Store.
func (m *MemStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok {
		return polls.ErrPollNotFound
	}
	p.Active = active
	m.polls[id] = p
	return nil
}

// HasEmailVoted implements votes.Store.
func (m *MemStore) HasEmailVoted(_ context.Context, pollID uuid.UUID, email string) (bool, error) {
	m.mu.Lock()
	err := m.CheckErr
	voted := false
	for _, v := range m.votes {
		if v.PollID == pollID && v.Email != nil && *v.Email == email {
			voted = true
			break
		}
	}
	hook := m.AfterCheck
	m.mu.Unlock()

	if err != nil {
		return false, err
	}
	if hook != nil {
		hook()
	}
	return voted, nil
}

// InsertBallot implements votes.Store.
func (m *MemStore) InsertBallot(_ context.Context, pollID uuid.UUID, rows []*models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	for _, v := range rows {
		if !m.hasOption(pollID, v.OptionID) {
			return votes.ErrOptionMismatch
		}
	}
	if len(rows) > 0 && rows[0].Email != nil {
		email := *rows[0].Email
		if m.voters[pollID][email] {
			return votes.ErrDuplicateVoter
		}
		if m.voters[pollID] == nil {
			m.voters[pollID] = make(map[string]bool)
		}
		m.voters[pollID][email] = true
	}
	for _, v := range rows {
		v.ID = uuid.New()
		v.CreatedAt = m.tick()
		m.votes = append(m.votes, *v)
	}
	return nil
}

func (m *MemStore) hasOption(pollID, optionID uuid.UUID) bool {
	for _, o := range m.options[pollID] {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// ListVoteRows implements results.Store.
func (m *MemStore) ListVoteRows(_ context.Context, pollID uuid.UUID) ([]models.VoteRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text := make(map[uuid.UUID]string)
	for _, o := range m.options[pollID] {
		text[o.ID] = o.Text
	}
	var rows []models.VoteRow
	for _, v := range m.votes {
		if v.PollID != pollID {
			continue
		}
		rows = append(rows, models.VoteRow{OptionID: v.OptionID, OptionText: text[v.OptionID], Name: v.Name, Email: v.Email, CreatedAt: v.CreatedAt})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

// CountVotesByPoll implements results.Store.
func (m *MemStore) CountVotesByPoll(_ context.Context) (map[uuid.UUID]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[uuid.UUID]int)
	for _, v := range m.votes {
		counts[v.PollID]++
	}
	return counts, nil
}

// Votes returns a copy of every stored vote.
func (m *MemStore) Votes() []models.Vote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Vote(nil), m.votes...)
}

// PollCount returns the number of stored polls.
func (m *MemStore) PollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.polls)
}

// OptionByText returns the first option of the poll with the given text.
func OptionByText(p *models.PollWithOptions, text string) uuid.UUID {
	for _, o := range p.Options {
		if o.Text == text {
			return o.ID
		}
	}
	return uuid.Nil
}
