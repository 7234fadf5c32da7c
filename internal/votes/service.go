package votes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/pollify/backend/internal/models"
)

var (
	ErrPollInactive       = errors.New("poll is not accepting votes")
	ErrNoSelection        = errors.New("select at least one option")
	ErrMultipleNotAllowed = errors.New("poll allows a single selection")
	ErrDuplicateOption    = errors.New("option selected more than once")
	ErrOptionMismatch     = errors.New("option does not belong to poll")
	ErrEmailRequired      = errors.New("email is required for this poll")
	// ErrDuplicateVoter is an expected outcome, not a system failure: the email already voted on the poll.
	ErrDuplicateVoter = errors.New("this email has already voted on this poll")
)

// PollReader loads the poll a vote is cast on.
type PollReader interface {
	GetPoll(ctx context.Context, id uuid.UUID) (*models.PollWithOptions, error)
}

// Store is the vote persistence.
type Store interface {
	HasEmailVoted(ctx context.Context, pollID uuid.UUID, email string) (bool, error)
	// InsertBallot stores all rows of one ballot, filling ids and timestamps. When the rows carry an
	// email the store claims (poll, email) in the same write and returns ErrDuplicateVoter if it
	// was already claimed.
	InsertBallot(ctx context.Context, pollID uuid.UUID, rows []*models.Vote) error
}

// Publisher is notified of every stored vote.
type Publisher interface {
	Publish(ctx context.Context, ev models.VoteEvent) error
}

// VoteRequest is a vote for a single option.
type VoteRequest struct {
	PollID   uuid.UUID
	OptionID uuid.UUID
	Name     string
	Email    string
}

// BallotRequest is one voter's selection of one or more options.
type BallotRequest struct {
	PollID    uuid.UUID
	OptionIDs []uuid.UUID
	Name      string
	Email     string
}

// Service validates and records votes.
type Service struct {
	polls     PollReader
	store     Store
	publisher Publisher
	logger    *zap.Logger
}

// NewService creates a vote service. publisher may be nil when vote notifications come from the
// database change feed instead.
func NewService(polls PollReader, store Store, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{polls: polls, store: store, publisher: publisher, logger: logger}
}

// HasEmailVoted reports whether any vote on the poll carries exactly this email.
func (s *Service) HasEmailVoted(ctx context.Context, pollID uuid.UUID, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}
	voted, err := s.store.HasEmailVoted(ctx, pollID, email)
	if err != nil {
		s.logger.Error("check email voted", zap.String("poll_id", pollID.String()), zap.Error(err))
		return false, err
	}
	return voted, nil
}

// SubmitVote records a vote for one option.
func (s *Service) SubmitVote(ctx context.Context, req VoteRequest) (*models.Vote, error) {
	rows, err := s.CastBallot(ctx, BallotRequest{
		PollID:    req.PollID,
		OptionIDs: []uuid.UUID{req.OptionID},
		Name:      req.Name,
		Email:     req.Email,
	})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// CastBallot records one vote row per selected option, all with the same voter identity.
// The email check runs once for the whole ballot.
func (s *Service) CastBallot(ctx context.Context, req BallotRequest) ([]models.Vote, error) {
	poll, err := s.polls.GetPoll(ctx, req.PollID)
	if err != nil {
		return nil, err
	}
	if err := checkSelection(poll, req.OptionIDs); err != nil {
		return nil, err
	}

	var name, email *string
	if poll.RequireNameEmail {
		e := strings.TrimSpace(req.Email)
		if e == "" {
			return nil, ErrEmailRequired
		}
		email = &e
		if n := strings.TrimSpace(req.Name); n != "" {
			name = &n
		}

		// Advisory only: the store's claim on (poll, email) is authoritative.
		voted, err := s.store.HasEmailVoted(ctx, poll.ID, e)
		if err != nil {
			s.logger.Warn("email pre-check failed, relying on store constraint", zap.String("poll_id", poll.ID.String()), zap.Error(err))
		} else if voted {
			return nil, ErrDuplicateVoter
		}
	}

	rows := lo.Map(req.OptionIDs, func(optionID uuid.UUID, _ int) *models.Vote {
		return &models.Vote{PollID: poll.ID, OptionID: optionID, Name: name, Email: email}
	})
	if err := s.store.InsertBallot(ctx, poll.ID, rows); err != nil {
		if errors.Is(err, ErrDuplicateVoter) || errors.Is(err, ErrOptionMismatch) {
			return nil, err
		}
		s.logger.Error("insert ballot", zap.String("poll_id", poll.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("insert ballot: %w", err)
	}

	out := make([]models.Vote, 0, len(rows))
	for _, v := range rows {
		out = append(out, *v)
		s.publish(ctx, models.EventFromVote(*v))
	}
	s.logger.Info("ballot recorded", zap.String("poll_id", poll.ID.String()), zap.Int("votes", len(out)))
	return out, nil
}

func (s *Service) publish(ctx context.Context, ev models.VoteEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish vote event", zap.String("poll_id", ev.PollID.String()), zap.Error(err))
	}
}

func checkSelection(poll *models.PollWithOptions, optionIDs []uuid.UUID) error {
	if !poll.Active {
		return ErrPollInactive
	}
	if len(optionIDs) == 0 {
		return ErrNoSelection
	}
	if len(optionIDs) > 1 && !poll.AllowMultiple {
		return ErrMultipleNotAllowed
	}
	if len(lo.FindDuplicates(optionIDs)) > 0 {
		return ErrDuplicateOption
	}
	for _, id := range optionIDs {
		if !poll.HasOption(id) {
			return ErrOptionMismatch
		}
	}
	return nil
}
