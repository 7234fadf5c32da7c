package results

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/pollify/backend/internal/models"
)

// Store reads votes for aggregation.
type Store interface {
	// ListVoteRows returns every vote of the poll joined with its option text, oldest first.
	ListVoteRows(ctx context.Context, pollID uuid.UUID) ([]models.VoteRow, error)
	// CountVotesByPoll returns the number of vote rows per poll. Polls without votes may be absent.
	CountVotesByPoll(ctx context.Context) (map[uuid.UUID]int, error)
}

// PollSource supplies polls and their options.
type PollSource interface {
	GetPoll(ctx context.Context, id uuid.UUID) (*models.PollWithOptions, error)
	ListPolls(ctx context.Context) ([]models.Poll, error)
}

// Service computes poll results.
type Service struct {
	store  Store
	polls  PollSource
	logger *zap.Logger
}

// NewService creates a results service.
func NewService(store Store, polls PollSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, polls: polls, logger: logger}
}

// ComputeResults returns the vote count and percentage of every option that received a vote.
func (s *Service) ComputeResults(ctx context.Context, pollID uuid.UUID) ([]models.OptionResult, error) {
	rows, err := s.rows(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return Aggregate(rows), nil
}

// ComputeResultsWithZeros is ComputeResults with unvoted options reported as zero, in option order.
func (s *Service) ComputeResultsWithZeros(ctx context.Context, pollID uuid.UUID) ([]models.OptionResult, error) {
	poll, err := s.polls.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	res, err := s.ComputeResults(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return IncludeZeros(poll.Options, res), nil
}

// ComputeVoterDetail returns who voted for each option, most recent first.
func (s *Service) ComputeVoterDetail(ctx context.Context, pollID uuid.UUID) ([]models.OptionVoters, error) {
	rows, err := s.rows(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return GroupVoters(rows), nil
}

// Snapshot computes both views of a poll from a single read.
func (s *Service) Snapshot(ctx context.Context, pollID uuid.UUID) (*models.PollResults, error) {
	rows, err := s.rows(ctx, pollID)
	if err != nil {
		return nil, err
	}
	res := Aggregate(rows)
	return &models.PollResults{
		PollID:     pollID,
		TotalVotes: Total(res),
		Results:    res,
		Voters:     GroupVoters(rows),
	}, nil
}

// Summaries lists all polls, newest first, with their vote totals.
func (s *Service) Summaries(ctx context.Context) ([]models.PollSummary, error) {
	list, err := s.polls.ListPolls(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountVotesByPoll(ctx)
	if err != nil {
		s.logger.Error("count votes by poll", zap.Error(err))
		return nil, err
	}
	return lo.Map(list, func(p models.Poll, _ int) models.PollSummary {
		return models.PollSummary{Poll: p, TotalVotes: counts[p.ID]}
	}), nil
}

// Dashboard computes the administrative overview.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	summaries, err := s.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	return &models.DashboardStats{
		TotalPolls:  len(summaries),
		ActivePolls: lo.CountBy(summaries, func(p models.PollSummary) bool { return p.Active }),
		TotalVotes:  lo.SumBy(summaries, func(p models.PollSummary) int { return p.TotalVotes }),
		TopPoll:     TopPoll(summaries),
	}, nil
}

func (s *Service) rows(ctx context.Context, pollID uuid.UUID) ([]models.VoteRow, error) {
	rows, err := s.store.ListVoteRows(ctx, pollID)
	if err != nil {
		s.logger.Error("list vote rows", zap.String("poll_id", pollID.String()), zap.Error(err))
		return nil, err
	}
	return rows, nil
}
