package polls

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

// MinOptions is the number of non-empty options a poll needs to accept votes.
const MinOptions = 2

var (
	ErrQuestionRequired = errors.New("question is required")
	ErrTooFewOptions    = fmt.Errorf("at least %d options are required", MinOptions)
	ErrPollNotFound     = errors.New("poll not found")
	// ErrPartialCreate means the poll row was stored but not all of its options were.
	ErrPartialCreate = errors.New("poll created without all options")
)

// Store is the persistence the poll service needs.
type Store interface {
	// CreatePoll stores p and one option per text, filling generated ids and timestamps.
	CreatePoll(ctx context.Context, p *models.Poll, optionTexts []string) ([]models.Option, error)
	GetPoll(ctx context.Context, id uuid.UUID) (*models.PollWithOptions, error)
	ListPolls(ctx context.Context) ([]models.Poll, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// CreateInput is a new poll definition.
type CreateInput struct {
	Question         string
	Options          []string
	AllowMultiple    bool
	RequireNameEmail bool
}

// Service creates and administers polls.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a poll service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// NormalizeOptions trims option texts and drops empty ones, keeping order.
// Duplicate texts are allowed.
func NormalizeOptions(options []string) []string {
	return lo.FilterMap(options, func(s string, _ int) (string, bool) {
		t := strings.TrimSpace(s)
		return t, t != ""
	})
}

// Validate checks a poll definition without touching the store and returns the cleaned input.
func Validate(in CreateInput) (CreateInput, error) {
	in.Question = strings.TrimSpace(in.Question)
	if in.Question == "" {
		return in, ErrQuestionRequired
	}
	in.Options = NormalizeOptions(in.Options)
	if len(in.Options) < MinOptions {
		return in, ErrTooFewOptions
	}
	return in, nil
}

// CreatePoll validates the definition and stores the poll with its options. New polls are active.
func (s *Service) CreatePoll(ctx context.Context, in CreateInput) (*models.PollWithOptions, error) {
	in, err := Validate(in)
	if err != nil {
		return nil, err
	}
	p := &models.Poll{
		Question:         in.Question,
		AllowMultiple:    in.AllowMultiple,
		RequireNameEmail: in.RequireNameEmail,
		Active:           true,
	}
	opts, err := s.store.CreatePoll(ctx, p, in.Options)
	if err != nil {
		if errors.Is(err, ErrPartialCreate) {
			s.logger.Error("poll stored without all options", zap.String("poll_id", p.ID.String()), zap.Error(err))
		} else {
			s.logger.Error("create poll", zap.Error(err))
		}
		return nil, fmt.Errorf("create poll: %w", err)
	}
	s.logger.Info("poll created", zap.String("poll_id", p.ID.String()), zap.Int("options", len(opts)))
	return &models.PollWithOptions{Poll: *p, Options: opts}, nil
}

// GetPoll returns a poll with its options.
func (s *Service) GetPoll(ctx context.Context, id uuid.UUID) (*models.PollWithOptions, error) {
	p, err := s.store.GetPoll(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrPollNotFound) {
			s.logger.Error("get poll", zap.String("poll_id", id.String()), zap.Error(err))
		}
		return nil, err
	}
	return p, nil
}

// ListPolls returns all polls, newest first.
func (s *Service) ListPolls(ctx context.Context) ([]models.Poll, error) {
	list, err := s.store.ListPolls(ctx)
	if err != nil {
		s.logger.Error("list polls", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// SetActive opens or closes a poll for voting. Concurrent toggles are last-write-wins.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.store.SetActive(ctx, id, active); err != nil {
		if !errors.Is(err, ErrPollNotFound) {
			s.logger.Error("set poll active", zap.String("poll_id", id.String()), zap.Error(err))
		}
		return err
	}
	s.logger.Info("poll status changed", zap.String("poll_id", id.String()), zap.Bool("active", active))
	return nil
}
