package exports

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pollify/backend/internal/models"
	"github.com/pollify/backend/internal/polls"
	"github.com/pollify/backend/pkg/queue"
	"github.com/pollify/backend/pkg/response"
	"github.com/pollify/backend/pkg/storage"
)

// PollGetter confirms the poll exists before a job is queued.
type PollGetter interface {
	GetPoll(ctx context.Context, id uuid.UUID) (*models.PollWithOptions, error)
}

// Enqueuer queues background jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, jobType queue.JobType, payload interface{}) (*queue.Job, error)
}

// Handler handles export requests.
type Handler struct {
	polls PollGetter
	jobs  Enqueuer
}

// NewHandler creates an exports handler.
func NewHandler(polls PollGetter, jobs Enqueuer) *Handler {
	return &Handler{polls: polls, jobs: jobs}
}

// Create handles POST /polls/:id/exports.
func (h *Handler) Create(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	if _, err := h.polls.GetPoll(c.Request.Context(), pollID); err != nil {
		if errors.Is(err, polls.ErrPollNotFound) {
			response.NotFound(c, "poll not found")
			return
		}
		response.Internal(c, "failed to load poll")
		return
	}
	job, err := h.jobs.Enqueue(c.Request.Context(), queue.QueueExports, queue.JobTypeResultsExport, Payload{PollID: pollID})
	if err != nil {
		response.ServiceUnavailable(c, "export queue unavailable")
		return
	}
	response.Accepted(c, gin.H{
		"job_id":  job.ID,
		"poll_id": pollID,
		"key":     storage.ExportKey(pollID.String(), job.ID),
	})
}
