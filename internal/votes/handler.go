package votes

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pollify/backend/internal/polls"
	"github.com/pollify/backend/pkg/response"
)

// CastRequest is the body for POST /polls/:id/votes.
type CastRequest struct {
	OptionIDs []uuid.UUID `json:"option_ids" binding:"required"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
}

// Handler handles vote HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a votes handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Cast handles POST /polls/:id/votes.
func (h *Handler) Cast(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	var req CastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	rows, err := h.svc.CastBallot(c.Request.Context(), BallotRequest{
		PollID:    pollID,
		OptionIDs: req.OptionIDs,
		Name:      req.Name,
		Email:     req.Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"poll_id": pollID, "votes": rows})
}

// HasVoted handles GET /polls/:id/voted?email=.
func (h *Handler) HasVoted(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	voted, err := h.svc.HasEmailVoted(c.Request.Context(), pollID, c.Query("email"))
	if err != nil {
		response.Internal(c, "failed to check email")
		return
	}
	response.OK(c, gin.H{"poll_id": pollID, "voted": voted})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, polls.ErrPollNotFound):
		response.NotFound(c, "poll not found")
	case errors.Is(err, ErrPollInactive), errors.Is(err, ErrDuplicateVoter):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrNoSelection),
		errors.Is(err, ErrMultipleNotAllowed),
		errors.Is(err, ErrDuplicateOption),
		errors.Is(err, ErrOptionMismatch),
		errors.Is(err, ErrEmailRequired):
		response.BadRequest(c, err.Error())
	default:
		response.Internal(c, "failed to submit vote")
	}
}
