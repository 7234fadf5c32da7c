package results

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pollify/backend/internal/models"
	"github.com/pollify/backend/internal/polls"
	"github.com/pollify/backend/pkg/response"
)

// Handler handles result and dashboard endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a results handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Results handles GET /polls/:id/results. ?include_zero=true also lists options without votes.
func (h *Handler) Results(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	includeZero, _ := strconv.ParseBool(c.Query("include_zero"))

	var res []models.OptionResult
	if includeZero {
		res, err = h.svc.ComputeResultsWithZeros(c.Request.Context(), pollID)
	} else {
		res, err = h.svc.ComputeResults(c.Request.Context(), pollID)
	}
	if err != nil {
		if errors.Is(err, polls.ErrPollNotFound) {
			response.NotFound(c, "poll not found")
			return
		}
		response.Internal(c, "failed to load results")
		return
	}
	response.OK(c, models.PollResults{PollID: pollID, TotalVotes: Total(res), Results: res})
}

// Voters handles GET /polls/:id/voters.
func (h *Handler) Voters(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	detail, err := h.svc.ComputeVoterDetail(c.Request.Context(), pollID)
	if err != nil {
		response.Internal(c, "failed to load voters")
		return
	}
	response.OK(c, gin.H{"poll_id": pollID, "voters": detail})
}

// List handles GET /polls (admin listing with vote totals).
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.Summaries(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list polls")
		return
	}
	response.OK(c, gin.H{"polls": list})
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to load dashboard")
		return
	}
	response.OK(c, stats)
}
