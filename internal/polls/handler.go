package polls

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pollify/backend/pkg/response"
)

// CreateRequest is the body for POST /polls.
type CreateRequest struct {
	Question      string   `json:"question" binding:"required"`
	Options       []string `json:"options" binding:"required"`
	AllowMultiple bool     `json:"allow_multiple"`
	// RequireNameEmail defaults to true when omitted.
	RequireNameEmail *bool `json:"require_name_email"`
}

// SetActiveRequest is the body for PATCH /polls/:id/active.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a polls handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /polls.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	requireNameEmail := true
	if req.RequireNameEmail != nil {
		requireNameEmail = *req.RequireNameEmail
	}

	p, err := h.svc.CreatePoll(c.Request.Context(), CreateInput{
		Question:         req.Question,
		Options:          req.Options,
		AllowMultiple:    req.AllowMultiple,
		RequireNameEmail: requireNameEmail,
	})
	switch {
	case errors.Is(err, ErrQuestionRequired), errors.Is(err, ErrTooFewOptions):
		response.BadRequest(c, err.Error())
		return
	case err != nil:
		response.Internal(c, "failed to create poll")
		return
	}
	response.Created(c, p)
}

// GetByID handles GET /polls/:id.
func (h *Handler) GetByID(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	p, err := h.svc.GetPoll(c.Request.Context(), pollID)
	if err != nil {
		if errors.Is(err, ErrPollNotFound) {
			response.NotFound(c, "poll not found")
			return
		}
		response.Internal(c, "failed to load poll")
		return
	}
	response.OK(c, p)
}

// SetActive handles PATCH /polls/:id/active.
func (h *Handler) SetActive(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: active is required")
		return
	}
	if err := h.svc.SetActive(c.Request.Context(), pollID, *req.Active); err != nil {
		if errors.Is(err, ErrPollNotFound) {
			response.NotFound(c, "poll not found")
			return
		}
		response.Internal(c, "failed to update poll")
		return
	}
	response.OK(c, gin.H{"id": pollID, "active": *req.Active})
}
