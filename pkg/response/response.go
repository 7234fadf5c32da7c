package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success writes data with the given 2xx status.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Body{Success: true, Data: data})
}

// Fail writes an error envelope. data may carry details such as per-component health.
func Fail(c *gin.Context, status int, err string, data interface{}) {
	c.JSON(status, Body{Success: false, Data: data, Error: err})
}

// OK sends 200 with data.
func OK(c *gin.Context, data interface{}) { Success(c, http.StatusOK, data) }

// Created sends 201 with data.
func Created(c *gin.Context, data interface{}) { Success(c, http.StatusCreated, data) }

// Accepted sends 202 for work that completes in the background.
func Accepted(c *gin.Context, data interface{}) { Success(c, http.StatusAccepted, data) }

// BadRequest sends 400. Used for validation failures.
func BadRequest(c *gin.Context, err string) { Fail(c, http.StatusBadRequest, err, nil) }

// NotFound sends 404.
func NotFound(c *gin.Context, err string) { Fail(c, http.StatusNotFound, err, nil) }

// Conflict sends 409: inactive poll or an email that already voted.
func Conflict(c *gin.Context, err string) { Fail(c, http.StatusConflict, err, nil) }

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) { Fail(c, http.StatusServiceUnavailable, err, nil) }

// Internal sends 500. err should be generic; details belong in the log.
func Internal(c *gin.Context, err string) { Fail(c, http.StatusInternalServerError, err, nil) }
