package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)
	return w
}

func TestEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(c *gin.Context)
		status int
		body   string
	}{
		{"ok", func(c *gin.Context) { OK(c, gin.H{"id": 1}) }, http.StatusOK, `{"success":true,"data":{"id":1}}`},
		{"created", func(c *gin.Context) { Created(c, "x") }, http.StatusCreated, `{"success":true,"data":"x"}`},
		{"accepted", func(c *gin.Context) { Accepted(c, nil) }, http.StatusAccepted, `{"success":true}`},
		{"bad request", func(c *gin.Context) { BadRequest(c, "nope") }, http.StatusBadRequest, `{"success":false,"error":"nope"}`},
		{"conflict", func(c *gin.Context) { Conflict(c, "voted") }, http.StatusConflict, `{"success":false,"error":"voted"}`},
		{"internal", func(c *gin.Context) { Internal(c, "failed") }, http.StatusInternalServerError, `{"success":false,"error":"failed"}`},
		{"fail with detail", func(c *gin.Context) { Fail(c, http.StatusServiceUnavailable, "degraded", gin.H{"redis": "down"}) }, http.StatusServiceUnavailable, `{"success":false,"data":{"redis":"down"},"error":"degraded"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := run(tt.fn)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())

			var b Body
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
		})
	}
}
