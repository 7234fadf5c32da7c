package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pollify/backend/internal/models"
	"github.com/pollify/backend/internal/polls"
	"github.com/pollify/backend/internal/realtime"
	"github.com/pollify/backend/internal/results"
	"github.com/pollify/backend/internal/testutil"
	"github.com/pollify/backend/internal/votes"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := testutil.NewMemStore()
	broker := realtime.NewBroker()
	ps := polls.NewService(store, nil)
	rs := results.NewService(store, ps, nil)
	return New(Deps{
		Logger:      zap.NewNop(),
		CORSOrigins: "*",
		Polls:       polls.NewHandler(ps),
		Votes:       votes.NewHandler(votes.NewService(ps, store, broker, nil)),
		Results:     results.NewHandler(rs),
		Hub:         realtime.NewHub(nil, broker, rs),
	})
}

func call(t *testing.T, r http.Handler, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return w.Code
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, call(t, newTestEngine(), http.MethodGet, "/health", nil, nil))

	gin.SetMode(gin.TestMode)
	store := testutil.NewMemStore()
	ps := polls.NewService(store, nil)
	r := New(Deps{
		Logger:  zap.NewNop(),
		Polls:   polls.NewHandler(ps),
		Votes:   votes.NewHandler(votes.NewService(ps, store, nil, nil)),
		Results: results.NewHandler(results.NewService(store, ps, nil)),
		Health: []HealthCheck{
			{Name: "postgres", Check: func(context.Context) error { return nil }},
			{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
		},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"degraded","data":{"postgres":"ok","redis":"connection refused"}}`, w.Body.String())
}

func TestPollLifecycle(t *testing.T) {
	r := newTestEngine()

	var poll models.PollWithOptions
	code := call(t, r, http.MethodPost, "/polls", map[string]interface{}{
		"question": "Tea or Coffee?",
		"options":  []string{"Tea", "Coffee"},
	}, &poll)
	require.Equal(t, http.StatusCreated, code)
	base := "/polls/" + poll.ID.String()

	for _, pick := range []string{"Tea", "Coffee", "Tea"} {
		code = call(t, r, http.MethodPost, base+"/votes", votes.CastRequest{
			OptionIDs: []uuid.UUID{testutil.OptionByText(&poll, pick)},
			Name:      gofakeit.Name(),
			Email:     gofakeit.UUID() + "@example.com",
		}, nil)
		require.Equal(t, http.StatusCreated, code)
	}

	var res models.PollResults
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, base+"/results", nil, &res))
	assert.Equal(t, 3, res.TotalVotes)
	require.Len(t, res.Results, 2)
	assert.Equal(t, 67, res.Results[0].Percentage)
	assert.Equal(t, 33, res.Results[1].Percentage)

	var stats models.DashboardStats
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/dashboard", nil, &stats))
	assert.Equal(t, 1, stats.TotalPolls)
	require.NotNil(t, stats.TopPoll)
	assert.Equal(t, poll.ID, stats.TopPoll.PollID)

	require.Equal(t, http.StatusOK, call(t, r, http.MethodPatch, base+"/active", map[string]bool{"active": false}, nil))
	code = call(t, r, http.MethodPost, base+"/votes", votes.CastRequest{
		OptionIDs: []uuid.UUID{testutil.OptionByText(&poll, "Tea")},
		Email:     "late@example.com",
	}, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestExportsRouteOptional(t *testing.T) {
	r := newTestEngine()
	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodPost, "/polls/00000000-0000-0000-0000-000000000000/exports", nil, nil))
}
