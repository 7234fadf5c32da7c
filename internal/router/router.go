package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pollify/backend/internal/exports"
	"github.com/pollify/backend/internal/middleware"
	"github.com/pollify/backend/internal/polls"
	"github.com/pollify/backend/internal/realtime"
	"github.com/pollify/backend/internal/results"
	"github.com/pollify/backend/internal/votes"
	"github.com/pollify/backend/pkg/response"
)

const healthTimeout = 2 * time.Second

// HealthCheck probes one backing service for GET /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the handlers the router mounts. Exports, Hub and Health are optional.
type Deps struct {
	Logger      *zap.Logger
	Health      []HealthCheck
	CORSOrigins string
	Polls       *polls.Handler
	Votes       *votes.Handler
	Results     *results.Handler
	Exports     *exports.Handler
	Hub         *realtime.Hub
	Upgrader    *websocket.Upgrader
}

// New builds the HTTP router.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(middleware.Logger(d.Logger))

	r.GET("/health", health(d.Health))

	// Poll definition and admin
	r.POST("/polls", d.Polls.Create)
	r.GET("/polls", d.Results.List)
	r.GET("/polls/:id", d.Polls.GetByID)
	r.PATCH("/polls/:id/active", d.Polls.SetActive)
	r.GET("/dashboard", d.Results.Dashboard)

	// Voting
	r.POST("/polls/:id/votes", d.Votes.Cast)
	r.GET("/polls/:id/voted", d.Votes.HasVoted)

	// Results
	r.GET("/polls/:id/results", d.Results.Results)
	r.GET("/polls/:id/voters", d.Results.Voters)

	if d.Exports != nil {
		r.POST("/polls/:id/exports", d.Exports.Create)
	}

	if d.Hub != nil {
		upgrader := d.Upgrader
		if upgrader == nil {
			upgrader = realtime.NewUpgrader(nil)
		}
		r.GET("/ws", realtime.ServeWs(d.Hub, upgrader, d.Logger))
	}
	return r
}

func health(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := gin.H{}
		healthy := true
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				status[hc.Name] = err.Error()
				healthy = false
				continue
			}
			status[hc.Name] = "ok"
		}
		if !healthy {
			response.Fail(c, http.StatusServiceUnavailable, "degraded", status)
			return
		}
		status["status"] = "ok"
		response.OK(c, status)
	}
}
