// Package main runs the polling HTTP server with live results over WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pollify/backend/config"
	"github.com/pollify/backend/internal/exports"
	"github.com/pollify/backend/internal/polls"
	"github.com/pollify/backend/internal/realtime"
	"github.com/pollify/backend/internal/results"
	"github.com/pollify/backend/internal/router"
	"github.com/pollify/backend/internal/votes"
	"github.com/pollify/backend/pkg/database"
	"github.com/pollify/backend/pkg/queue"
	"github.com/pollify/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis is optional: without it votes fan out in-process and exports are disabled.
	rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Vote notifications: with the Postgres change feed every instance hears every insert, so
	// the listener feeds a local broker and the vote service publishes nothing itself.
	// Without it, the vote service publishes to Redis (or the local broker on a single instance).
	broker := realtime.NewBroker()
	var (
		voteFeed      realtime.Subscriber = broker
		votePublisher votes.Publisher
	)
	switch {
	case cfg.Realtime.ListenPostgres:
		listener := realtime.NewPGListener(pool, broker, logger)
		go listener.Run(bgCtx)
	case rdb != nil:
		redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
		voteFeed, votePublisher = redisPubSub, redisPubSub
	default:
		votePublisher = broker
	}

	pollRepo := polls.NewRepository(pool)
	pollService := polls.NewService(pollRepo, logger)

	voteRepo := votes.NewRepository(pool)
	voteService := votes.NewService(pollRepo, voteRepo, votePublisher, logger)

	resultRepo := results.NewRepository(pool)
	resultService := results.NewService(resultRepo, pollRepo, logger)

	hub := realtime.NewHub(logger, voteFeed, resultService)

	deps := router.Deps{
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Polls:       polls.NewHandler(pollService),
		Votes:       votes.NewHandler(voteService),
		Results:     results.NewHandler(resultService),
		Hub:         hub,
		Upgrader:    realtime.NewUpgrader(cfg.Realtime.AllowedWSOrigins),
		Health:      []router.HealthCheck{{Name: "postgres", Check: pool.Ping}},
	}
	if rdb != nil {
		deps.Health = append(deps.Health, router.HealthCheck{Name: "redis", Check: rdb.Healthy})
		jobQueue := queue.NewQueue(rdb.Client, cfg.Worker.MaxRetries, logger)
		deps.Exports = exports.NewHandler(pollService, jobQueue)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.New(deps),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	bgCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
