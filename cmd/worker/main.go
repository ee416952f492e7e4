// Package main runs the background worker: notification delivery and the
// scheduled match rebuild.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/expansio/backend/config"
	"github.com/expansio/backend/internal/clients"
	"github.com/expansio/backend/internal/matches"
	"github.com/expansio/backend/internal/matching"
	"github.com/expansio/backend/internal/notifications"
	"github.com/expansio/backend/internal/projects"
	"github.com/expansio/backend/internal/research"
	"github.com/expansio/backend/internal/vendors"
	"github.com/expansio/backend/internal/worker"
	"github.com/expansio/backend/pkg/database"
	"github.com/expansio/backend/pkg/mongodb"
	"github.com/expansio/backend/pkg/queue"
	"github.com/expansio/backend/pkg/redis"
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

	mongoClient, err := mongodb.NewClient(ctx, cfg.Mongo.URI, cfg.Mongo.DBName, logger)
	if err != nil {
		logger.Fatal("mongodb", zap.Error(err))
	}
	defer mongoClient.Close(context.Background())

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	mailer := notifications.NewMailer(cfg.Mail, cfg.Server.FrontendURL)
	logRepo := notifications.NewLogRepository(pool)
	processor := worker.NewNotificationProcessor(mailer, logRepo, jobQueue, logger)

	// The scheduler re-enqueues notifications through the same queue the
	// processor drains.
	projectRepo := projects.NewRepository(pool)
	vendorRepo := vendors.NewRepository(pool)
	matchRepo := matches.NewRepository(pool)
	clientRepo := clients.NewRepository(pool)
	notifier := notifications.NewQueueNotifier(jobQueue)
	engine := matching.NewEngine(projectRepo, vendorRepo, matchRepo, clientRepo, notifier, cfg.Matching.NotificationThreshold, logger)

	researchRepo := research.NewRepository(mongoClient.Database())
	checker := research.NewChecker(researchRepo, projectRepo, logger)
	interval := time.Duration(cfg.Matching.RebuildIntervalHours) * time.Hour
	scheduler := worker.NewScheduler(engine, checker, interval, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	go scheduler.Run(workerCtx)
	logger.Info("worker started",
		zap.Float64("notification_threshold", cfg.Matching.NotificationThreshold),
		zap.Duration("rebuild_interval", interval),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
