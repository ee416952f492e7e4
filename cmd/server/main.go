// Package main runs the expansion management HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/expansio/backend/config"
	"github.com/expansio/backend/internal/analytics"
	"github.com/expansio/backend/internal/auth"
	"github.com/expansio/backend/internal/authz"
	"github.com/expansio/backend/internal/clients"
	"github.com/expansio/backend/internal/matches"
	"github.com/expansio/backend/internal/matching"
	"github.com/expansio/backend/internal/middleware"
	"github.com/expansio/backend/internal/notifications"
	"github.com/expansio/backend/internal/projects"
	"github.com/expansio/backend/internal/research"
	"github.com/expansio/backend/internal/vendors"
	"github.com/expansio/backend/pkg/database"
	"github.com/expansio/backend/pkg/mongodb"
	"github.com/expansio/backend/pkg/queue"
	"github.com/expansio/backend/pkg/redis"
	"github.com/expansio/backend/pkg/response"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

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

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Clients
	clientRepo := clients.NewRepository(pool)
	clientHandler := clients.NewHandler(clientRepo, logger)

	// Projects and vendors
	projectRepo := projects.NewRepository(pool)
	vendorRepo := vendors.NewRepository(pool)
	vendorHandler := vendors.NewHandler(vendorRepo, logger)

	// Matching
	matchRepo := matches.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	notifier := notifications.NewQueueNotifier(jobQueue)
	engine := matching.NewEngine(projectRepo, vendorRepo, matchRepo, authRepo, notifier, cfg.Matching.NotificationThreshold, logger)
	matchHandler := matches.NewHandler(matchRepo, projectRepo, engine, logger)
	projectHandler := projects.NewHandler(projectRepo, matchRepo, logger)

	// Research documents
	researchRepo := research.NewRepository(mongoClient.Database())
	checker := research.NewChecker(researchRepo, projectRepo, logger)
	researchHandler := research.NewHandler(researchRepo, projectRepo, checker, logger)

	// Analytics
	analyticsRepo := analytics.NewRepository(pool)
	analyticsHandler := analytics.NewHandler(analyticsRepo, researchRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Clients
		api.GET("/clients", middleware.RequireRole(authz.RoleAdmin), clientHandler.List)
		api.GET("/clients/:id", clientHandler.Get)
		api.PATCH("/clients/:id", clientHandler.Update)
		api.PATCH("/clients/:id/role", middleware.RequireRole(authz.RoleAdmin), clientHandler.UpdateRole)
		api.DELETE("/clients/:id", middleware.RequireRole(authz.RoleAdmin), clientHandler.Delete)

		// Projects
		api.POST("/projects", projectHandler.Create)
		api.GET("/projects", projectHandler.List)
		api.GET("/projects/:id", projectHandler.Get)
		api.PATCH("/projects/:id", projectHandler.Update)
		api.DELETE("/projects/:id", projectHandler.Delete)

		// Matches
		api.GET("/projects/:id/matches", matchHandler.ListByProject)
		api.POST("/projects/:id/matches/rebuild", matchHandler.Rebuild)

		// Vendors
		api.GET("/vendors", vendorHandler.List)
		api.GET("/vendors/:id", vendorHandler.Get)
		api.POST("/vendors", middleware.RequireRole(authz.RoleAdmin), vendorHandler.Create)
		api.PATCH("/vendors/:id", middleware.RequireRole(authz.RoleAdmin), vendorHandler.Update)
		api.DELETE("/vendors/:id", middleware.RequireRole(authz.RoleAdmin), vendorHandler.Delete)

		// Research documents
		api.POST("/research", researchHandler.Create)
		api.GET("/research", researchHandler.List)
		api.GET("/research/search", researchHandler.Search)
		api.GET("/research/orphans", middleware.RequireRole(authz.RoleAdmin), researchHandler.Orphans)
		api.GET("/research/:id", researchHandler.Get)
		api.PATCH("/research/:id", researchHandler.Update)
		api.DELETE("/research/:id", researchHandler.Delete)

		// Analytics
		api.GET("/analytics/top-vendors", middleware.RequireRole(authz.RoleAdmin), analyticsHandler.TopVendors)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
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
