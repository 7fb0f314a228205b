package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/repair-match-api/internal/config"
	"github.com/repair-match-api/internal/handler"
	"github.com/repair-match-api/internal/metrics"
	"github.com/repair-match-api/internal/repository"
	"github.com/repair-match-api/internal/service"
	"github.com/repair-match-api/pkg/database"
)

var configFile = flag.String("config", "", "Configuration file path")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	defer logger.Sync()

	// Set up database connection
	dbConfig := database.NewPostgresConfig(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)
	dbConfig.MaxConns = cfg.Database.MaxConns

	db, err := database.NewPostgresDB(dbConfig)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Candidate cache is optional; the engine works without Redis
	var cache *service.CandidateCache
	if cfg.Redis.Enabled {
		redisClient, err := database.NewRedisClient(database.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, candidate cache disabled", zap.Error(err))
		} else {
			cache = service.NewCandidateCache(redisClient.Client, time.Duration(cfg.Cache.CandidateTTL)*time.Second)
		}
		cancel()
	}

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(db)
	providerRepo := repository.NewProviderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize services
	assignmentService := service.NewAssignmentService(requestRepo, providerRepo, notificationRepo, cache, logger)
	requestService := service.NewRequestService(requestRepo, notificationRepo, logger)

	m := metrics.New()

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Register API routes
	handler.NewAssignmentHandler(assignmentService, m).RegisterRoutes(router)
	handler.NewRequestHandler(requestService).RegisterRoutes(router)

	router.GET("/metrics", m.Handler())
	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func newLogger(cfg config.LoggingConfig) *zap.Logger {
	level := zapcore.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, _ := zcfg.Build()
	return logger
}
