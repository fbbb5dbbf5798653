package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/cache"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/config"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/events"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/handlers"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories/postgres"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/services"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/utils"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/validator"
	"github.com/Craipes/StudyTestingSoftware-sub000/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache and sweep lease", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Session events
	var publisher events.EventPublisher
	if cfg.Kafka.Enabled() {
		publisher, err = events.NewKafkaEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize event publisher: %v", err)
		}
	} else {
		logger.Info("No Kafka brokers configured, session events are logged only")
		publisher = events.NewMockEventPublisher(slogLogger)
	}

	// Initialize services
	expiry := services.DefaultExpirySchedulerConfig()
	expiry.Interval = cfg.Expiry.Interval
	expiry.BatchSize = cfg.Expiry.BatchSize

	serviceManager := services.NewServiceManager(
		repoManager.GetRepository(),
		publisher,
		cache.NewCacheManager(redisClient).Lease,
		slogLogger,
		validator.New(),
		services.ServiceManagerConfig{
			Expiry:                 expiry,
			DisableExpiryScheduler: cfg.Expiry.Disabled,
		},
	)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	authMiddleware := handlers.NewCasdoorAuthMiddleware(cfg.Casdoor)
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, authMiddleware)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Stops the expiry sweep and closes the publisher
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}
