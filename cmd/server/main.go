package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/SAP-F-2025/practice-service/internal/handlers"
	"github.com/SAP-F-2025/practice-service/internal/questionsource"
	"github.com/SAP-F-2025/practice-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/SAP-F-2025/practice-service/pkg"
	"github.com/SAP-F-2025/practice-service/pkg/monitoring"
	"github.com/gin-gonic/gin"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Database initialization failed")
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.LogError(err, "Database migration failed")
		os.Exit(1)
	}
	if *migrateOnly {
		logger.Info("Migrations applied")
		return
	}
	repo := postgres.NewRepository(db)
	defer repo.Close()

	ctx := context.Background()
	health := map[string]handlers.HealthChecker{"database": repo.Ping}

	// Redis is optional; without it the service runs uncached.
	var cacheService cache.CacheService
	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, caching disabled", "error", err.Error())
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, "practice:", slogger)
		health["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Event publisher initialization failed")
		os.Exit(1)
	}
	defer publisher.Close()

	bank := questionsource.NewClient(questionsource.Config{
		BaseURL:           cfg.QuestionSource.BaseURL,
		Timeout:           cfg.QuestionSource.Timeout,
		RequestsPerSecond: cfg.QuestionSource.RequestsPerSecond,
		Burst:             cfg.QuestionSource.Burst,
	}, slogger)

	serviceManager := services.NewServiceManager(repo, bank, cacheService, publisher, validator.New(), slogger, services.ManagerConfig{
		Quiz: services.QuizConfig{
			DefaultQuestionCount: cfg.Quiz.DefaultQuestionCount,
			MaxQuestionCount:     cfg.Quiz.MaxQuestionCount,
			DedupeQuestions:      cfg.Quiz.DedupeQuestions,
			PersistenceTimeout:   cfg.Quiz.PersistenceTimeout,
			PersistenceRetries:   cfg.Quiz.PersistenceRetries,
			RetryBackoff:         cfg.Quiz.RetryBackoff,
		},
		SubjectRollup: cfg.Stats.SubjectRollup,
		StatsCacheTTL: cfg.Stats.CacheTTL,
	})

	monitoring.Init()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(monitoring.MetricsMiddleware())

	auth := handlers.DevAuthMiddleware()
	if cfg.Auth.Enabled {
		auth = handlers.AuthMiddleware(handlers.NewCasdoorTokenParser(cfg.Auth), logger)
	} else {
		logger.Warn("Token auth disabled, trusting " + handlers.DevUserHeader + " header")
	}

	handlers.NewHandlerManager(serviceManager, health, logger).SetupRoutes(router, auth)

	evictCtx, stopEviction := context.WithCancel(ctx)
	go evictIdleSessions(evictCtx, serviceManager.Quiz(), cfg.Quiz.SessionIdleTimeout, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server running", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	stopEviction()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}

	logger.Info("Server exiting", "active_sessions", serviceManager.Quiz().ActiveSessions())
}

func evictIdleSessions(ctx context.Context, quiz services.QuizService, idle time.Duration, logger utils.Logger) {
	if idle <= 0 {
		return
	}
	interval := idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := quiz.EvictIdle(now.Add(-idle)); n > 0 {
				logger.Info("Evicted idle sessions", "count", n)
			}
		}
	}
}
