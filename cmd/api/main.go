// Package main is the entry point for the supplement-catalog-service API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/app/service"
	"supplement-catalog-service/internal/config"
	"supplement-catalog-service/internal/domain"
	fsinfra "supplement-catalog-service/internal/infra/firestore"
	"supplement-catalog-service/internal/infra/identity"
	rediscache "supplement-catalog-service/internal/infra/redis"
	"supplement-catalog-service/internal/job"
	"supplement-catalog-service/internal/logger"
	"supplement-catalog-service/internal/transport/httpserver"
	"supplement-catalog-service/internal/transport/httpserver/middleware"
	"supplement-catalog-service/internal/validator"
	"supplement-catalog-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting supplement-catalog-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Connect to the document store
	fsClient, err := fsinfra.NewClient(ctx, fsinfra.Config{
		ProjectID:       cfg.Firestore.ProjectID,
		CredentialsFile: cfg.Firestore.CredentialsFile,
	})
	if err != nil {
		log.Fatal("failed to connect to document store", zap.Error(err))
	}
	defer func() { _ = fsClient.Close() }()
	log.Info("connected to document store", zap.String("project", cfg.Firestore.ProjectID))

	// Create repositories
	catalogRepo := fsinfra.NewCatalogRepository(fsClient, log.Logger)
	userRepo := fsinfra.NewUserRepository(fsClient, log.Logger)
	reviewStream := fsinfra.NewReviewStream(fsClient, log.Logger)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr()))

	// The cache wrapper is always built so readiness can ping Redis;
	// search results are only cached when enabled.
	redisCache := rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)

	var cache domain.Cache
	if cfg.Cache.Enabled {
		cache = redisCache
		log.Info("search cache enabled",
			zap.Duration("search_ttl", cfg.Cache.SearchTTL),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
	} else {
		log.Info("search cache disabled")
	}

	// Create identity client
	verifier := identity.New(
		identity.ClientConfig{
			BaseURL: cfg.Identity.BaseURL,
			Timeout: cfg.Identity.Timeout,
			Retry: identity.RetryConfig{
				MaxAttempts: cfg.Identity.Retry.MaxAttempts,
				WaitTime:    cfg.Identity.Retry.WaitTime,
				MaxWaitTime: cfg.Identity.Retry.MaxWaitTime,
			},
			CB: identity.CBConfig{
				MaxRequests:  cfg.Identity.CB.MaxRequests,
				Interval:     cfg.Identity.CB.Interval,
				Timeout:      cfg.Identity.CB.Timeout,
				FailureRatio: cfg.Identity.CB.FailureRatio,
			},
		},
		log.Logger,
	)

	// Create services
	projector := service.NewProjector(catalogRepo, log.Logger)
	searchSvc := service.NewSearchService(catalogRepo, projector, cache, cfg.Cache.SearchTTL, log.Logger)
	reviewSvc := service.NewReviewService(catalogRepo, reviewStream, log.Logger)
	favoritesSvc := service.NewFavoritesService(userRepo, catalogRepo, log.Logger)

	// Create distributed locker
	distLocker := locker.NewRedisLocker(redisClient, log.Logger)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:      cfg.App.Port,
			BodyLimit: cfg.App.BodyLimit,
		},
		searchSvc,
		reviewSvc,
		favoritesSvc,
		verifier,
		[]middleware.Pinger{redisCache},
		v,
		log.Logger,
	)

	// Start counter audit scheduler with distributed locking
	var scheduler *job.AuditScheduler
	if cfg.Audit.Enabled {
		scheduler = job.NewAuditScheduler(
			reviewSvc,
			job.AuditConfig{
				Interval:  cfg.Audit.Interval,
				Timeout:   cfg.Audit.Timeout,
				OnStartup: cfg.Audit.OnStartup,
			},
			log.Logger,
			distLocker,
		)
		scheduler.Start(cfg.Audit.OnStartup)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		if scheduler != nil {
			scheduler.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
