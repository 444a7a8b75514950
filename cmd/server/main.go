package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"flightsearch-service/internal/domain/repository"
	"flightsearch-service/internal/infrastructure/config"
	"flightsearch-service/internal/infrastructure/oauth"
	"flightsearch-service/internal/infrastructure/persistence"
	"flightsearch-service/internal/interface/cache"
	"flightsearch-service/internal/interface/provider"
	searchRepo "flightsearch-service/internal/interface/repository"
	"flightsearch-service/internal/interface/rest"
	"flightsearch-service/internal/usecase"
	"flightsearch-service/pkg/logger"
	"flightsearch-service/pkg/metrics"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	log.Info("Starting Flight Search Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("flightsearch")

	// Result cache: in-process by default, Redis when shared across
	// instances.
	var resultCache repository.ResultCache
	if cfg.CacheBackend == "redis" {
		log.Info("Connecting to Redis", "addr", cfg.RedisAddr)
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		resultCache = cache.NewRedisResultCache(redisClient, cfg.CacheTTL, log)
	} else {
		resultCache = cache.NewMemoryResultCache(cfg.CacheTTL)
	}

	// Search archive (optional)
	var archive repository.SearchArchiveRepository
	var mongoClient interface{ Disconnect(context.Context) error }
	if cfg.MongoURI != "" {
		log.Info("Connecting to MongoDB")
		client, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		mongoClient = client
		archive = searchRepo.NewMongoSearchArchiveRepository(db)
	} else {
		log.Warn("MONGODB_DSN not set, search archiving disabled")
	}

	// Airline reference data (optional)
	var airlines repository.AirlineRepository
	if cfg.PostgresURI != "" {
		gormDB, err := gorm.Open(postgres.Open(cfg.PostgresURI), &gorm.Config{})
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", "error", err)
		}
		airlines = searchRepo.NewGormAirlineRepository(gormDB)
	} else {
		log.Warn("POSTGRES_DSN not set, airline name decoration disabled")
	}

	// Set up provider OAuth and client
	providerOAuth := oauth.NewProviderOAuth(
		cfg.ProviderTokenURL,
		cfg.ProviderClientID,
		cfg.ProviderClientSecret,
		log,
	)
	flightProvider := provider.NewClient(
		cfg.ProviderBaseURL,
		providerOAuth.HTTPClient(ctx),
		cfg.ProviderTimeout,
		log,
	)

	// Set up the search orchestrator
	searchCfg := usecase.SearchConfig{
		Tuning: usecase.PollTuning{
			Interval:                cfg.PollInterval,
			RetryDelay:              cfg.PollRetryDelay,
			IdleCutoff:              cfg.IdleCutoff,
			EmptyPollCutoff:         cfg.EmptyPollCutoff,
			EmptyPollCutoffNoResult: cfg.EmptyPollCutoffNoResult,
		},
		InitialVisibleCount: cfg.InitialVisibleCount,
		RevealPageSize:      cfg.RevealPageSize,
	}
	orchestrator := usecase.NewOrchestrator(
		flightProvider,
		resultCache,
		usecase.NewPendingRequestRegistry(),
		airlines,
		archive,
		searchCfg,
		log,
		m,
	)

	// Set up HTTP server
	handler := rest.NewHandler(orchestrator, log)
	e := rest.NewRouter(handler, log)
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown: stop pollers before tearing the server down so
	// no stale poll can mutate state mid-shutdown.
	orchestrator.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines

	if mongoClient != nil {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}

	log.Info("Flight Search Service stopped")
}
