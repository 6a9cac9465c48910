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

	"github.com/fluentive/fluentive/internal/batch"
	"github.com/fluentive/fluentive/internal/cache"
	"github.com/fluentive/fluentive/internal/config"
	"github.com/fluentive/fluentive/internal/corrections"
	"github.com/fluentive/fluentive/internal/database"
	"github.com/fluentive/fluentive/internal/detect"
	"github.com/fluentive/fluentive/internal/handlers"
	"github.com/fluentive/fluentive/internal/logger"
	"github.com/fluentive/fluentive/internal/progress"
	"github.com/fluentive/fluentive/internal/queue"
	"github.com/fluentive/fluentive/internal/scoring"
	"github.com/fluentive/fluentive/internal/services/semantic"
	"github.com/fluentive/fluentive/internal/telemetry"
	"github.com/fluentive/fluentive/internal/workers"
	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for semantic API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("Starting accuracy worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("concurrency", cfg.WorkerConcurrency),
		zap.Int("jobs_per_second", cfg.JobsPerSecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, "fluentive-worker", cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Warn("Failed to shut down tracer", zap.Error(err))
				}
			}()
		}
	}

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to database")

	// Initialize repositories
	progressRepo := database.NewProgressRepository(db)
	cumulativeRepo := database.NewCumulativeAccuracyRepository(db)

	// Initialize Redis cache
	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			zapLogger.Warn("Failed to close Redis connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to Redis")

	// Initialize RabbitMQ queue with cache-backed dedup
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, redisCache)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to RabbitMQ")

	// Assemble the detector chain: deterministic rules first, spelling,
	// then the semantic calibrator (absent when no API key is configured)
	calibrator := semantic.NewOpenAICalibrator(cfg.OpenAIKey, cfg.SemanticBaseURL, cfg.SemanticModel, zapLogger)
	detectors := []detect.Detector{
		detect.NewRuleDetector(),
		detect.NewDictionaryDetector(nil),
		detect.NewVocabularyDetector(calibrator),
	}
	registry := detect.NewRegistry(
		detectors,
		redisCache,
		time.Duration(cfg.DetectorTimeoutMS)*time.Millisecond,
		time.Duration(cfg.CacheTTLSec)*time.Second,
		zapLogger,
	)

	// Load weight profiles (built-ins plus optional YAML overrides)
	profiles, err := scoring.LoadProfiles(cfg.WeightProfilePath)
	if err != nil {
		zapLogger.Fatal("Failed to load weight profiles", zap.Error(err))
	}
	scorer := scoring.NewScorer(profiles)

	extractor := corrections.NewExtractor(zapLogger)
	aggregator := progress.NewAggregator(nil, zapLogger)

	batcher := batch.NewBatcher(progressRepo, redisCache, batch.Config{
		FlushInterval: time.Duration(cfg.FlushIntervalSec) * time.Second,
		MaxPending:    cfg.FlushMaxPending,
		BatchSize:     cfg.FlushBatchSize,
		CacheTTL:      time.Duration(cfg.CacheTTLSec) * time.Second,
	}, zapLogger)

	// Global job rate limiter backed by Redis, shared across worker replicas
	var rateLimiter *limiter.Limiter
	if cfg.JobsPerSecond > 0 {
		store, err := redisstore.NewStoreWithOptions(redisCache.Client(), limiter.StoreOptions{
			Prefix: "fluentive:ratelimit",
		})
		if err != nil {
			zapLogger.Warn("Failed to create rate limit store, throttling disabled", zap.Error(err))
		} else {
			rateLimiter = limiter.New(store, limiter.Rate{
				Period: time.Second,
				Limit:  int64(cfg.JobsPerSecond),
			})
		}
	}

	worker := workers.NewAccuracyWorker(
		registry,
		scorer,
		extractor,
		aggregator,
		cumulativeRepo,
		batcher,
		redisCache,
		jobQueue,
		rateLimiter,
		cfg.WorkerConcurrency,
		cfg.RabbitMQPrefetch,
		time.Duration(cfg.CacheTTLSec)*time.Second,
		zapLogger,
	)

	// Dead letter retention
	gc := queue.NewGarbageCollector(jobQueue, time.Hour, 7*24*time.Hour, zapLogger)

	// Health endpoint
	router := mux.NewRouter()
	router.Use(otelmux.Middleware("fluentive-worker"))
	healthChecker := handlers.NewHealthChecker(db, redisCache, jobQueue)
	router.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)

	healthServer := &http.Server{
		Addr:              ":" + cfg.HealthPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zapLogger.Info("Health endpoint listening", zap.String("port", cfg.HealthPort))
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("Health server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := batcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("Batcher stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("Dead letter GC stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("Worker stopped", zap.Error(err))
		}
	}()

	zapLogger.Info("Worker started, consuming accuracy jobs")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	zapLogger.Info("Shutdown signal received, stopping worker...")

	// Cancel context to stop processing; the batcher drains pending deltas
	// on its way out
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("Health server shutdown failed", zap.Error(err))
	}

	// Give in-flight jobs and the drain flush a moment to finish
	time.Sleep(2 * time.Second)

	zapLogger.Info("Worker stopped")
}
