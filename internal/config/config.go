package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	RabbitMQURL string
	// RabbitMQPrefetch bounds unacknowledged deliveries per consumer;
	// 0 matches the worker concurrency
	RabbitMQPrefetch int

	// Worker tuning
	WorkerConcurrency int
	JobsPerSecond     int
	DetectorTimeoutMS int

	// Batched persistence
	FlushIntervalSec int
	FlushMaxPending  int
	FlushBatchSize   int
	CacheTTLSec      int

	// Semantic calibrator
	OpenAIKey       string
	SemanticModel   string
	SemanticBaseURL string

	// Optional YAML file overriding the built-in weight profiles
	WeightProfilePath string

	HealthPort      string
	WorkerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 0),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 10),
		JobsPerSecond:     getEnvInt("JOBS_PER_SECOND", 20),
		DetectorTimeoutMS: getEnvInt("DETECTOR_TIMEOUT_MS", 3000),

		FlushIntervalSec: getEnvInt("FLUSH_INTERVAL_SEC", 30),
		FlushMaxPending:  getEnvInt("FLUSH_MAX_PENDING", 100),
		FlushBatchSize:   getEnvInt("FLUSH_BATCH_SIZE", 25),
		CacheTTLSec:      getEnvInt("CACHE_TTL_SEC", 60),

		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		SemanticModel:   getEnv("SEMANTIC_MODEL", ""),
		SemanticBaseURL: getEnv("SEMANTIC_BASE_URL", ""),

		WeightProfilePath: getEnv("WEIGHT_PROFILE_PATH", ""),

		HealthPort:      getEnv("HEALTH_PORT", "8081"),
		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for accuracy job queueing")
	}

	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
