package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fluentive/fluentive/internal/cache"
	"github.com/fluentive/fluentive/internal/config"
	"github.com/fluentive/fluentive/internal/database"
	"github.com/fluentive/fluentive/internal/queue"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test service connectivity",
		Long:  "Verify that the database, Redis and RabbitMQ are reachable with the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			fmt.Println("Testing database connection...")
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()
			fmt.Println("✓ Database is reachable")

			fmt.Println("\nTesting Redis connection...")
			redisCache, err := cache.NewRedisCache(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("redis connection failed: %w", err)
			}
			defer func() {
				if err := redisCache.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close Redis: %v\n", err)
				}
			}()
			if err := redisCache.HealthCheck(ctx); err != nil {
				return fmt.Errorf("redis health check failed: %w", err)
			}
			fmt.Println("✓ Redis is reachable")

			fmt.Println("\nTesting RabbitMQ connection...")
			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, redisCache)
			if err != nil {
				return fmt.Errorf("rabbitmq connection failed: %w", err)
			}
			defer func() {
				if err := jobQueue.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close RabbitMQ: %v\n", err)
				}
			}()
			if err := jobQueue.HealthCheck(ctx); err != nil {
				return fmt.Errorf("rabbitmq health check failed: %w", err)
			}
			fmt.Println("✓ RabbitMQ is reachable")

			fmt.Println("\n✓ All connectivity checks passed")
			return nil
		},
	}
}
