package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service is the cache contract used by the pipeline. Implementations are
// best-effort: callers treat errors as a miss and fall back to the durable
// store; cache unavailability never blocks the update path.
type Service interface {
	// Get returns the cached value and whether the key was present
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value with a TTL
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// SetNX stores a value only if the key is absent, returning whether the
	// write happened. Used for enqueue dedup.
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// HealthCheck verifies the cache connection is healthy
	HealthCheck(ctx context.Context) error
}

// RedisCache implements Service using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a redis-backed cache from a redis URL
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// NewRedisCacheFromClient wraps an existing redis client
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Client exposes the underlying redis client (shared with the rate limiter store)
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Get returns the cached value and whether the key was present
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores a value with a TTL
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// SetNX stores a value only if the key is absent
func (c *RedisCache) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx %s: %w", key, err)
	}
	return ok, nil
}

// HealthCheck verifies the cache connection is healthy
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ProgressKey is the cache key for a user's real-time progress snapshot
func ProgressKey(userID string) string {
	return "progress:" + userID
}

// CumulativeKey is the cache key for a user's cumulative accuracy
func CumulativeKey(userID string) string {
	return "cumulative:" + userID
}

// DetectorKey is the cache key for a detector result, keyed by a hash of the
// input text so identical messages reuse prior analyses
func DetectorKey(source, text string) string {
	return "detect:" + source + ":" + HashText(text)
}

// HashText returns a stable hex digest of the given text
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
