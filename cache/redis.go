package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed translation cache shared by server replicas.
// Keys are hashed because they embed the full source text.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	timeout   time.Duration

	hits, misses prometheus.Counter
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string        // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       time.Duration // Entry lifetime (0 = no expiration)
	KeyPrefix string        // Prefix for all keys (default: "newslate:tr:")
}

const defaultRedisPrefix = "newslate:tr:"

// NewRedisCache creates a new Redis cache with the given configuration.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisCacheFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisCacheFromClient creates a RedisCache from an existing Redis client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = defaultRedisPrefix
	}
	if ttl < 0 {
		ttl = 0
	}

	// The prefix names the cache in metrics: "newslate:news:list:" -> "newslate:news:list".
	name := strings.TrimSuffix(keyPrefix, ":")
	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		timeout:   2 * time.Second,
		hits:      cacheHits.WithLabelValues(layerRedis, name),
		misses:    cacheMisses.WithLabelValues(layerRedis, name),
	}
}

// RedisKey returns the Redis key a cache key is stored under.
func (c *RedisCache) RedisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return c.keyPrefix + hex.EncodeToString(sum[:])
}

// Get retrieves a value from Redis. Connection errors count as misses.
func (c *RedisCache) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	val, err := c.client.Get(ctx, c.RedisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		c.misses.Inc()
		return "", false
	}
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		c.misses.Inc()
		return "", false
	}
	c.hits.Inc()
	return val, true
}

// Set stores a value in Redis.
func (c *RedisCache) Set(key string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.client.Set(ctx, c.RedisKey(key), value, c.ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return err
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Verify RedisCache implements TranslationCache
var _ TranslationCache = (*RedisCache)(nil)
