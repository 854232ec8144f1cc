// Package cache implements the recommendation result cache on Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

const keyPrefix = "reco:v1:"

// RedisCache stores finished recommendation sets keyed by a hash of the
// normalized query. It implements domain.ResultCache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis using a URL (redis://host:port/db) and returns the
// cache. TTL <= 0 disables expiry.
func New(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached set for query, or nil on miss.
func (c *RedisCache) Get(ctx context.Context, query string) (*domain.RecommendationSet, error) {
	data, err := c.client.Get(ctx, keyFor(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var set domain.RecommendationSet
	if err := json.Unmarshal(data, &set); err != nil {
		// Stale or corrupt entry; treat as a miss so it gets overwritten.
		return nil, nil
	}
	return &set, nil
}

// Set stores the finished set for query.
func (c *RedisCache) Set(ctx context.Context, query string, set domain.RecommendationSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal recommendation set: %w", err)
	}
	if err := c.client.Set(ctx, keyFor(query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func keyFor(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	h := sha256.Sum256([]byte(normalized))
	return keyPrefix + hex.EncodeToString(h[:])
}
