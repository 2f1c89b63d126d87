package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/jobhunter/internal/types"
)

// DefaultSeenSetKey is the Redis set holding applied posting keys.
const DefaultSeenSetKey = "jobhunter:applied"

// SeenCache is a fast membership check in front of the store. It is
// advisory: a miss falls through to the store.
type SeenCache interface {
	Seen(ctx context.Context, key types.PostingKey) (bool, error)
	Add(ctx context.Context, key types.PostingKey) error
	Close() error
}

// RedisSeenCache keeps applied keys in a Redis set.
type RedisSeenCache struct {
	client *redis.Client
	setKey string
}

var _ SeenCache = (*RedisSeenCache)(nil)

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// ConnectSeenCache connects to redisURL and returns a seen-cache on the
// default set.
func ConnectSeenCache(ctx context.Context, redisURL string) (*RedisSeenCache, error) {
	client, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	return NewRedisSeenCache(client, DefaultSeenSetKey), nil
}

// NewRedisSeenCache wraps an existing client.
func NewRedisSeenCache(client *redis.Client, setKey string) *RedisSeenCache {
	if setKey == "" {
		setKey = DefaultSeenSetKey
	}
	return &RedisSeenCache{client: client, setKey: setKey}
}

// Seen reports whether key is in the set.
func (c *RedisSeenCache) Seen(ctx context.Context, key types.PostingKey) (bool, error) {
	ok, err := c.client.SIsMember(ctx, c.setKey, key.String()).Result()
	if err != nil {
		return false, fmt.Errorf("redis SISMEMBER %s: %w", c.setKey, err)
	}
	return ok, nil
}

// Add inserts key into the set.
func (c *RedisSeenCache) Add(ctx context.Context, key types.PostingKey) error {
	if err := c.client.SAdd(ctx, c.setKey, key.String()).Err(); err != nil {
		return fmt.Errorf("redis SADD %s: %w", c.setKey, err)
	}
	return nil
}

// Close closes the client.
func (c *RedisSeenCache) Close() error {
	return c.client.Close()
}
