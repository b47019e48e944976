// Package cache holds the Redis-backed pieces of the service: the tour
// read-through cache and the token buckets behind rate limiting.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a go-redis client shared by the tour cache, the rate limiter
// and the activity feed.
type Cache struct {
	client  *redis.Client
	tourTTL time.Duration
}

func poolOptions(opt *redis.Options) {
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
}

// New dials redisURL (redis:// or rediss://) and pings it before returning.
// A non-positive tourTTL means DefaultTourTTL.
func New(ctx context.Context, redisURL string, tourTTL time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	poolOptions(opt)

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, tourTTL), nil
}

func NewWithClient(client *redis.Client, tourTTL time.Duration) *Cache {
	if tourTTL <= 0 {
		tourTTL = DefaultTourTTL
	}
	return &Cache{client: client, tourTTL: tourTTL}
}

func (c *Cache) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.client.Close() }

// Client exposes the connection pool to the Redis activity feed.
func (c *Cache) Client() *redis.Client { return c.client }
