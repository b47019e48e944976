package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/travelwallet/travelwallet/internal/model"
)

// Cache key prefixes and TTLs.
const (
	tourKeyPrefix     = "tour:"
	negCacheKeySuffix = ":neg"
	genKeySuffix      = ":gen"

	// DefaultTourTTL is the TTL for cached tour documents.
	DefaultTourTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 30 * time.Second

	// generationTTL outlives any read-then-backfill window by a wide margin.
	generationTTL = 24 * time.Hour
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// TourKey returns the cache key for a tour id.
func TourKey(id string) string {
	return tourKeyPrefix + id
}

// GetTour retrieves a tour snapshot from cache.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetTour(ctx context.Context, id string) (*model.Tour, error) {
	data, err := c.client.Get(ctx, TourKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var tour model.Tour
	if err := json.Unmarshal(data, &tour); err != nil {
		// A corrupt entry is dropped and treated as a miss.
		c.client.Del(ctx, TourKey(id))
		return nil, ErrCacheMiss
	}

	return &tour, nil
}

// setTourScript writes the snapshot only while the tour's generation still
// equals the one the reader saw before loading it from the store.
// KEYS: tour key, negative key, generation key. ARGV: generation, doc, ttl ms.
var setTourScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[3]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
redis.call("DEL", KEYS[2])
return 1
`)

// TourGeneration returns the invalidation counter of a tour, 0 if it was
// never invalidated. Read it before loading the tour from the store and pass
// it to SetTour.
func (c *Cache) TourGeneration(ctx context.Context, id string) (int64, error) {
	gen, err := c.client.Get(ctx, TourKey(id)+genKeySuffix).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

// SetTour caches a snapshot read at generation gen and clears any negative
// entry. It reports false without writing when DeleteTour ran in between,
// so a slow reader cannot put back a ledger that a writer already replaced.
func (c *Cache) SetTour(ctx context.Context, tour *model.Tour, gen int64) (bool, error) {
	data, err := json.Marshal(tour)
	if err != nil {
		return false, fmt.Errorf("encode tour: %w", err)
	}

	key := TourKey(tour.ID)
	stored, err := setTourScript.Run(ctx, c.client,
		[]string{key, key + negCacheKeySuffix, key + genKeySuffix},
		gen, data, c.tourTTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("cache tour: %w", err)
	}
	return stored == 1, nil
}

// DeleteTour evicts a tour after a write and bumps its generation, which
// fences off backfills of snapshots read before the write.
func (c *Cache) DeleteTour(ctx context.Context, id string) error {
	key := TourKey(id)

	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, key+genKeySuffix)
	pipe.Expire(ctx, key+genKeySuffix, generationTTL)
	pipe.Del(ctx, key, key+negCacheKeySuffix)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate tour: %w", err)
	}
	return nil
}

// IsNegativelyCached checks if a tour id is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	exists, err := c.client.Exists(ctx, TourKey(id)+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a tour id as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	err := c.client.SetEx(ctx, TourKey(id)+negCacheKeySuffix, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
