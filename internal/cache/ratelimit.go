package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time // when the bucket is full again
	RetryAfter time.Duration
}

// bucket describes one family of token buckets sharing a key prefix.
type bucket struct {
	prefix string
	rate   float64 // tokens per second
	burst  int
	ttl    time.Duration
}

// tokenBucketScript refills and takes one token atomically.
// Times are in milliseconds so sub-second rates refill smoothly.
// Returns {allowed, retry_after_ms, tokens_left}.
var tokenBucketScript = redis.NewScript(`
local key     = KEYS[1]
local rate    = tonumber(ARGV[1]) / 1000.0
local burst   = tonumber(ARGV[2])
local now_ms  = tonumber(ARGV[3])
local ttl_ms  = tonumber(ARGV[4])

local state  = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts     = tonumber(state[2])
if tokens == nil or ts == nil then
	tokens = burst
	ts = now_ms
end

if now_ms > ts then
	tokens = math.min(burst, tokens + (now_ms - ts) * rate)
end

local allowed = 0
local wait_ms = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	wait_ms = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'ts', now_ms)
redis.call('PEXPIRE', key, ttl_ms)

return {allowed, wait_ms, math.floor(tokens)}
`)

// CheckIPRateLimit takes one token from the client's bucket.
// The IP is hashed so raw addresses never reach Redis. A non-positive rate disables the limit.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	b := bucket{prefix: "ratelimit:ip:", rate: float64(ratePerSecond), burst: burst, ttl: 10 * time.Second}
	return c.take(ctx, b, hashIP(ip))
}

// CheckTourWriteRateLimit takes one token from a tour's mutation bucket.
// A non-positive ratePerMinute disables the limit.
func (c *Cache) CheckTourWriteRateLimit(ctx context.Context, tourID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	b := bucket{prefix: "ratelimit:tour:", rate: float64(ratePerMinute) / 60, burst: burst, ttl: 2 * time.Minute}
	return c.take(ctx, b, tourID)
}

func (c *Cache) take(ctx context.Context, b bucket, id string) (*RateLimitResult, error) {
	now := time.Now()
	if b.rate <= 0 || b.burst <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(max(b.burst, 0)), ResetAt: now}, nil
	}

	raw, err := tokenBucketScript.Run(ctx, c.client,
		[]string{b.prefix + id},
		b.rate, b.burst, now.UnixMilli(), b.ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", b.prefix, err)
	}
	return b.result(raw, now)
}

// result converts the script reply into a RateLimitResult.
func (b bucket) result(raw []int64, now time.Time) (*RateLimitResult, error) {
	if len(raw) != 3 {
		return nil, fmt.Errorf("rate limit %s: unexpected script reply %v", b.prefix, raw)
	}

	left := raw[2]
	missing := float64(int64(b.burst) - left)
	refill := time.Duration(math.Ceil(missing/b.rate*1000)) * time.Millisecond

	return &RateLimitResult{
		Allowed:    raw[0] == 1,
		Remaining:  left,
		ResetAt:    now.Add(refill),
		RetryAfter: time.Duration(raw[1]) * time.Millisecond,
	}, nil
}

// hashIP returns the first 8 bytes of the address's SHA-256 as hex.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
