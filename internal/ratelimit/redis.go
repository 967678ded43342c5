package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter for KEYS[1] and starts its
// expiry on the first hit.  It returns {count, pttl_ms}.
var fixedWindowScript = redis.NewScript(`
    local window_ms = tonumber(ARGV[1])
    local current = redis.call('INCR', KEYS[1])
    if current == 1 then
        redis.call('PEXPIRE', KEYS[1], window_ms)
    end
    local ttl = redis.call('PTTL', KEYS[1])
    if ttl < 0 then
        redis.call('PEXPIRE', KEYS[1], window_ms)
        ttl = window_ms
    end
    return { current, ttl }
`)

// Redis is a Limiter shared by every instance that points at the same
// Redis server.
type Redis struct {
	rdb    redis.Scripter
	prefix string
	now    func() time.Time
}

// NewRedis returns a Redis-backed limiter.  Keys are stored as
// "<prefix>:<key>".
func NewRedis(rdb redis.Scripter, prefix string) *Redis {
	if prefix == "" {
		prefix = "rl"
	}
	return &Redis{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *Redis) Check(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	full := r.prefix + ":" + key
	vals, err := fixedWindowScript.Run(ctx, r.rdb, []string{full}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: run script for %s: %w", full, err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
	}
	count, ttlMs := int(vals[0]), vals[1]
	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= max,
		Remaining: remaining,
		ResetAt:   r.now().Add(time.Duration(ttlMs) * time.Millisecond),
	}, nil
}
