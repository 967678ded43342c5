// Package ratelimit provides fixed-window request counters keyed by an
// arbitrary string (typically operation name plus client address).  A
// window opens with the first request for a key and resets hard at its
// boundary; it is not a token bucket.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of a single Check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before the window
// resets, relative to now.  It is never negative.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Limiter counts one request against key and reports whether it fits in
// max requests per window.
type Limiter interface {
	Check(ctx context.Context, key string, max int, window time.Duration) (Result, error)
}

// Unlimited allows every request.  It is used when rate limiting is
// disabled by configuration.
type Unlimited struct{}

func (Unlimited) Check(_ context.Context, _ string, max int, window time.Duration) (Result, error) {
	return Result{Allowed: true, Remaining: max, ResetAt: time.Now().Add(window)}, nil
}
