package ratelimit

import (
	"context"
	"sync"
	"time"
)

// pruneAbove bounds the map before expired windows are swept.
const pruneAbove = 1024

type window struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local Limiter for single-instance deployments.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemory returns an empty in-memory limiter using the wall clock.
func NewMemory() *Memory { return NewMemoryWithClock(time.Now) }

// NewMemoryWithClock returns an in-memory limiter reading time from now.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{windows: make(map[string]*window), now: now}
}

func (m *Memory) Check(_ context.Context, key string, max int, win time.Duration) (Result, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.windows) > pruneAbove {
		for k, w := range m.windows {
			if !now.Before(w.resetAt) {
				delete(m.windows, k)
			}
		}
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(win)}
		m.windows[key] = w
	}
	w.count++

	remaining := max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: w.count <= max, Remaining: remaining, ResetAt: w.resetAt}, nil
}
