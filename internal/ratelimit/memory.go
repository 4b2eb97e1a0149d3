package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a fixed-window limiter kept in process memory.
type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	now     func() time.Time
	buckets map[string]*bucket
	sweepAt time.Time
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Limit(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	b, ok := m.buckets[key]
	if !ok || !now.Before(b.windowEnd) {
		m.buckets[key] = &bucket{count: 1, windowEnd: now.Add(m.window)}
		return m.limit > 0, nil
	}

	if b.count >= m.limit {
		return false, nil
	}

	b.count++
	return true, nil
}

// sweep drops expired buckets at most once per window. Caller holds mu.
func (m *Memory) sweep(now time.Time) {
	if now.Before(m.sweepAt) {
		return
	}

	for k, b := range m.buckets {
		if !now.Before(b.windowEnd) {
			delete(m.buckets, k)
		}
	}
	m.sweepAt = now.Add(m.window)
}

func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}
