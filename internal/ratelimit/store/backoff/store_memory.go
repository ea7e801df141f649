package backoff

import (
	"context"
	"sync"
	"time"

	"registrar/internal/ratelimit/models"
)

// InMemoryStore implements the counter protocol in process memory. It backs
// development mode and stands in for Redis when the cache is unreachable.
type InMemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

type counter struct {
	count     int64
	expiresAt time.Time
}

type Option func(*InMemoryStore)

func WithClock(now func() time.Time) Option {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Increment(_ context.Context, key string, ceiling time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := s.counters[key]
	if c == nil || !now.Before(c.expiresAt) {
		c = &counter{}
		s.counters[key] = c
	}
	c.count++
	expiry := models.BackoffExpiry(c.count, ceiling)
	c.expiresAt = now.Add(expiry)
	return c.count, expiry, nil
}

func (s *InMemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters[key]
	if c == nil {
		return 0, nil
	}
	remaining := c.expiresAt.Sub(s.now())
	if remaining <= 0 {
		delete(s.counters, key)
		return 0, nil
	}
	return remaining, nil
}
