package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"registrar/internal/ratelimit/metrics"
	"registrar/internal/ratelimit/models"
	"registrar/pkg/platform/audit"
	"registrar/pkg/platform/circuit"
)

const defaultMaxBackoff = 24 * time.Hour

// Service admits requests per caller identifier with exponential backoff.
// When a fallback store is configured, repeated primary failures open a
// circuit breaker and counting continues in the fallback until the primary
// recovers.
type Service struct {
	store      CounterStore
	fallback   CounterStore
	breaker    *circuit.Breaker
	maxBackoff time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMaxBackoff caps the lockout window.
func WithMaxBackoff(d time.Duration) Option {
	return func(s *Service) {
		s.maxBackoff = d
	}
}

// WithFallback counts in fallback while breaker is open.
func WithFallback(fallback CounterStore, breaker *circuit.Breaker) Option {
	return func(s *Service) {
		s.fallback = fallback
		s.breaker = breaker
	}
}

func New(store CounterStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}
	s := &Service{
		store:      store,
		maxBackoff: defaultMaxBackoff,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if (s.fallback == nil) != (s.breaker == nil) {
		return nil, errors.New("fallback store and breaker must be set together")
	}
	return s, nil
}

// Admit counts one request for identifier and reports whether it stays
// strictly below limit. Every call, admitted or not, extends the window.
func (s *Service) Admit(ctx context.Context, identifier string, limit int) (*models.Decision, error) {
	key := models.Key(identifier)
	count, expiry, err := s.increment(ctx, key)
	if err != nil {
		return nil, err
	}

	decision := &models.Decision{
		Allowed: count < int64(limit),
		Count:   count,
		Expiry:  expiry,
	}
	if !decision.Allowed {
		s.metrics.IncrementRejected()
		audit.LogAudit(ctx, s.logger, audit.EventRateLimitExceeded,
			"key", key,
			"count", count,
			"expiry_seconds", int64(expiry/time.Second),
		)
	}
	return decision, nil
}

// Remaining returns how long identifier stays locked out, zero if it is not.
func (s *Service) Remaining(ctx context.Context, identifier string) (time.Duration, error) {
	key := models.Key(identifier)
	if s.breaker != nil && s.breaker.IsOpen() {
		return s.fallback.TTL(ctx, key)
	}
	return s.store.TTL(ctx, key)
}

func (s *Service) increment(ctx context.Context, key string) (int64, time.Duration, error) {
	if s.breaker == nil {
		return s.store.Increment(ctx, key, s.maxBackoff)
	}
	if !s.breaker.Allow() {
		return s.fallback.Increment(ctx, key, s.maxBackoff)
	}

	count, expiry, err := s.store.Increment(ctx, key, s.maxBackoff)
	if err != nil {
		s.metrics.IncrementStoreErrors()
		useFallback, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "rate limit store unavailable, counting in memory",
				"breaker", s.breaker.Name(), "error", err)
		}
		if useFallback {
			return s.fallback.Increment(ctx, key, s.maxBackoff)
		}
		return 0, 0, err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "rate limit store recovered", "breaker", s.breaker.Name())
	}
	return count, expiry, nil
}
