package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"registrar/internal/registration/models"
	"registrar/internal/secrets"
)

const (
	// maxRIDAttempts bounds retries on rid collision.
	maxRIDAttempts = 3
	// maxUpdateAttempts bounds optimistic retries when a watched key changes
	// between read and write.
	maxUpdateAttempts = 3
)

// SecretHasher hashes tokens before they reach the cache.
type SecretHasher interface {
	HashIfNeeded(ctx context.Context, value string) (string, error)
}

type options struct {
	logger *slog.Logger
	newRID func() (string, error)
	now    func() time.Time
}

// Option configures a registration store.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRIDGenerator replaces the random rid source.
func WithRIDGenerator(fn func() (string, error)) Option {
	return func(o *options) {
		o.newRID = fn
	}
}

// WithClock sets the clock used for expiry by the in-memory store.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		newRID: secrets.GenerateRID,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// newPending creates a pending record with a fresh rid and plaintext secrets.
func newPending(newRID func() (string, error), email string, now time.Time) (*models.Registration, error) {
	rid, err := newRID()
	if err != nil {
		return nil, fmt.Errorf("generate rid: %w", err)
	}
	token, err := secrets.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	managerToken, err := secrets.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate manager token: %w", err)
	}
	return models.NewRegistration(rid, token, managerToken, email, now)
}

// hashedCopy returns a copy of reg whose tokens are digests. Both tokens are
// hashed concurrently; the hasher bounds the total CPU spent.
func hashedCopy(ctx context.Context, hasher SecretHasher, reg *models.Registration) (*models.Registration, error) {
	out := reg.Clone()
	out.Password = ""
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := hasher.HashIfNeeded(gctx, reg.Token)
		if err != nil {
			return fmt.Errorf("hash token: %w", err)
		}
		out.Token = h
		return nil
	})
	g.Go(func() error {
		h, err := hasher.HashIfNeeded(gctx, reg.ManagerToken)
		if err != nil {
			return fmt.Errorf("hash manager token: %w", err)
		}
		out.ManagerToken = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
