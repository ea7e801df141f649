package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"registrar/internal/registration/models"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// RedisStore keeps registrations as JSON values keyed by rid. Every write
// resets the key's TTL.
type RedisStore struct {
	client *redis.Client
	hasher SecretHasher
	ttl    time.Duration
	opts   options
}

func NewRedisStore(client *redis.Client, hasher SecretHasher, ttl time.Duration, opts ...Option) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if hasher == nil {
		return nil, errors.New("secret hasher is required")
	}
	if ttl <= 0 {
		return nil, errors.New("registration ttl must be positive")
	}
	return &RedisStore{client: client, hasher: hasher, ttl: ttl, opts: buildOptions(opts)}, nil
}

// Create allocates a rid and secrets and persists a pending record. The
// returned record carries the plaintext tokens; only digests are stored.
func (s *RedisStore) Create(ctx context.Context, email string) (*models.Registration, error) {
	reg, err := newPending(s.opts.newRID, email, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	stored, err := hashedCopy(ctx, s.hasher, reg)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		data, err := models.Marshal(stored)
		if err != nil {
			return nil, err
		}
		ok, err := s.client.SetNX(ctx, stored.RID, data, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("create registration: %w: %w", sentinel.ErrUnavailable, err)
		}
		if ok {
			return reg, nil
		}
		s.opts.logger.WarnContext(ctx, "registration id collision", "rid", stored.RID, "attempt", attempt)
		if attempt == maxRIDAttempts {
			return nil, fmt.Errorf("create registration: rid collisions exhausted: %w", sentinel.ErrConflict)
		}
		rid, err := s.opts.newRID()
		if err != nil {
			return nil, fmt.Errorf("generate rid: %w", err)
		}
		reg.RID, stored.RID = rid, rid
	}
}

// Read returns sentinel.ErrNotFound for absent and expired keys alike.
func (s *RedisStore) Read(ctx context.Context, rid string) (*models.Registration, error) {
	data, err := s.client.Get(ctx, rid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read registration: %w: %w", sentinel.ErrUnavailable, err)
	}
	return models.Unmarshal(data)
}

// Update applies patch under WATCH so a concurrent write aborts this one.
// Aborted writes are re-read and re-validated; a patch with IfVersion set
// then fails with a conflict instead of being reapplied.
func (s *RedisStore) Update(ctx context.Context, rid string, patch models.Patch) (*models.Registration, error) {
	now := requestcontext.Now(ctx)
	for range maxUpdateAttempts {
		var updated *models.Registration
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, rid).Bytes()
			if errors.Is(err, redis.Nil) {
				return sentinel.ErrNotFound
			}
			if err != nil {
				return err
			}
			reg, err := models.Unmarshal(data)
			if err != nil {
				return &decodeError{err: err}
			}
			if err := reg.Apply(patch, now); err != nil {
				return err
			}
			out, err := models.Marshal(reg)
			if err != nil {
				return err
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, rid, out, s.ttl)
				return nil
			}); err != nil {
				return err
			}
			updated = reg
			return nil
		}, rid)

		var (
			domainErr *dErrors.Error
			decodeErr *decodeError
		)
		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, sentinel.ErrNotFound), errors.As(err, &domainErr):
			return nil, err
		case errors.As(err, &decodeErr):
			return nil, fmt.Errorf("update registration: %w", decodeErr.err)
		default:
			return nil, fmt.Errorf("update registration: %w: %w", sentinel.ErrUnavailable, err)
		}
	}
	return nil, fmt.Errorf("update registration %s: %w", rid, sentinel.ErrConflict)
}

// Delete reports whether a key was removed.
func (s *RedisStore) Delete(ctx context.Context, rid string) (bool, error) {
	n, err := s.client.Del(ctx, rid).Result()
	if err != nil {
		return false, fmt.Errorf("delete registration: %w: %w", sentinel.ErrUnavailable, err)
	}
	return n == 1, nil
}

// decodeError marks a stored value that no longer decodes. It is a data
// problem, not an outage.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }

func (e *decodeError) Unwrap() error { return e.err }
