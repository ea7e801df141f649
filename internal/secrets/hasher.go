package secrets

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"

	"registrar/internal/platform/metrics"
)

const argon2Version = argon2.Version

// ErrInvalidHash is returned by decode for malformed or unsupported digests.
var ErrInvalidHash = errors.New("invalid argon2id hash")

// Hasher hashes and verifies short random secrets with argon2id. At most
// Config.Workers operations run at once; callers wait for a free slot.
type Hasher struct {
	cfg     Config
	pool    *semaphore.Weighted
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Hasher)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hasher) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hasher) {
		h.metrics = m
	}
}

func NewHasher(cfg Config, opts ...Option) (*Hasher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	h := &Hasher{
		cfg:    cfg,
		pool:   semaphore.NewWeighted(int64(cfg.Workers)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Hash returns the encoded digest:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
func (h *Hasher) Hash(ctx context.Context, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret cannot be empty")
	}
	if err := h.pool.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash worker: %w", err)
	}
	defer h.pool.Release(1)
	defer h.metrics.ObserveHash(time.Now())

	p := h.cfg.Params
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	key := argon2.IDKey([]byte(secret), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version, p.MemoryKiB, p.Iterations, p.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

// HashIfNeeded hashes value unless it already is a digest of this scheme.
func (h *Hasher) HashIfNeeded(ctx context.Context, value string) (string, error) {
	if IsHashed(value) {
		return value, nil
	}
	return h.Hash(ctx, value)
}

// Verify reports whether secret matches digest. Malformed digests, oversized
// cost parameters and pool acquisition failures are logged and yield false.
func (h *Hasher) Verify(ctx context.Context, digest, secret string) bool {
	params, salt, expected, err := decode(digest)
	if err != nil {
		h.logger.WarnContext(ctx, "secret verification failed on malformed digest", "error", err)
		return false
	}
	if !withinBounds(params, h.cfg.Params) {
		h.logger.WarnContext(ctx, "secret verification refused digest with excessive cost",
			"memory_kib", params.MemoryKiB, "iterations", params.Iterations, "parallelism", params.Parallelism)
		return false
	}
	if err := h.pool.Acquire(ctx, 1); err != nil {
		h.logger.WarnContext(ctx, "secret verification aborted", "error", err)
		return false
	}
	defer h.pool.Release(1)
	defer h.metrics.ObserveHash(time.Now())

	key := argon2.IDKey([]byte(secret), salt, params.Iterations, params.MemoryKiB, params.Parallelism,
		uint32(len(expected))) // #nosec G115 -- bounded by withinBounds
	return subtle.ConstantTimeCompare(key, expected) == 1
}

// IsHashed reports whether value parses as an argon2id digest.
func IsHashed(value string) bool {
	_, _, _, err := decode(value)
	return err == nil
}

// withinBounds accepts digests produced with older or smaller settings but
// refuses attacker-supplied parameters far beyond the configured cost.
func withinBounds(got, limits Params) bool {
	switch {
	case got.MemoryKiB > limits.MemoryKiB*2:
		return false
	case got.Iterations > limits.Iterations*2:
		return false
	case uint32(got.Parallelism) > uint32(limits.Parallelism)*2:
		return false
	case got.SaltLength < 8 || got.SaltLength > 64:
		return false
	case got.KeyLength < 16 || got.KeyLength > 128:
		return false
	}
	return true
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	return Params{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par), // #nosec G115 -- checked <= 255 above
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}, salt, key, nil
}
