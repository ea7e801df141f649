package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"registrar/internal/registration/models"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// InMemoryStore mirrors RedisStore for tests and development mode. Entries
// are held serialized so behaviour matches the cache, including TTL expiry.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	hasher  SecretHasher
	ttl     time.Duration
	opts    options
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewInMemoryStore(hasher SecretHasher, ttl time.Duration, opts ...Option) (*InMemoryStore, error) {
	if hasher == nil {
		return nil, errors.New("secret hasher is required")
	}
	if ttl <= 0 {
		return nil, errors.New("registration ttl must be positive")
	}
	return &InMemoryStore{
		entries: make(map[string]memoryEntry),
		hasher:  hasher,
		ttl:     ttl,
		opts:    buildOptions(opts),
	}, nil
}

func (s *InMemoryStore) Create(ctx context.Context, email string) (*models.Registration, error) {
	reg, err := newPending(s.opts.newRID, email, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	stored, err := hashedCopy(ctx, s.hasher, reg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for attempt := 1; ; attempt++ {
		if _, taken := s.live(stored.RID); !taken {
			data, err := models.Marshal(stored)
			if err != nil {
				return nil, err
			}
			s.put(stored.RID, data)
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

func (s *InMemoryStore) Read(_ context.Context, rid string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(rid)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return models.Unmarshal(entry.data)
}

func (s *InMemoryStore) Update(ctx context.Context, rid string, patch models.Patch) (*models.Registration, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(rid)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	reg, err := models.Unmarshal(entry.data)
	if err != nil {
		return nil, err
	}
	if err := reg.Apply(patch, now); err != nil {
		return nil, err
	}
	data, err := models.Marshal(reg)
	if err != nil {
		return nil, err
	}
	s.put(rid, data)
	return reg, nil
}

func (s *InMemoryStore) Delete(_ context.Context, rid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(rid)
	delete(s.entries, rid)
	return ok, nil
}

// live returns the entry for rid unless it has expired, dropping expired
// entries on the way. Must be called while holding s.mu.
func (s *InMemoryStore) live(rid string) (memoryEntry, bool) {
	entry, ok := s.entries[rid]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.opts.now().Before(entry.expiresAt) {
		delete(s.entries, rid)
		return memoryEntry{}, false
	}
	return entry, true
}

// put must be called while holding s.mu.
func (s *InMemoryStore) put(rid string, data []byte) {
	s.entries[rid] = memoryEntry{data: data, expiresAt: s.opts.now().Add(s.ttl)}
}
