package secrets

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// testConfig is cheap enough for unit tests while exercising the real scheme.
func testConfig() Config {
	return Config{
		Params:  Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		Workers: 2,
	}
}

type HasherSuite struct {
	suite.Suite
	hasher *Hasher
	ctx    context.Context
}

func TestHasherSuite(t *testing.T) {
	suite.Run(t, new(HasherSuite))
}

func (s *HasherSuite) SetupTest() {
	var err error
	s.hasher, err = NewHasher(testConfig(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *HasherSuite) TestRoundTrip() {
	s.Run("generated token verifies against its own digest", func() {
		token, err := GenerateToken()
		s.Require().NoError(err)

		digest, err := s.hasher.Hash(s.ctx, token)
		s.Require().NoError(err)

		s.True(s.hasher.Verify(s.ctx, digest, token))
	})

	s.Run("other secrets do not verify", func() {
		token, _ := GenerateToken()
		other, _ := GenerateToken()
		digest, err := s.hasher.Hash(s.ctx, token)
		s.Require().NoError(err)

		s.False(s.hasher.Verify(s.ctx, digest, other))
		s.False(s.hasher.Verify(s.ctx, digest, ""))
	})

	s.Run("hashing is salted", func() {
		a, err := s.hasher.Hash(s.ctx, "same-secret")
		s.Require().NoError(err)
		b, err := s.hasher.Hash(s.ctx, "same-secret")
		s.Require().NoError(err)
		s.NotEqual(a, b)
	})

	s.Run("empty secret is rejected", func() {
		_, err := s.hasher.Hash(s.ctx, "")
		s.Error(err)
	})
}

func (s *HasherSuite) TestVerifyNeverPanicsOnBadDigests() {
	for _, digest := range []string{
		"",
		"plaintext-token",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=16$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
	} {
		s.False(s.hasher.Verify(s.ctx, digest, "anything"), "digest %q", digest)
	}
}

func (s *HasherSuite) TestVerifyRefusesExcessiveCost() {
	expensive, err := NewHasher(Config{
		Params:  Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		Workers: 1,
	})
	s.Require().NoError(err)
	digest, err := expensive.Hash(s.ctx, "secret")
	s.Require().NoError(err)

	s.False(s.hasher.Verify(s.ctx, digest, "secret"))
}

func (s *HasherSuite) TestIsHashed() {
	digest, err := s.hasher.Hash(s.ctx, "abc")
	s.Require().NoError(err)

	s.True(IsHashed(digest))
	s.False(IsHashed("abc"))
	s.False(IsHashed("$argon2id$broken"))

	again, err := s.hasher.HashIfNeeded(s.ctx, digest)
	s.Require().NoError(err)
	s.Equal(digest, again, "already hashed values are kept")

	fresh, err := s.hasher.HashIfNeeded(s.ctx, "abc")
	s.Require().NoError(err)
	s.True(IsHashed(fresh))
}

func (s *HasherSuite) TestCancelledContextDoesNotVerify() {
	digest, err := s.hasher.Hash(s.ctx, "abc")
	s.Require().NoError(err)

	// Occupy every worker so Acquire has to wait on the cancelled context.
	s.Require().NoError(s.hasher.pool.Acquire(s.ctx, int64(testConfig().Workers)))
	defer s.hasher.pool.Release(int64(testConfig().Workers))

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.False(s.hasher.Verify(ctx, digest, "abc"))

	_, err = s.hasher.Hash(ctx, "abc")
	s.Error(err)
}

func TestNewHasherValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 0
	_, err := NewHasher(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.Params.Iterations = 0
	_, err = NewHasher(cfg)
	require.Error(t, err)
}

func TestHasherPoolBoundsConcurrency(t *testing.T) {
	h, err := NewHasher(testConfig())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_, err := h.Hash(ctx, "concurrent")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// All slots are released once the callers return.
	assert.True(t, h.pool.TryAcquire(int64(testConfig().Workers)))
}

func TestGenerators(t *testing.T) {
	rid, err := GenerateRID()
	require.NoError(t, err)
	assert.Len(t, rid, RIDLength)

	token, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, TokenLength)

	password, err := GeneratePassword()
	require.NoError(t, err)
	assert.Len(t, password, 22)
	assert.False(t, strings.ContainsAny(password, "+/="))
}
