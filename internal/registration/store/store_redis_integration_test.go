//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registrar/internal/registration/models"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/testutil/containers"
)

func TestRedisStoreContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	suite.Run(t, &contractSuite{
		newStore: func(opts ...Option) registrationStore {
			if err := rc.FlushAll(context.Background()); err != nil {
				t.Fatalf("flush redis: %v", err)
			}
			st, err := NewRedisStore(rc.Client, prefixHasher{}, time.Hour, opts...)
			if err != nil {
				t.Fatalf("new redis store: %v", err)
			}
			return st
		},
	})
}

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
	ctx   context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	var err error
	s.store, err = NewRedisStore(s.redis.Client, prefixHasher{}, time.Hour)
	s.Require().NoError(err)
}

func (s *RedisStoreSuite) TestKeyLayoutAndTTL() {
	created, err := s.store.Create(s.ctx, "")
	s.Require().NoError(err)

	ttl, err := s.redis.Client.TTL(s.ctx, created.RID).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute)

	s.Require().NoError(s.redis.Client.Expire(s.ctx, created.RID, time.Minute).Err())
	_, err = s.store.Update(s.ctx, created.RID, models.Patch{Email: ptr("a@example.org")})
	s.Require().NoError(err)

	ttl, err = s.redis.Client.TTL(s.ctx, created.RID).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute, "every write refreshes the ttl")

	raw, err := s.redis.Client.Get(s.ctx, created.RID).Result()
	s.Require().NoError(err)
	s.NotContains(raw, created.Token)
	s.Contains(raw, `"matrix_status":"pending"`)
}

func (s *RedisStoreSuite) TestConcurrentUpdatesSerialize() {
	created, err := s.store.Create(s.ctx, "")
	s.Require().NoError(err)

	const writers = 10
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			email := string(rune('a'+i)) + "@example.org"
			_, _ = s.store.Update(s.ctx, created.RID, models.Patch{Email: &email})
		}()
	}
	wg.Wait()

	read, err := s.store.Read(s.ctx, created.RID)
	s.Require().NoError(err)
	s.LessOrEqual(read.Version, int64(writers))
	s.Positive(read.Version)
}

func (s *RedisStoreSuite) TestCorruptRecordIsNotAnOutage() {
	s.Require().NoError(s.redis.Client.Set(s.ctx, "abcdef", "{not json", time.Hour).Err())

	_, err := s.store.Read(s.ctx, "abcdef")
	s.Require().Error(err)
	s.NotErrorIs(err, sentinel.ErrUnavailable)

	_, err = s.store.Update(s.ctx, "abcdef", models.Patch{Email: ptr("a@example.org")})
	s.Require().Error(err)
	s.NotErrorIs(err, sentinel.ErrUnavailable)
	s.NotErrorIs(err, sentinel.ErrConflict)
	s.Contains(err.Error(), "unmarshal registration")
}
