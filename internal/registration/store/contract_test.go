package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"registrar/internal/registration/models"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

type registrationStore interface {
	Create(ctx context.Context, email string) (*models.Registration, error)
	Read(ctx context.Context, rid string) (*models.Registration, error)
	Update(ctx context.Context, rid string, patch models.Patch) (*models.Registration, error)
	Delete(ctx context.Context, rid string) (bool, error)
}

// prefixHasher stands in for argon2id; it is idempotent like HashIfNeeded.
type prefixHasher struct{}

func (prefixHasher) HashIfNeeded(_ context.Context, v string) (string, error) {
	if strings.HasPrefix(v, "hashed:") {
		return v, nil
	}
	return "hashed:" + v, nil
}

type failingHasher struct{}

func (failingHasher) HashIfNeeded(context.Context, string) (string, error) {
	return "", errors.New("pool closed")
}

// sequenceRIDs returns the given rids in order and then repeats the last.
func sequenceRIDs(rids ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		rid := rids[min(i, len(rids)-1)]
		i++
		return rid, nil
	}
}

func ptr[T any](v T) *T { return &v }

// contractSuite holds behaviour both store implementations must share.
type contractSuite struct {
	suite.Suite
	newStore func(opts ...Option) registrationStore
	store    registrationStore
	ctx      context.Context
	now      time.Time
}

func (s *contractSuite) SetupTest() {
	s.store = s.newStore()
	s.now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *contractSuite) TestCreateThenRead() {
	created, err := s.store.Create(s.ctx, "ann@example.org")
	s.Require().NoError(err)
	s.Len(created.RID, 6)
	s.Len(created.Token, 11)
	s.Len(created.ManagerToken, 11)
	s.NotEqual(created.Token, created.ManagerToken)

	read, err := s.store.Read(s.ctx, created.RID)
	s.Require().NoError(err)
	s.Equal("ann@example.org", read.Email)
	s.Empty(read.Username)
	s.Equal(models.StatusPending, read.Status)
	s.Equal(models.MatrixStatusPending, read.MatrixStatus)
	s.Equal("hashed:"+created.Token, read.Token, "tokens are stored hashed")
	s.Equal("hashed:"+created.ManagerToken, read.ManagerToken)
	s.True(read.Creation.Equal(s.now))
}

func (s *contractSuite) TestCreateWithEmptyEmail() {
	created, err := s.store.Create(s.ctx, "")
	s.Require().NoError(err)
	read, err := s.store.Read(s.ctx, created.RID)
	s.Require().NoError(err)
	s.Empty(read.Email)
	s.Equal(models.StatusPending, read.Status)
}

func (s *contractSuite) TestCreateRetriesOnCollision() {
	st := s.newStore(WithRIDGenerator(sequenceRIDs("aaaaaa", "aaaaaa", "bbbbbb")))
	first, err := st.Create(s.ctx, "")
	s.Require().NoError(err)
	s.Equal("aaaaaa", first.RID)

	second, err := st.Create(s.ctx, "")
	s.Require().NoError(err)
	s.Equal("bbbbbb", second.RID)

	_, err = st.Create(s.ctx, "")
	s.ErrorIs(err, sentinel.ErrConflict, "collisions are bounded")
}

func (s *contractSuite) TestMissingRecords() {
	_, err := s.store.Read(s.ctx, "nopeno")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Update(s.ctx, "nopeno", models.Patch{Email: ptr("x@example.org")})
	s.ErrorIs(err, sentinel.ErrNotFound)

	deleted, err := s.store.Delete(s.ctx, "nopeno")
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *contractSuite) TestUpdate() {
	created, err := s.store.Create(s.ctx, "")
	s.Require().NoError(err)
	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))

	s.Run("applies only present fields and bumps modification", func() {
		updated, err := s.store.Update(later, created.RID, models.Patch{Status: ptr(models.StatusApproved)})
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, updated.Status)
		s.Empty(updated.Email)
		s.True(updated.Modification.Equal(s.now.Add(time.Hour)))
		s.True(updated.Creation.Equal(s.now))
		s.EqualValues(1, updated.Version)
	})

	s.Run("second status change is a state conflict", func() {
		_, err := s.store.Update(later, created.RID, models.Patch{Status: ptr(models.StatusRejected)})
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))

		read, err := s.store.Read(s.ctx, created.RID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, read.Status)
	})

	s.Run("stale expected version is a conflict", func() {
		_, err := s.store.Update(later, created.RID, models.Patch{Email: ptr("a@example.org"), IfVersion: ptr(int64(0))})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("tokens survive updates unchanged", func() {
		read, err := s.store.Read(s.ctx, created.RID)
		s.Require().NoError(err)
		s.Equal("hashed:"+created.Token, read.Token)
	})
}

func (s *contractSuite) TestDelete() {
	created, err := s.store.Create(s.ctx, "")
	s.Require().NoError(err)

	deleted, err := s.store.Delete(s.ctx, created.RID)
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = s.store.Delete(s.ctx, created.RID)
	s.Require().NoError(err)
	s.False(deleted)

	_, err = s.store.Read(s.ctx, created.RID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
