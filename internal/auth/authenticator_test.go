package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"registrar/internal/auth/mocks"
	"registrar/internal/registration/models"
	"registrar/internal/secrets"
	dErrors "registrar/pkg/domain-errors"
	authmw "registrar/pkg/platform/middleware/auth"
	"registrar/pkg/platform/sentinel"
)

//go:generate mockgen -source=authenticator.go -destination=mocks/mocks.go -package=mocks RegistrationReader,SecretVerifier

type AuthenticatorSuite struct {
	suite.Suite
	ctx           context.Context
	registrations *mocks.MockRegistrationReader
	hasher        *secrets.Hasher
	auth          *Authenticator

	rid          string
	token        string
	managerToken string
	record       *models.Registration
}

func TestAuthenticatorSuite(t *testing.T) {
	suite.Run(t, new(AuthenticatorSuite))
}

func (s *AuthenticatorSuite) SetupTest() {
	s.ctx = context.Background()
	ctrl := gomock.NewController(s.T())
	s.registrations = mocks.NewMockRegistrationReader(ctrl)

	var err error
	s.hasher, err = secrets.NewHasher(secrets.Config{
		Params:  secrets.Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		Workers: 4,
	})
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.auth, err = New(s.ctx, s.registrations, s.hasher, WithLogger(logger))
	s.Require().NoError(err)

	s.rid, err = secrets.GenerateRID()
	s.Require().NoError(err)
	s.token, err = secrets.GenerateToken()
	s.Require().NoError(err)
	s.managerToken, err = secrets.GenerateToken()
	s.Require().NoError(err)

	tokenDigest, err := s.hasher.Hash(s.ctx, s.token)
	s.Require().NoError(err)
	managerDigest, err := s.hasher.Hash(s.ctx, s.managerToken)
	s.Require().NoError(err)
	s.record = &models.Registration{
		RID:          s.rid,
		Token:        tokenDigest,
		ManagerToken: managerDigest,
		Status:       models.StatusPending,
		MatrixStatus: models.MatrixStatusPending,
	}
}

func (s *AuthenticatorSuite) TestRoles() {
	s.Run("applicant token", func() {
		s.registrations.EXPECT().Read(gomock.Any(), s.rid).Return(s.record, nil)
		p, err := s.auth.Authenticate(s.ctx, s.rid, s.token)
		s.Require().NoError(err)
		s.Equal(&authmw.Principal{RID: s.rid, Role: authmw.RoleApplicant}, p)
	})

	s.Run("manager token", func() {
		s.registrations.EXPECT().Read(gomock.Any(), s.rid).Return(s.record, nil)
		p, err := s.auth.Authenticate(s.ctx, s.rid, s.managerToken)
		s.Require().NoError(err)
		s.Equal(authmw.RoleManager, p.Role)
	})
}

func (s *AuthenticatorSuite) TestFailuresAreUniform() {
	wrong, err := secrets.GenerateToken()
	s.Require().NoError(err)

	s.registrations.EXPECT().Read(gomock.Any(), s.rid).Return(s.record, nil)
	_, mismatch := s.auth.Authenticate(s.ctx, s.rid, wrong)

	s.registrations.EXPECT().Read(gomock.Any(), "zzzzzz").Return(nil, sentinel.ErrNotFound)
	_, unknown := s.auth.Authenticate(s.ctx, "zzzzzz", s.token)

	_, malformedRID := s.auth.Authenticate(s.ctx, "toolongrid", s.token)
	_, malformedSecret := s.auth.Authenticate(s.ctx, s.rid, "short")

	for _, err := range []error{mismatch, unknown, malformedRID, malformedSecret} {
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(mismatch.Error(), err.Error())
	}
}

func (s *AuthenticatorSuite) TestStoreOutageIsNotAnAuthFailure() {
	outage := fmt.Errorf("read registration: %w: %w", sentinel.ErrUnavailable, errors.New("dial tcp: refused"))
	s.registrations.EXPECT().Read(gomock.Any(), s.rid).Return(nil, outage)
	_, err := s.auth.Authenticate(s.ctx, s.rid, s.token)
	s.Require().Error(err)
	s.False(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal(dErrors.CodeStorageFailure, dErrors.CodeOf(err))
}

func (s *AuthenticatorSuite) TestUnexpectedReadErrorIsInternal() {
	s.registrations.EXPECT().Read(gomock.Any(), s.rid).Return(nil, errors.New("decode registration: unexpected EOF"))
	_, err := s.auth.Authenticate(s.ctx, s.rid, s.token)
	s.Require().Error(err)
	s.Equal(dErrors.CodeInternal, dErrors.CodeOf(err))
}

func (s *AuthenticatorSuite) TestMissingRecordStillVerifies() {
	ctrl := gomock.NewController(s.T())
	verifier := mocks.NewMockSecretVerifier(ctrl)
	verifier.EXPECT().Hash(gomock.Any(), gomock.Any()).Return("$decoy", nil)

	a, err := New(s.ctx, s.registrations, verifier)
	s.Require().NoError(err)

	s.registrations.EXPECT().Read(gomock.Any(), "zzzzzz").Return(nil, sentinel.ErrNotFound)
	verifier.EXPECT().Verify(gomock.Any(), "$decoy", s.token).Return(false).Times(2)

	_, err = a.Authenticate(s.ctx, "zzzzzz", s.token)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestNewRequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	if _, err := New(context.Background(), nil, mocks.NewMockSecretVerifier(ctrl)); err == nil {
		t.Fatal("expected error for missing reader")
	}
	if _, err := New(context.Background(), mocks.NewMockRegistrationReader(ctrl), nil); err == nil {
		t.Fatal("expected error for missing verifier")
	}
}
