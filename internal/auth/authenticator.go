package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"registrar/internal/registration/models"
	"registrar/internal/secrets"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/audit"
	authmw "registrar/pkg/platform/middleware/auth"
	"registrar/pkg/platform/sentinel"
)

// RegistrationReader loads the record whose digests are checked.
type RegistrationReader interface {
	Read(ctx context.Context, rid string) (*models.Registration, error)
}

// SecretVerifier is satisfied by *secrets.Hasher.
type SecretVerifier interface {
	Hash(ctx context.Context, secret string) (string, error)
	Verify(ctx context.Context, digest, secret string) bool
}

// Authenticator resolves (rid, secret) into the applicant or manager role.
// Unknown rids, malformed credentials and wrong secrets are indistinguishable
// to the caller, including in timing: a missing record is verified against a
// decoy digest so the work done matches a real check.
type Authenticator struct {
	registrations RegistrationReader
	verifier      SecretVerifier
	decoy         string
	logger        *slog.Logger
}

type Option func(*Authenticator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

func New(ctx context.Context, registrations RegistrationReader, verifier SecretVerifier, opts ...Option) (*Authenticator, error) {
	if registrations == nil {
		return nil, errors.New("registration reader is required")
	}
	if verifier == nil {
		return nil, errors.New("secret verifier is required")
	}
	a := &Authenticator{
		registrations: registrations,
		verifier:      verifier,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	decoySecret, err := secrets.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate decoy secret: %w", err)
	}
	a.decoy, err = verifier.Hash(ctx, decoySecret)
	if err != nil {
		return nil, fmt.Errorf("hash decoy secret: %w", err)
	}
	return a, nil
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

// Authenticate returns the caller's principal or an error with
// dErrors.CodeUnauthorized. Only cache failures produce other codes.
func (a *Authenticator) Authenticate(ctx context.Context, rid, secret string) (*authmw.Principal, error) {
	if len(rid) != secrets.RIDLength || len(secret) != secrets.TokenLength {
		a.verifyDecoy(ctx, secret)
		return nil, a.fail(ctx, rid, "malformed_credentials")
	}

	reg, err := a.registrations.Read(ctx, rid)
	if errors.Is(err, sentinel.ErrNotFound) {
		a.verifyDecoy(ctx, secret)
		return nil, a.fail(ctx, rid, "unknown_rid")
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageFailure, "registration storage is unavailable")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}

	isApplicant, isManager := a.verifyBoth(ctx, reg.Token, reg.ManagerToken, secret)
	switch {
	case isApplicant:
		return &authmw.Principal{RID: reg.RID, Role: authmw.RoleApplicant}, nil
	case isManager:
		return &authmw.Principal{RID: reg.RID, Role: authmw.RoleManager}, nil
	}
	return nil, a.fail(ctx, rid, "secret_mismatch")
}

// verifyBoth checks secret against both digests concurrently. The checks are
// independent and read-only, and both always run.
func (a *Authenticator) verifyBoth(ctx context.Context, tokenDigest, managerDigest, secret string) (bool, bool) {
	var isApplicant, isManager bool
	var g errgroup.Group
	g.Go(func() error {
		isApplicant = a.verifier.Verify(ctx, tokenDigest, secret)
		return nil
	})
	g.Go(func() error {
		isManager = a.verifier.Verify(ctx, managerDigest, secret)
		return nil
	})
	_ = g.Wait()
	return isApplicant, isManager
}

func (a *Authenticator) verifyDecoy(ctx context.Context, secret string) {
	a.verifyBoth(ctx, a.decoy, a.decoy, secret)
}

// fail logs the precise reason and returns the uniform error.
func (a *Authenticator) fail(ctx context.Context, rid, reason string) error {
	audit.LogAudit(ctx, a.logger, audit.EventAuthenticationFailed, "rid", rid, "reason", reason)
	return errInvalidCredentials
}
