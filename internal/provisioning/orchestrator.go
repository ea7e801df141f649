// Package provisioning drives an approved registration to a homeserver account.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"registrar/internal/matrix"
	"registrar/internal/notify"
	"registrar/internal/platform/metrics"
	"registrar/internal/registration/models"
	"registrar/internal/secrets"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/audit"
)

// AccountCreator is satisfied by *matrix.Client.
type AccountCreator interface {
	CreateAccount(ctx context.Context, username, password string) (*matrix.Account, error)
}

// RegistrationUpdater persists provisioning state.
type RegistrationUpdater interface {
	Update(ctx context.Context, rid string, patch models.Patch) (*models.Registration, error)
}

// Notifier is satisfied by *notify.Service.
type Notifier interface {
	MatrixStatusChanged(ctx context.Context, reg *models.Registration, account *notify.Account) error
}

// AccountRequest carries the applicant's choices for the new account.
type AccountRequest struct {
	Username string
	Email    *string
}

// Orchestrator claims a registration for provisioning, makes one attempt to
// create the account and records the outcome. Failed attempts are terminal.
type Orchestrator struct {
	registrations RegistrationUpdater
	accounts      AccountCreator
	notifier      Notifier
	logger        *slog.Logger
	metrics       *metrics.Metrics
	newPassword   func() (string, error)
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithPasswordGenerator overrides secrets.GeneratePassword (tests).
func WithPasswordGenerator(fn func() (string, error)) Option {
	return func(o *Orchestrator) {
		o.newPassword = fn
	}
}

func New(registrations RegistrationUpdater, accounts AccountCreator, notifier Notifier, opts ...Option) (*Orchestrator, error) {
	if registrations == nil || accounts == nil || notifier == nil {
		return nil, errors.New("registrations, accounts and notifier are required")
	}
	o := &Orchestrator{
		registrations: registrations,
		accounts:      accounts,
		notifier:      notifier,
		logger:        slog.Default(),
		newPassword:   secrets.GeneratePassword,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Claim moves an approved, unprovisioned registration to processing and sets
// the username in the same write. Only one claim per registration can
// succeed; the others get dErrors.CodeStateConflict. The returned record
// carries the generated password, which is never persisted.
func (o *Orchestrator) Claim(ctx context.Context, rid string, req AccountRequest) (*models.Registration, error) {
	password, err := o.newPassword()
	if err != nil {
		return nil, fmt.Errorf("generate provisioning password: %w", err)
	}

	processing := models.MatrixStatusProcessing
	username := req.Username
	reg, err := o.registrations.Update(ctx, rid, models.Patch{
		Username:     &username,
		Email:        req.Email,
		MatrixStatus: &processing,
	})
	if err != nil {
		return nil, err
	}
	reg.Password = password

	audit.LogAudit(ctx, o.logger, audit.EventAccountRequested, "rid", rid)
	return reg, nil
}

// Provision creates the account for a claimed registration and persists the
// outcome before notifying. Provider errors end as matrix_status=failed and
// are not returned; only bookkeeping failures are.
func (o *Orchestrator) Provision(ctx context.Context, reg *models.Registration) error {
	if reg.Status != models.StatusApproved || reg.MatrixStatus != models.MatrixStatusProcessing || reg.Password == "" {
		return dErrors.New(dErrors.CodeStateConflict, "registration has not been claimed for provisioning")
	}

	account, err := o.accounts.CreateAccount(ctx, reg.Username, reg.Password)
	outcome := models.MatrixStatusSuccess
	if err != nil {
		outcome = models.MatrixStatusFailed
		audit.LogAudit(ctx, o.logger, audit.EventProvisioningFailed,
			"rid", reg.RID,
			"category", string(matrix.CategoryOf(err)),
			"error", err,
		)
	} else {
		audit.LogAudit(ctx, o.logger, audit.EventProvisioningSucceeded,
			"rid", reg.RID,
			"user_id", account.UserID,
		)
	}
	o.metrics.IncrementProvisioningOutcome(string(outcome))

	// The outcome only applies to the record as it was claimed.
	claimed := reg.Version
	updated, err := o.registrations.Update(ctx, reg.RID, models.Patch{MatrixStatus: &outcome, IfVersion: &claimed})
	if err != nil {
		return fmt.Errorf("record provisioning outcome %s: %w", outcome, err)
	}

	var notice *notify.Account
	if account != nil {
		notice = &notify.Account{UserID: account.UserID, HomeServer: account.HomeServer}
	}
	if err := o.notifier.MatrixStatusChanged(ctx, updated, notice); err != nil {
		return fmt.Errorf("notify provisioning outcome: %w", err)
	}
	return nil
}
