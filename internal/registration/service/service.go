// Package service implements the registration use cases on top of the
// store, the provisioning orchestrator and notifications.
package service

import (
	"context"
	"errors"
	"log/slog"

	"registrar/internal/platform/background"
	"registrar/internal/platform/metrics"
	"registrar/internal/provisioning"
	"registrar/internal/registration/models"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/audit"
	authmw "registrar/pkg/platform/middleware/auth"
	"registrar/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, email string) (*models.Registration, error)
	Read(ctx context.Context, rid string) (*models.Registration, error)
	Update(ctx context.Context, rid string, patch models.Patch) (*models.Registration, error)
	Delete(ctx context.Context, rid string) (bool, error)
}

// Provisioner is satisfied by *provisioning.Orchestrator.
type Provisioner interface {
	Claim(ctx context.Context, rid string, req provisioning.AccountRequest) (*models.Registration, error)
	Provision(ctx context.Context, reg *models.Registration) error
}

// Notifier is satisfied by *notify.Service.
type Notifier interface {
	RegistrationReceived(ctx context.Context, reg *models.Registration) error
	StatusChanged(ctx context.Context, reg *models.Registration) error
}

// Dispatcher is satisfied by *background.Dispatcher.
type Dispatcher interface {
	Go(ctx context.Context, name string, job background.Job)
}

// Service orchestrates the registration lifecycle. Every method taking a
// principal authorizes it against the addressed rid first.
type Service struct {
	store       Store
	provisioner Provisioner
	notifier    Notifier
	dispatcher  Dispatcher
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, provisioner Provisioner, notifier Notifier, dispatcher Dispatcher, opts ...Option) (*Service, error) {
	if store == nil || provisioner == nil || notifier == nil || dispatcher == nil {
		return nil, errors.New("store, provisioner, notifier and dispatcher are required")
	}
	s := &Service{
		store:       store,
		provisioner: provisioner,
		notifier:    notifier,
		dispatcher:  dispatcher,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create opens a pending registration. The returned record carries the
// plaintext tokens; it is the only time they exist outside a notification.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*models.Registration, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reg, err := s.store.Create(ctx, req.Email)
	if err != nil {
		return nil, translate(err, "failed to create registration")
	}
	s.metrics.IncrementRegistrationsCreated()
	audit.LogAudit(ctx, s.logger, audit.EventRegistrationCreated, "rid", reg.RID)

	notice := reg.Clone()
	s.dispatcher.Go(ctx, "notify_registration_received", func(ctx context.Context) error {
		return s.notifier.RegistrationReceived(ctx, notice)
	})
	return reg, nil
}

// Get returns the caller's registration. Applicants and managers both may
// read; the handler decides which view to render.
func (s *Service) Get(ctx context.Context, principal *authmw.Principal, rid string) (*models.Registration, error) {
	if err := s.authorize(ctx, principal, rid, authmw.RoleApplicant, authmw.RoleManager); err != nil {
		return nil, err
	}
	reg, err := s.store.Read(ctx, rid)
	if err != nil {
		return nil, translate(err, "failed to load registration")
	}
	return reg, nil
}

// SetStatus approves or rejects a pending registration. Managers only.
func (s *Service) SetStatus(ctx context.Context, principal *authmw.Principal, rid string, req *models.StatusUpdateRequest) (*models.Registration, error) {
	if err := s.authorize(ctx, principal, rid, authmw.RoleManager); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	status := req.Status
	reg, err := s.store.Update(ctx, rid, models.Patch{Status: &status})
	if err != nil {
		return nil, translate(err, "failed to update registration")
	}
	s.metrics.IncrementStatusTransition(string(status))
	audit.LogAudit(ctx, s.logger, audit.EventRegistrationStatusChanged, "rid", rid, "status", string(status))

	notice := reg.Clone()
	s.dispatcher.Go(ctx, "notify_status_changed", func(ctx context.Context) error {
		return s.notifier.StatusChanged(ctx, notice)
	})
	return reg, nil
}

// RequestAccount claims an approved registration for provisioning and starts
// the attempt in the background. The returned record carries the generated
// password, which is shown once and never stored.
func (s *Service) RequestAccount(ctx context.Context, principal *authmw.Principal, rid string, req *models.AccountRequest) (*models.Registration, error) {
	if err := s.authorize(ctx, principal, rid, authmw.RoleApplicant); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reg, err := s.provisioner.Claim(ctx, rid, provisioning.AccountRequest{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		return nil, translate(err, "failed to update registration")
	}

	claimed := reg.Clone()
	s.dispatcher.Go(ctx, "provision_account", func(ctx context.Context) error {
		return s.provisioner.Provision(ctx, claimed)
	})
	return reg, nil
}

// Delete removes the registration and returns its last state marked deleted.
// Applicants only.
func (s *Service) Delete(ctx context.Context, principal *authmw.Principal, rid string) (*models.Registration, error) {
	if err := s.authorize(ctx, principal, rid, authmw.RoleApplicant); err != nil {
		return nil, err
	}

	reg, err := s.store.Read(ctx, rid)
	if err != nil {
		return nil, translate(err, "failed to load registration")
	}
	deleted, err := s.store.Delete(ctx, rid)
	if err != nil {
		return nil, translate(err, "failed to delete registration")
	}
	if !deleted {
		return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
	}

	reg.Status = models.StatusDeleted
	reg.Modification = requestcontext.Now(ctx)
	audit.LogAudit(ctx, s.logger, audit.EventRegistrationDeleted, "rid", rid)
	return reg, nil
}

// authorize checks that principal addresses its own registration with one of
// the allowed roles.
func (s *Service) authorize(ctx context.Context, principal *authmw.Principal, rid string, allowed ...authmw.Role) error {
	if principal == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if principal.RID != rid {
		audit.LogAudit(ctx, s.logger, audit.EventAuthorizationDenied, "rid", principal.RID, "target", rid, "reason", "rid_mismatch")
		return dErrors.New(dErrors.CodeForbidden, "incorrect rid or token")
	}
	for _, role := range allowed {
		if principal.Role == role {
			return nil
		}
	}
	audit.LogAudit(ctx, s.logger, audit.EventAuthorizationDenied, "rid", rid, "role", string(principal.Role), "reason", "role")
	return dErrors.New(dErrors.CodeForbidden, "incorrect rid or token")
}
