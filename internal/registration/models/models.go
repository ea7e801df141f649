package models

import (
	"time"

	dErrors "registrar/pkg/domain-errors"
)

// Status is the manager-controlled lifecycle of a registration request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDeleted  Status = "deleted"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s.
// pending moves to approved or rejected exactly once; deleted is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch next {
	case StatusApproved, StatusRejected:
		return s == StatusPending
	case StatusDeleted:
		return s != StatusDeleted
	}
	return false
}

// MatrixStatus tracks provisioning of the homeserver account.
type MatrixStatus string

const (
	MatrixStatusPending    MatrixStatus = "pending"
	MatrixStatusProcessing MatrixStatus = "processing"
	MatrixStatusSuccess    MatrixStatus = "success"
	MatrixStatusFailed     MatrixStatus = "failed"
)

func (s MatrixStatus) IsValid() bool {
	switch s {
	case MatrixStatusPending, MatrixStatusProcessing, MatrixStatusSuccess, MatrixStatusFailed:
		return true
	}
	return false
}

func (s MatrixStatus) CanTransitionTo(next MatrixStatus) bool {
	switch next {
	case MatrixStatusProcessing:
		return s == MatrixStatusPending
	case MatrixStatusSuccess, MatrixStatusFailed:
		return s == MatrixStatusProcessing
	}
	return false
}

// Registration is a self-service account request. It only ever lives in the
// cache and disappears when its TTL runs out.
//
// Invariants:
//   - RID, Token and ManagerToken are assigned at creation and never change
//   - Status moves pending -> approved|rejected once; deleted is terminal
//   - MatrixStatus moves pending -> processing -> success|failed, and only
//     after Status is approved
//   - Version increases by one on every persisted write
type Registration struct {
	RID          string
	Username     string
	Email        string
	Token        string
	ManagerToken string
	Status       Status
	MatrixStatus MatrixStatus
	Creation     time.Time
	Modification time.Time
	Version      int64

	// Password is the provisioning secret. It is never serialized.
	Password string
}

// NewRegistration builds a pending record. Secrets are expected in plaintext;
// the store hashes them before persisting.
func NewRegistration(rid, token, managerToken, email string, now time.Time) (*Registration, error) {
	if rid == "" || token == "" || managerToken == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "registration identifiers cannot be empty")
	}
	if token == managerToken {
		return nil, dErrors.New(dErrors.CodeInternal, "applicant and manager tokens must differ")
	}
	return &Registration{
		RID:          rid,
		Email:        email,
		Token:        token,
		ManagerToken: managerToken,
		Status:       StatusPending,
		MatrixStatus: MatrixStatusPending,
		Creation:     now,
		Modification: now,
	}, nil
}

// CanCreateAccount reports whether provisioning may start.
func (r *Registration) CanCreateAccount() bool {
	return r.Status == StatusApproved && r.MatrixStatus == MatrixStatusPending
}

// Clone returns a copy safe to mutate independently of r.
func (r *Registration) Clone() *Registration {
	c := *r
	return &c
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Username     *string
	Email        *string
	Status       *Status
	MatrixStatus *MatrixStatus
	// IfVersion, when set, rejects the write with a conflict unless the
	// stored record is still at that version. Provisioning uses it so an
	// outcome is only recorded against the claim that produced it.
	IfVersion *int64
}

func (p Patch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.Status == nil && p.MatrixStatus == nil
}

// CanApply validates p against the current state without mutating r.
func (r *Registration) CanApply(p Patch) error {
	if p.IfVersion != nil && *p.IfVersion != r.Version {
		return dErrors.New(dErrors.CodeConflict, "registration was modified concurrently")
	}
	if r.Status == StatusDeleted {
		return dErrors.New(dErrors.CodeStateConflict, "registration has been deleted")
	}
	if p.Status != nil && !r.Status.CanTransitionTo(*p.Status) {
		return dErrors.New(dErrors.CodeStateConflict, "this registration status has already been set")
	}
	if p.MatrixStatus != nil {
		if r.Status != StatusApproved {
			return dErrors.New(dErrors.CodeStateConflict, "the registration request is not yet approved")
		}
		if !r.MatrixStatus.CanTransitionTo(*p.MatrixStatus) {
			return dErrors.New(dErrors.CodeStateConflict, "the account creation is already in process")
		}
	}
	if p.Username != nil && !r.CanCreateAccount() {
		return dErrors.New(dErrors.CodeStateConflict, "username can only be set once the request is approved")
	}
	return nil
}

// ApplyPatch writes the fields present in p and bumps Modification and Version.
// Call CanApply first.
func (r *Registration) ApplyPatch(p Patch, now time.Time) {
	if p.Username != nil {
		r.Username = *p.Username
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.MatrixStatus != nil {
		r.MatrixStatus = *p.MatrixStatus
	}
	r.Modification = now
	r.Version++
}

// Apply validates and applies p in one call.
func (r *Registration) Apply(p Patch, now time.Time) error {
	if err := r.CanApply(p); err != nil {
		return err
	}
	r.ApplyPatch(p, now)
	return nil
}
