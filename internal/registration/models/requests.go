package models

import (
	"net/mail"
	"regexp"
	"strings"

	dErrors "registrar/pkg/domain-errors"
)

const (
	MinUsernameLength = 4
	MaxUsernameLength = 140
	MaxEmailLength    = 140
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// CreateRequest opens a registration. Email is optional and only used for
// notifications.
type CreateRequest struct {
	Email string `json:"email"`
}

func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(r.Email)
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validateEmail(r.Email)
}

// StatusUpdateRequest is sent by a manager to approve or reject.
type StatusUpdateRequest struct {
	Status Status `json:"status"`
}

func (r *StatusUpdateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Status = Status(strings.ToLower(strings.TrimSpace(string(r.Status))))
}

func (r *StatusUpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	if r.Status != StatusApproved && r.Status != StatusRejected {
		return dErrors.New(dErrors.CodeValidation, "status must be 'approved' or 'rejected'")
	}
	return nil
}

// AccountRequest is sent by the applicant to create the homeserver account
// once approved. MatrixStatus may be omitted; if present it must be processing.
type AccountRequest struct {
	Username     string       `json:"username"`
	Email        *string      `json:"email,omitempty"`
	MatrixStatus MatrixStatus `json:"matrix_status,omitempty"`
}

func (r *AccountRequest) Normalize() {
	if r == nil {
		return
	}
	r.Username = strings.TrimSpace(r.Username)
	if r.Email != nil {
		email := strings.TrimSpace(*r.Email)
		r.Email = &email
	}
	r.MatrixStatus = MatrixStatus(strings.ToLower(strings.TrimSpace(string(r.MatrixStatus))))
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *AccountRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Username) > MaxUsernameLength {
		return dErrors.New(dErrors.CodeValidation, "username must be 140 characters or less")
	}
	if r.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if len(r.Username) < MinUsernameLength {
		return dErrors.New(dErrors.CodeValidation, "username must be at least 4 characters")
	}
	if !usernamePattern.MatchString(r.Username) {
		return dErrors.New(dErrors.CodeValidation, "username may only contain letters, digits, '_', '.' and '-'")
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.MatrixStatus != "" && r.MatrixStatus != MatrixStatusProcessing {
		return dErrors.New(dErrors.CodeValidation, "matrix_status must be 'processing'")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > MaxEmailLength {
		return dErrors.New(dErrors.CodeValidation, "email must be 140 characters or less")
	}
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	return nil
}
