package auth

import (
	"strings"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/users"
	"github.com/pkg/errors"
)

const maxEmailLength = 254

// Validator provides centralized input validation for the credential and account flows.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAccessToken validates access token format and presence
func (v *Validator) ValidateAccessToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.ErrTokenInvalid
	}

	// Basic format check - should be a JWT (3 parts separated by dots)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return apperrors.ErrTokenInvalid
	}
	for _, part := range parts {
		if len(part) == 0 {
			return apperrors.ErrTokenInvalid
		}
	}
	return nil
}

// ValidateUserCredentials validates login credentials
func (v *Validator) ValidateUserCredentials(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return errors.Wrap(apperrors.ErrInvalidRequest, "password is required")
	}
	return nil
}

// ValidateInvite checks a new user's email, role and password.
func (v *Validator) ValidateInvite(req InviteRequest) error {
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if !req.Role.Valid() {
		return errors.Wrapf(apperrors.ErrInvalidRequest, "unknown role %q", req.Role)
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return errors.Wrap(apperrors.ErrInvalidRequest, err.Error())
	}
	return nil
}

// ValidateProvision checks a new organization and its optional first admin.
func (v *Validator) ValidateProvision(req ProvisionRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.Wrap(apperrors.ErrInvalidRequest, "organization name is required")
	}
	if !req.Plan.Valid() {
		return errors.Wrapf(apperrors.ErrInvalidRequest, "unknown plan %q", req.Plan)
	}
	if req.SeatLimit < 0 {
		return errors.Wrap(apperrors.ErrInvalidRequest, "seat limit must not be negative")
	}
	if req.Admin != nil {
		if req.Admin.Role != roles.OrgAdmin {
			return errors.Wrap(apperrors.ErrInvalidRequest, "first user must be an org admin")
		}
		if err := v.ValidateInvite(*req.Admin); err != nil {
			return err
		}
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.Wrap(apperrors.ErrInvalidRequest, "email is required")
	}
	if len(email) > maxEmailLength {
		return errors.Wrap(apperrors.ErrInvalidRequest, "email is too long")
	}

	// Basic email format validation
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at:], ".") {
		return errors.Wrap(apperrors.ErrInvalidRequest, "invalid email format")
	}
	return nil
}
