package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/organizations"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const PlatformOrganizationName = "Platform"

// InitialiseSystem makes sure a platform operator with operatorEmail exists, creating it
// and its platform organization on first start. The generated password is returned only
// when the operator was created; it is empty otherwise.
func (s *Service) InitialiseSystem(ctx context.Context, operatorEmail string) (generatedPassword string, err error) {
	if err := validateEmail(operatorEmail); err != nil {
		return "", err
	}

	existing, err := s.repos.Users.GetByEmail(ctx, operatorEmail)
	if err == nil {
		if !existing.IsPlatformOperator() {
			return "", errors.Errorf("[Service.InitialiseSystem] %s exists but is not a platform operator", existing.Email)
		}
		log.Info().Str("user_id", existing.ID).Msg("bootstrap: platform operator already exists")
		return "", nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", errors.Wrap(err, "[Service.InitialiseSystem] GetByEmail")
	}

	org := &organizations.Organization{
		Name: PlatformOrganizationName,
		Plan: organizations.PlanEnterprise,
	}
	password, err := generatePassword()
	if err != nil {
		return "", errors.Wrap(err, "[Service.InitialiseSystem] generatePassword")
	}
	operator, err := s.newUser(InviteRequest{
		Email:    operatorEmail,
		Name:     "Platform Operator",
		Role:     roles.PlatformOperator,
		Password: password,
	}, "")
	if err != nil {
		return "", errors.Wrap(err, "[Service.InitialiseSystem]")
	}
	if err := s.repos.Provisioner.Provision(ctx, org, operator); err != nil {
		return "", errors.Wrap(err, "[Service.InitialiseSystem] Provision")
	}
	log.Info().Str("user_id", operator.ID).Str("organization_id", org.ID).Msg("bootstrap: platform operator created")
	return password, nil
}

// generatePassword returns a random password that passes users.ValidatePasswordStrength.
func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	password := base64.RawURLEncoding.EncodeToString(b) + "Aa1"
	if err := users.ValidatePasswordStrength(password); err != nil {
		return "", err
	}
	return password, nil
}
