package auth

import (
	"context"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/organizations"
	"github.com/jrsteele09/go-tenant-guard/permission"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/jrsteele09/go-tenant-guard/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type InviteRequest struct {
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Role     roles.Role `json:"role"`
	Password string     `json:"password"`
}

// UserUpdate carries the fields an org admin may change; nil means unchanged.
type UserUpdate struct {
	Name   *string     `json:"name,omitempty"`
	Role   *roles.Role `json:"role,omitempty"`
	Active *bool       `json:"active,omitempty"`
}

type ProvisionRequest struct {
	Name      string             `json:"name"`
	Plan      organizations.Plan `json:"plan"`
	SeatLimit int                `json:"seat_limit"`
	Features  []string           `json:"features"`
	Admin     *InviteRequest     `json:"admin,omitempty"`
}

// ChangePassword replaces the caller's own password and revokes all of their refresh
// credentials.
func (s *Service) ChangePassword(ctx context.Context, tc tenancy.Context, current, next string) error {
	if err := s.evaluator.Authorize(tc, permission.SelfManage); err != nil {
		return err
	}
	user, err := s.currentUser(ctx, tc.UserID)
	if err != nil {
		return err
	}
	if !users.CheckPasswordHash(current, user.PasswordHash) {
		log.Warn().Str("user_id", user.ID).Msg("password change rejected: invalid credentials")
		return apperrors.ErrInvalidCredentials
	}
	if err := users.ValidatePasswordStrength(next); err != nil {
		return errors.Wrap(apperrors.ErrInvalidRequest, err.Error())
	}
	hash, err := users.HashPassword(next)
	if err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] HashPassword")
	}
	user.PasswordHash = hash

	scope, err := tenancy.NewScope(tc)
	if err != nil {
		return err
	}
	if err := s.repos.Users.Update(ctx, scope, user); err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] Update")
	}
	if err := s.repos.Refresh.RevokeAll(ctx, user.ID); err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] RevokeAll")
	}
	log.Info().Str("user_id", user.ID).Msg("password changed, refresh credentials revoked")
	return nil
}

// ListUsers returns the users of the caller's organization.
func (s *Service) ListUsers(ctx context.Context, tc tenancy.Context) ([]*users.User, error) {
	if err := s.evaluator.Authorize(tc, permission.UsersRead); err != nil {
		return nil, err
	}
	scope, err := tenancy.NewScope(tc)
	if err != nil {
		return nil, err
	}
	list, err := s.repos.Users.List(ctx, scope)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ListUsers]")
	}
	return list, nil
}

// Invite creates an active user in the caller's organization, within its seat limit.
func (s *Service) Invite(ctx context.Context, tc tenancy.Context, req InviteRequest) (*users.User, error) {
	if err := s.evaluator.Authorize(tc, permission.UsersInvite); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateInvite(req); err != nil {
		return nil, err
	}
	if !s.evaluator.CanGrant(tc, req.Role) {
		log.Warn().Str("user_id", tc.UserID).Str("role", req.Role.String()).Msg("invite rejected: role not grantable")
		return nil, apperrors.ErrForbidden
	}
	scope, err := tenancy.NewScope(tc)
	if err != nil {
		return nil, err
	}
	orgID, err := scope.OrganizationID()
	if err != nil {
		return nil, err
	}
	if req.Role != roles.PlatformOperator {
		if err := s.checkSeat(ctx, scope, orgID); err != nil {
			return nil, err
		}
	}

	user, err := s.newUser(req, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[Service.Invite] Create")
	}
	log.Info().Str("user_id", user.ID).Str("organization_id", orgID).Str("invited_by", tc.UserID).Msg("user invited")
	return user, nil
}

// UpdateUser changes name, role or active flag of a user in the caller's organization.
// Disabling a user revokes their refresh credentials. A role change needs no revocation:
// validation and refresh both read the current role.
func (s *Service) UpdateUser(ctx context.Context, tc tenancy.Context, userID string, change UserUpdate) (*users.User, error) {
	if err := s.evaluator.Authorize(tc, permission.UsersManage); err != nil {
		return nil, err
	}
	scope, err := tenancy.NewScope(tc)
	if err != nil {
		return nil, err
	}
	user, err := s.repos.Users.GetByID(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && !scope.Allows(user.OrganizationID)) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateUser] GetByID")
	}
	if user.IsPlatformOperator() && !tc.IsPlatformOperator() {
		return nil, apperrors.ErrForbidden
	}

	revoke := false
	if change.Name != nil {
		user.Name = *change.Name
	}
	if change.Role != nil && *change.Role != user.Role {
		if !s.evaluator.CanGrant(tc, *change.Role) {
			log.Warn().Str("user_id", tc.UserID).Str("role", change.Role.String()).Msg("role change rejected: role not grantable")
			return nil, apperrors.ErrForbidden
		}
		if user.ID == tc.UserID {
			return nil, errors.Wrap(apperrors.ErrInvalidRequest, "cannot change own role")
		}
		user.Role = *change.Role
	}
	if change.Active != nil && *change.Active != user.Active {
		if user.ID == tc.UserID {
			return nil, errors.Wrap(apperrors.ErrInvalidRequest, "cannot change own active flag")
		}
		if *change.Active && user.Role != roles.PlatformOperator {
			if err := s.checkSeat(ctx, scope, user.OrganizationID); err != nil {
				return nil, err
			}
		}
		user.Active = *change.Active
		revoke = !user.Active
	}

	if err := s.repos.Users.Update(ctx, scope, user); err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateUser] Update")
	}
	if revoke {
		if err := s.repos.Refresh.RevokeAll(ctx, user.ID); err != nil {
			return nil, errors.Wrap(err, "[Service.UpdateUser] RevokeAll")
		}
	}
	return user, nil
}

// Organization returns the caller's own organization.
func (s *Service) Organization(ctx context.Context, tc tenancy.Context) (*organizations.Organization, error) {
	if err := s.evaluator.Authorize(tc, permission.OrgRead); err != nil {
		return nil, err
	}
	return s.ownOrganization(ctx, tc)
}

func (s *Service) UpdateSeatLimit(ctx context.Context, tc tenancy.Context, seatLimit int) (*organizations.Organization, error) {
	if err := s.evaluator.Authorize(tc, permission.OrgSeats); err != nil {
		return nil, err
	}
	if seatLimit < 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "seat limit must not be negative")
	}
	return s.updateOrganization(ctx, tc, func(org *organizations.Organization) {
		org.SeatLimit = seatLimit
	})
}

func (s *Service) UpdateFeatures(ctx context.Context, tc tenancy.Context, features []string) (*organizations.Organization, error) {
	if err := s.evaluator.Authorize(tc, permission.OrgFeatures); err != nil {
		return nil, err
	}
	return s.updateOrganization(ctx, tc, func(org *organizations.Organization) {
		org.Features = organizations.NormalizeFeatures(features)
	})
}

// ReassignOrganization moves a user to another tenant. The next request carrying an
// older access credential of that user already resolves to the new organization.
func (s *Service) ReassignOrganization(ctx context.Context, tc tenancy.Context, userID, organizationID string) (*users.User, error) {
	if err := s.evaluator.Authorize(tc, permission.PlatformReassign); err != nil {
		return nil, err
	}
	if _, err := s.repos.Organizations.Get(ctx, organizationID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "[Service.ReassignOrganization] organizations.Get")
	}
	if err := s.repos.Users.SetOrganization(ctx, userID, organizationID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "[Service.ReassignOrganization] SetOrganization")
	}
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ReassignOrganization] GetByID")
	}
	log.Info().Str("user_id", userID).Str("organization_id", organizationID).Str("operator_id", tc.UserID).Msg("user reassigned")
	return user, nil
}

// ProvisionOrganization creates a tenant and, optionally, its first org admin.
func (s *Service) ProvisionOrganization(ctx context.Context, tc tenancy.Context, req ProvisionRequest) (*organizations.Organization, *users.User, error) {
	if err := s.evaluator.Authorize(tc, permission.PlatformProvision); err != nil {
		return nil, nil, err
	}
	if err := s.validator.ValidateProvision(req); err != nil {
		return nil, nil, err
	}

	org := &organizations.Organization{
		Name:      req.Name,
		Plan:      req.Plan,
		SeatLimit: req.SeatLimit,
		Features:  req.Features,
	}
	var admin *users.User
	if req.Admin != nil {
		var err error
		if admin, err = s.newUser(*req.Admin, ""); err != nil {
			return nil, nil, err
		}
	}
	if err := s.repos.Provisioner.Provision(ctx, org, admin); err != nil {
		return nil, nil, errors.Wrap(err, "[Service.ProvisionOrganization]")
	}
	log.Info().Str("organization_id", org.ID).Str("operator_id", tc.UserID).Msg("organization provisioned")
	return org, admin, nil
}

func (s *Service) newUser(req InviteRequest, organizationID string) (*users.User, error) {
	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "HashPassword")
	}
	return &users.User{
		Email:          users.NormalizeEmail(req.Email),
		Name:           req.Name,
		PasswordHash:   hash,
		Role:           req.Role,
		OrganizationID: organizationID,
		Active:         true,
	}, nil
}

func (s *Service) checkSeat(ctx context.Context, scope tenancy.Scope, organizationID string) error {
	org, err := s.repos.Organizations.Get(ctx, organizationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrNoTenant
	}
	if err != nil {
		return errors.Wrap(err, "organizations.Get")
	}
	used, err := s.repos.Users.CountActive(ctx, scope)
	if err != nil {
		return errors.Wrap(err, "CountActive")
	}
	if used >= org.SeatLimit {
		return apperrors.ErrSeatLimitReached
	}
	return nil
}

func (s *Service) ownOrganization(ctx context.Context, tc tenancy.Context) (*organizations.Organization, error) {
	if err := tc.Check(); err != nil {
		return nil, err
	}
	org, err := s.repos.Organizations.Get(ctx, tc.OrganizationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrNoTenant
	}
	if err != nil {
		return nil, errors.Wrap(err, "organizations.Get")
	}
	return org, nil
}

func (s *Service) updateOrganization(ctx context.Context, tc tenancy.Context, apply func(*organizations.Organization)) (*organizations.Organization, error) {
	org, err := s.ownOrganization(ctx, tc)
	if err != nil {
		return nil, err
	}
	scope, err := tenancy.NewScope(tc, tenancy.WithColumn(organizations.ScopeColumn))
	if err != nil {
		return nil, err
	}
	apply(org)
	if err := s.repos.Organizations.Update(ctx, scope, org); err != nil {
		return nil, errors.Wrap(err, "[Service] organizations.Update")
	}
	return org, nil
}
