package auth

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/organizations"
	"github.com/jrsteele09/go-tenant-guard/permission"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/jrsteele09/go-tenant-guard/token"
	"github.com/jrsteele09/go-tenant-guard/token/refresh"
	"github.com/jrsteele09/go-tenant-guard/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users         users.UserRepo
	Organizations organizations.Repo
	Refresh       refresh.Store
	// Provisioner is optional. Without one, a failed admin insert is undone by deleting
	// the organization again.
	Provisioner Provisioner
}

// Provisioner creates an organization together with its first admin: either both rows
// exist afterwards or neither does. admin may be nil. It sets admin.OrganizationID.
type Provisioner interface {
	Provision(ctx context.Context, org *organizations.Organization, admin *users.User) error
}

// Credentials is what a successful login or refresh hands back to the caller.
type Credentials struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *users.User
}

// Service issues and validates credentials and performs the account operations that
// must revoke or re-check them.
type Service struct {
	repos     Repos
	tokens    *token.Manager
	evaluator *permission.Evaluator
	validator *Validator
}

type ServiceOption func(*Service)

// WithEvaluator replaces the default role table.
func WithEvaluator(evaluator *permission.Evaluator) ServiceOption {
	return func(s *Service) {
		s.evaluator = evaluator
	}
}

func NewService(repos Repos, tokens *token.Manager, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Organizations == nil {
		return nil, errors.New("[NewService] Organizations repo is required")
	}
	if repos.Refresh == nil {
		return nil, errors.New("[NewService] Refresh store is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}

	if repos.Provisioner == nil {
		repos.Provisioner = &compensatingProvisioner{orgs: repos.Organizations, users: repos.Users}
	}

	s := &Service{
		repos:     repos,
		tokens:    tokens,
		evaluator: permission.NewEvaluator(permission.DefaultPolicy()),
		validator: NewValidator(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Evaluator exposes the role table the service authorizes against.
func (s *Service) Evaluator() *permission.Evaluator {
	return s.evaluator
}

// Login verifies email and password. Unknown email and wrong password are
// indistinguishable; a disabled account is only reported once the password matched.
func (s *Service) Login(ctx context.Context, email, password string) (*Credentials, error) {
	if err := s.validator.ValidateUserCredentials(email, password); err != nil {
		users.BurnPasswordCheck(password)
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		users.BurnPasswordCheck(password)
		log.Warn().Msg("login rejected: invalid credentials")
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		log.Warn().Str("user_id", user.ID).Msg("login rejected: invalid credentials")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		log.Warn().Str("user_id", user.ID).Str("organization_id", user.OrganizationID).Msg("login rejected: account disabled")
		return nil, apperrors.ErrAccountDisabled
	}

	creds, err := s.issue(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login]")
	}
	log.Info().Str("user_id", user.ID).Str("organization_id", user.OrganizationID).Msg("login")
	return creds, nil
}

// Validate turns a bearer access credential into a Tenant Context built from the
// current user and organization rows, never from the claims alone.
func (s *Service) Validate(ctx context.Context, rawToken string) (tenancy.Context, error) {
	if err := s.validator.ValidateAccessToken(rawToken); err != nil {
		return tenancy.Context{}, err
	}
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return tenancy.Context{}, err
	}

	user, err := s.currentUser(ctx, claims.Subject)
	if err != nil {
		return tenancy.Context{}, err
	}
	if !user.Active {
		return tenancy.Context{}, apperrors.ErrTokenInvalid
	}
	if err := s.requireOrganization(ctx, user.OrganizationID); err != nil {
		return tenancy.Context{}, err
	}

	if claims.OrganizationID != user.OrganizationID || claims.Role != user.Role {
		log.Debug().Str("user_id", user.ID).Msg("access credential claims are stale, using current rows")
	}
	return tenancy.Context{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	}, nil
}

// Refresh redeems a refresh credential and mints an access credential from the user's
// current role and organization.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	rc, err := s.repos.Refresh.Redeem(ctx, refreshToken)
	if errors.Is(err, apperrors.ErrRefreshInvalid) {
		log.Warn().Msg("refresh rejected")
		return nil, apperrors.ErrRefreshInvalid
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] Redeem")
	}

	user, err := s.repos.Users.GetByID(ctx, rc.UserID)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && !user.Active) {
		return nil, s.rejectRefresh(ctx, rc.UserID, "user missing or disabled")
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] GetByID")
	}
	if err := s.requireOrganization(ctx, user.OrganizationID); err != nil {
		if errors.Is(err, apperrors.ErrNoTenant) {
			return nil, s.rejectRefresh(ctx, rc.UserID, "organization missing")
		}
		return nil, err
	}

	access, claims, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh]")
	}
	return &Credentials{
		AccessToken:      access,
		AccessExpiresAt:  claims.ExpiresAt.Time,
		RefreshToken:     rc.Token,
		RefreshExpiresAt: rc.ExpiresAt,
		User:             user,
	}, nil
}

// rejectRefresh revokes every refresh credential of userID, including the replacement
// Redeem has just stored, and returns ErrRefreshInvalid.
func (s *Service) rejectRefresh(ctx context.Context, userID, reason string) error {
	log.Warn().Str("user_id", userID).Str("reason", reason).Msg("refresh rejected")
	if err := s.repos.Refresh.RevokeAll(ctx, userID); err != nil {
		log.Err(err).Str("user_id", userID).Msg("revoking refresh credentials")
	}
	return apperrors.ErrRefreshInvalid
}

// Logout revokes every refresh credential of the token's user and the presented access
// credential itself.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return err
	}
	if err := s.repos.Refresh.RevokeAll(ctx, claims.Subject); err != nil {
		return errors.Wrap(err, "[Service.Logout] RevokeAll")
	}
	if err := s.tokens.Revoke(claims); err != nil {
		return errors.Wrap(err, "[Service.Logout] Revoke")
	}
	log.Info().Str("user_id", claims.Subject).Msg("logout")
	return nil
}

func (s *Service) issue(ctx context.Context, user *users.User) (*Credentials, error) {
	access, claims, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, err
	}
	rc, err := s.repos.Refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "issue refresh credential")
	}
	return &Credentials{
		AccessToken:      access,
		AccessExpiresAt:  claims.ExpiresAt.Time,
		RefreshToken:     rc.Token,
		RefreshExpiresAt: rc.ExpiresAt,
		User:             user,
	}, nil
}

func (s *Service) currentUser(ctx context.Context, id string) (*users.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service] GetByID")
	}
	return user, nil
}

func (s *Service) requireOrganization(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.ErrNoTenant
	}
	_, err := s.repos.Organizations.Get(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		log.Warn().Str("organization_id", id).Msg("tenant rejected: organization does not exist")
		return apperrors.ErrNoTenant
	}
	if err != nil {
		return errors.Wrap(err, "[Service] organizations.Get")
	}
	return nil
}
