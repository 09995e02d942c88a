package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/users"
	"github.com/pkg/errors"
)

// Claims carried by an access credential. Role and OrganizationID are hints recorded at
// issuance; callers must re-resolve both from the credential store before trusting them.
type Claims struct {
	Role           roles.Role `json:"role"`
	OrganizationID string     `json:"org"`
	jwt.RegisteredClaims
}

type Manager struct {
	signer            Signer
	issuer            string
	accessTokenExpiry time.Duration
	revokedCache      RevokedTokenCache
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

// New returns a Manager that signs with signer and mints access credentials valid for
// accessTTL. There is no default lifetime.
func New(signer Signer, accessTTL time.Duration, options ...ManagerOption) (*Manager, error) {
	if signer == nil {
		return nil, errors.New("[token.New] signer is required")
	}
	if accessTTL <= 0 {
		return nil, errors.New("[token.New] access credential lifetime must be positive")
	}
	m := &Manager{
		signer:            signer,
		accessTokenExpiry: accessTTL,
		revokedCache:      NewInMemoryRevokedTokenCache(),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m, nil
}

func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

// CreateAccessToken mints a signed access credential for user.
func (m *Manager) CreateAccessToken(user *users.User) (string, *Claims, error) {
	if user == nil || user.ID == "" {
		return "", nil, errors.Wrap(apperrors.ErrInvalidRequest, "[Manager.CreateAccessToken] user has no id")
	}
	now := m.nowFunc()
	claims := &Claims{
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpiry)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", nil, errors.Wrap(err, "[Manager.CreateAccessToken]")
	}
	return signed, claims, nil
}

// Parse verifies signature, algorithm, issuer and expiry of rawToken. Expiry yields
// ErrTokenExpired; every other failure yields ErrTokenInvalid.
func (m *Manager) Parse(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, m.signer.GetVerificationKey, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Wrapf(apperrors.ErrTokenExpired, "[Manager.Parse]")
		}
		return nil, apperrors.Wrapf(apperrors.ErrTokenInvalid, "[Manager.Parse] %v", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, apperrors.ErrTokenInvalid
	}
	if claims.ID != "" && m.revokedCache.IsRevoked(claims.ID) {
		return nil, apperrors.Wrapf(apperrors.ErrTokenInvalid, "[Manager.Parse] revoked")
	}
	return claims, nil
}

// Revoke rejects the access credential described by claims until it would have expired anyway.
func (m *Manager) Revoke(claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	exp := m.nowFunc().Add(m.accessTokenExpiry)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	m.revokedCache.Cleanup(m.nowFunc())
	return m.revokedCache.Add(claims.ID, exp)
}
