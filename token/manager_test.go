package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/token"
	"github.com/jrsteele09/go-tenant-guard/users"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testFixture struct {
	now     time.Time
	manager *token.Manager
	user    *users.User
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		now:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		user: &users.User{ID: "user-1", Role: roles.Manager, OrganizationID: "org-1", Active: true},
	}
	manager, err := token.New(token.NewHMACSigner(testSecret), 15*time.Minute,
		token.WithIssuer("tenant-guard"),
		token.WithNowFunc(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	f.manager = manager
	return f
}

func TestNewRequiresLifetime(t *testing.T) {
	_, err := token.New(token.NewHMACSigner(testSecret), 0)
	require.Error(t, err)
	_, err = token.New(token.NewHMACSigner(testSecret), -time.Minute)
	require.Error(t, err)
	_, err = token.New(nil, time.Minute)
	require.Error(t, err)
}

func TestCreateAndParse(t *testing.T) {
	f := setupTestFixture(t)

	raw, issued, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := f.manager.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, roles.Manager, claims.Role)
	require.Equal(t, "org-1", claims.OrganizationID)
	require.Equal(t, "tenant-guard", claims.Issuer)
	require.Equal(t, f.now.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestParseExpired(t *testing.T) {
	f := setupTestFixture(t)
	raw, _, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)

	f.now = f.now.Add(16 * time.Minute)
	_, err = f.manager.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	require.NotErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestParseInvalid(t *testing.T) {
	f := setupTestFixture(t)
	raw, _, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := f.manager.Parse("  ")
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("garbled", func(t *testing.T) {
		_, err := f.manager.Parse("not.a.token")
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := token.New(token.NewHMACSigner([]byte("ffffffffffffffffffffffffffffffff")), time.Minute, token.WithIssuer("tenant-guard"))
		require.NoError(t, err)
		_, err = other.Parse(raw)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("tampered payload", func(t *testing.T) {
		admin := *f.user
		admin.Role = roles.OrgAdmin
		forged, _, err := f.manager.CreateAccessToken(&admin)
		require.NoError(t, err)
		parts := strings.Split(raw, ".")
		parts[1] = strings.Split(forged, ".")[1]
		_, err = f.manager.Parse(strings.Join(parts, "."))
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("other algorithm with same secret", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub": "user-1",
			"iss": "tenant-guard",
			"iat": f.now.Unix(),
			"exp": f.now.Add(time.Minute).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
		require.NoError(t, err)
		_, err = f.manager.Parse(signed)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": "user-1", "exp": f.now.Add(time.Minute).Unix()}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = f.manager.Parse(signed)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := jwt.MapClaims{
			"iss": "tenant-guard",
			"iat": f.now.Unix(),
			"exp": f.now.Add(time.Minute).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)
		_, err = f.manager.Parse(signed)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := token.New(token.NewHMACSigner(testSecret), time.Minute, token.WithIssuer("someone-else"),
			token.WithNowFunc(func() time.Time { return f.now }))
		require.NoError(t, err)
		foreign, _, err := other.CreateAccessToken(f.user)
		require.NoError(t, err)
		_, err = f.manager.Parse(foreign)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})
}

func TestRevoke(t *testing.T) {
	f := setupTestFixture(t)
	raw, claims, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)

	require.NoError(t, f.manager.Revoke(claims))
	_, err = f.manager.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	other, _, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)
	_, err = f.manager.Parse(other)
	require.NoError(t, err)
}

func TestRevokedCacheCleanup(t *testing.T) {
	cache := token.NewInMemoryRevokedTokenCache()
	now := time.Now()
	require.NoError(t, cache.Add("old", now.Add(-time.Second)))
	require.NoError(t, cache.Add("live", now.Add(time.Minute)))
	cache.Cleanup(now)
	require.False(t, cache.IsRevoked("old"))
	require.True(t, cache.IsRevoked("live"))
}
