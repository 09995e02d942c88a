package tenancy_test

import (
	"context"
	"testing"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	t.Run("no context attached", func(t *testing.T) {
		_, err := tenancy.Guard(context.Background())
		require.ErrorIs(t, err, apperrors.ErrNoTenant)
	})

	t.Run("context without organization", func(t *testing.T) {
		ctx := tenancy.WithContext(context.Background(), employeeOf(""))
		_, err := tenancy.Guard(ctx)
		require.ErrorIs(t, err, apperrors.ErrNoTenant)
	})

	t.Run("context without user", func(t *testing.T) {
		tc := employeeOf("org-1")
		tc.UserID = ""
		_, err := tenancy.Guard(tenancy.WithContext(context.Background(), tc))
		require.ErrorIs(t, err, apperrors.ErrNoTenant)
	})

	t.Run("resolved context passes", func(t *testing.T) {
		ctx := tenancy.WithContext(context.Background(), employeeOf("org-1"))
		tc, err := tenancy.Guard(ctx)
		require.NoError(t, err)
		require.Equal(t, "org-1", tc.OrganizationID)
	})
}

func TestFromContextIsACopy(t *testing.T) {
	ctx := tenancy.WithContext(context.Background(), employeeOf("org-1"))
	tc, ok := tenancy.FromContext(ctx)
	require.True(t, ok)
	tc.OrganizationID = "org-2"

	again, ok := tenancy.FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "org-1", again.OrganizationID)
}
