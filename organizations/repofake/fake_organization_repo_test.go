package organizationrepofake_test

import (
	"context"
	"testing"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/organizations"
	organizationrepofake "github.com/jrsteele09/go-tenant-guard/organizations/repofake"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/stretchr/testify/require"
)

func TestFakeOrganizationRepo(t *testing.T) {
	ctx := context.Background()
	repo := organizationrepofake.NewFakeOrganizationRepo()
	one := &organizations.Organization{Name: "One", Plan: organizations.PlanFree, SeatLimit: 3}
	two := &organizations.Organization{Name: "Two", Plan: organizations.PlanStandard, SeatLimit: 10}
	require.NoError(t, repo.Create(ctx, one))
	require.NoError(t, repo.Create(ctx, two))

	admin := tenancy.Context{UserID: "u", Role: roles.OrgAdmin, OrganizationID: one.ID}
	scope, err := tenancy.NewScope(admin, tenancy.WithColumn(organizations.ScopeColumn))
	require.NoError(t, err)

	t.Run("scoped list sees only its own organization", func(t *testing.T) {
		list, err := repo.List(ctx, scope)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, one.ID, list[0].ID)
	})

	t.Run("operator unscoped list sees all", func(t *testing.T) {
		op := tenancy.Context{UserID: "op", Role: roles.PlatformOperator, OrganizationID: one.ID}
		unscoped, err := tenancy.NewUnscoped(op, tenancy.WithColumn(organizations.ScopeColumn))
		require.NoError(t, err)
		list, err := repo.List(ctx, unscoped)
		require.NoError(t, err)
		require.Len(t, list, 2)
	})

	t.Run("update of another tenant is not found", func(t *testing.T) {
		change := *two
		change.SeatLimit = 1000
		require.ErrorIs(t, repo.Update(ctx, scope, &change), apperrors.ErrNotFound)
		got, err := repo.Get(ctx, two.ID)
		require.NoError(t, err)
		require.Equal(t, 10, got.SeatLimit)
	})

	t.Run("update own seats", func(t *testing.T) {
		change := *one
		change.SeatLimit = 5
		require.NoError(t, repo.Update(ctx, scope, &change))
		got, err := repo.Get(ctx, one.ID)
		require.NoError(t, err)
		require.Equal(t, 5, got.SeatLimit)
	})

	t.Run("delete", func(t *testing.T) {
		gone := &organizations.Organization{Name: "Gone", Plan: organizations.PlanFree}
		require.NoError(t, repo.Create(ctx, gone))
		require.NoError(t, repo.Delete(ctx, gone.ID))
		_, err := repo.Get(ctx, gone.ID)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		require.ErrorIs(t, repo.Delete(ctx, gone.ID), apperrors.ErrNotFound)
	})
}
