package fakeuserrepo_test

import (
	"context"
	"testing"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/jrsteele09/go-tenant-guard/users"
	fakeuserrepo "github.com/jrsteele09/go-tenant-guard/users/repofake"
	"github.com/stretchr/testify/require"
)

func scopeFor(t *testing.T, org string) tenancy.Scope {
	t.Helper()
	s, err := tenancy.NewScope(tenancy.Context{UserID: "actor", Role: roles.OrgAdmin, OrganizationID: org})
	require.NoError(t, err)
	return s
}

func TestFakeUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	a := &users.User{Email: "A@one.example", Role: roles.Employee, OrganizationID: "org-1", Active: true}
	b := &users.User{Email: "b@two.example", Role: roles.Employee, OrganizationID: "org-2", Active: true}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	t.Run("email is unique and normalized", func(t *testing.T) {
		err := repo.Create(ctx, &users.User{Email: "a@ONE.example", OrganizationID: "org-1"})
		require.ErrorIs(t, err, apperrors.ErrConflict)
		got, err := repo.GetByEmail(ctx, " a@one.example")
		require.NoError(t, err)
		require.Equal(t, a.ID, got.ID)
	})

	t.Run("create requires an organization", func(t *testing.T) {
		err := repo.Create(ctx, &users.User{Email: "c@none.example"})
		require.ErrorIs(t, err, apperrors.ErrNoTenant)
	})

	t.Run("list is confined to scope", func(t *testing.T) {
		list, err := repo.List(ctx, scopeFor(t, "org-1"))
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "org-1", list[0].OrganizationID)
	})

	t.Run("update outside scope is not found", func(t *testing.T) {
		foreign := *b
		foreign.Role = roles.OrgAdmin
		err := repo.Update(ctx, scopeFor(t, "org-1"), &foreign)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		got, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		require.Equal(t, roles.Employee, got.Role)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		got.OrganizationID = "org-2"
		again, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "org-1", again.OrganizationID)
	})

	t.Run("reassignment", func(t *testing.T) {
		require.NoError(t, repo.SetOrganization(ctx, a.ID, "org-2"))
		n, err := repo.CountActive(ctx, scopeFor(t, "org-2"))
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.ErrorIs(t, repo.SetOrganization(ctx, a.ID, ""), apperrors.ErrNoTenant)
	})
}
