package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-tenant-guard/auth"
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/organizations"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/stretchr/testify/require"
)

func invite(email string, role roles.Role) auth.InviteRequest {
	return auth.InviteRequest{Email: email, Name: "New", Role: role, Password: "Passw0rdTwo"}
}

func TestChangePassword(t *testing.T) {
	f := setupTestFixture(t)
	creds := f.login(t, f.employee)
	tc := f.contextOf(t, f.employee)

	t.Run("wrong current password", func(t *testing.T) {
		err := f.service.ChangePassword(f.ctx, tc, "Nope1234", "Passw0rdNew")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("weak new password", func(t *testing.T) {
		err := f.service.ChangePassword(f.ctx, tc, testPassword, "weak")
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("success revokes refresh credentials", func(t *testing.T) {
		require.NoError(t, f.service.ChangePassword(f.ctx, tc, testPassword, "Passw0rdNew"))
		_, err := f.service.Refresh(f.ctx, creds.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrRefreshInvalid)

		_, err = f.service.Login(f.ctx, f.employee.Email, testPassword)
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		_, err = f.service.Login(f.ctx, f.employee.Email, "Passw0rdNew")
		require.NoError(t, err)
	})
}

func TestInvite(t *testing.T) {
	f := setupTestFixture(t)
	adminCtx := f.contextOf(t, f.adminA)

	t.Run("employee cannot invite", func(t *testing.T) {
		_, err := f.service.Invite(f.ctx, f.contextOf(t, f.employee), invite("x@example.com", roles.Employee))
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("admin cannot mint an operator", func(t *testing.T) {
		_, err := f.service.Invite(f.ctx, adminCtx, invite("op2@example.com", roles.PlatformOperator))
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("new user lands in the inviter's organization", func(t *testing.T) {
		u, err := f.service.Invite(f.ctx, adminCtx, invite("New.Hire@Example.com", roles.Manager))
		require.NoError(t, err)
		require.Equal(t, f.orgA.ID, u.OrganizationID)
		require.Equal(t, "new.hire@example.com", u.Email)
		require.True(t, u.Active)
	})

	t.Run("seat limit", func(t *testing.T) {
		// adminA, employee and the new hire fill the three seats
		_, err := f.service.Invite(f.ctx, adminCtx, invite("one.more@example.com", roles.Employee))
		require.ErrorIs(t, err, apperrors.ErrSeatLimitReached)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.service.Invite(f.ctx, f.contextOf(t, f.adminB), invite(f.employee.Email, roles.Employee))
		require.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestUpdateUser(t *testing.T) {
	f := setupTestFixture(t)
	adminCtx := f.contextOf(t, f.adminA)

	t.Run("foreign user is not found", func(t *testing.T) {
		_, err := f.service.UpdateUser(f.ctx, adminCtx, f.adminB.ID, auth.UserUpdate{Name: strPtr("pwned")})
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("cannot grant operator", func(t *testing.T) {
		role := roles.PlatformOperator
		_, err := f.service.UpdateUser(f.ctx, adminCtx, f.employee.ID, auth.UserUpdate{Role: &role})
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("cannot change own role", func(t *testing.T) {
		role := roles.Employee
		_, err := f.service.UpdateUser(f.ctx, adminCtx, f.adminA.ID, auth.UserUpdate{Role: &role})
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("manager cannot manage users", func(t *testing.T) {
		mgr := f.createUser(t, "mgr.b@example.com", roles.Manager, f.orgB.ID, true)
		_, err := f.service.UpdateUser(f.ctx, f.contextOf(t, mgr), f.adminB.ID, auth.UserUpdate{Name: strPtr("x")})
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("disabling revokes refresh credentials", func(t *testing.T) {
		creds := f.login(t, f.employee)
		inactive := false
		u, err := f.service.UpdateUser(f.ctx, adminCtx, f.employee.ID, auth.UserUpdate{Active: &inactive})
		require.NoError(t, err)
		require.False(t, u.Active)
		require.Zero(t, f.refresh.Active(f.employee.ID))

		_, err = f.service.Validate(f.ctx, creds.AccessToken)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("re-enabling respects the seat limit", func(t *testing.T) {
		_, err := f.service.Invite(f.ctx, adminCtx, invite("fill.one@example.com", roles.Employee))
		require.NoError(t, err)
		_, err = f.service.Invite(f.ctx, adminCtx, invite("fill.two@example.com", roles.Employee))
		require.NoError(t, err)

		active := true
		_, err = f.service.UpdateUser(f.ctx, adminCtx, f.employee.ID, auth.UserUpdate{Active: &active})
		require.ErrorIs(t, err, apperrors.ErrSeatLimitReached)
	})
}

func TestOrganizationSettings(t *testing.T) {
	f := setupTestFixture(t)
	adminCtx := f.contextOf(t, f.adminA)
	employeeCtx := f.contextOf(t, f.employee)

	t.Run("members read their own organization", func(t *testing.T) {
		org, err := f.service.Organization(f.ctx, employeeCtx)
		require.NoError(t, err)
		require.Equal(t, f.orgA.ID, org.ID)
	})

	t.Run("only admins change seats", func(t *testing.T) {
		_, err := f.service.UpdateSeatLimit(f.ctx, employeeCtx, 100)
		require.ErrorIs(t, err, apperrors.ErrForbidden)

		org, err := f.service.UpdateSeatLimit(f.ctx, adminCtx, 10)
		require.NoError(t, err)
		require.Equal(t, 10, org.SeatLimit)

		other, err := f.orgRepo.Get(f.ctx, f.orgB.ID)
		require.NoError(t, err)
		require.Equal(t, 3, other.SeatLimit)
	})

	t.Run("negative seats", func(t *testing.T) {
		_, err := f.service.UpdateSeatLimit(f.ctx, adminCtx, -1)
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("features", func(t *testing.T) {
		_, err := f.service.UpdateFeatures(f.ctx, employeeCtx, []string{"capa"})
		require.ErrorIs(t, err, apperrors.ErrForbidden)

		org, err := f.service.UpdateFeatures(f.ctx, adminCtx, []string{"capa", "audits", "capa"})
		require.NoError(t, err)
		require.Equal(t, []string{"audits", "capa"}, org.Features)
	})

	t.Run("list users is confined", func(t *testing.T) {
		list, err := f.service.ListUsers(f.ctx, employeeCtx)
		require.NoError(t, err)
		for _, u := range list {
			require.Equal(t, f.orgA.ID, u.OrganizationID)
		}
		require.Len(t, list, 2)
	})
}

// No role except the platform operator reaches an unscoped or cross-tenant operation.
func TestRoleEscalationImpossible(t *testing.T) {
	f := setupTestFixture(t)
	for _, u := range []struct {
		name string
		ctx  tenancy.Context
	}{
		{"org admin", f.contextOf(t, f.adminA)},
		{"employee", f.contextOf(t, f.employee)},
		{"manager", f.contextOf(t, f.createUser(t, "mgr@example.com", roles.Manager, f.orgA.ID, true))},
	} {
		t.Run(u.name, func(t *testing.T) {
			_, err := tenancy.NewUnscoped(u.ctx)
			require.ErrorIs(t, err, apperrors.ErrForbidden)

			_, err = f.service.ReassignOrganization(f.ctx, u.ctx, u.ctx.UserID, f.orgB.ID)
			require.ErrorIs(t, err, apperrors.ErrForbidden)

			_, _, err = f.service.ProvisionOrganization(f.ctx, u.ctx, auth.ProvisionRequest{Name: "X", Plan: organizations.PlanFree})
			require.ErrorIs(t, err, apperrors.ErrForbidden)

			list, err := f.service.ListUsers(f.ctx, u.ctx)
			require.NoError(t, err)
			for _, usr := range list {
				require.Equal(t, u.ctx.OrganizationID, usr.OrganizationID)
			}
		})
	}
}

func TestProvisionOrganization(t *testing.T) {
	f := setupTestFixture(t)
	opCtx := f.contextOf(t, f.operator)

	org, admin, err := f.service.ProvisionOrganization(f.ctx, opCtx, auth.ProvisionRequest{
		Name:      "Org C",
		Plan:      organizations.PlanEnterprise,
		SeatLimit: 25,
		Features:  []string{"audits"},
		Admin:     &auth.InviteRequest{Email: "admin.c@example.com", Role: roles.OrgAdmin, Password: "Passw0rdTwo"},
	})
	require.NoError(t, err)
	require.Equal(t, org.ID, admin.OrganizationID)

	creds, err := f.service.Login(f.ctx, "admin.c@example.com", "Passw0rdTwo")
	require.NoError(t, err)
	tc, err := f.service.Validate(f.ctx, creds.AccessToken)
	require.NoError(t, err)
	require.Equal(t, org.ID, tc.OrganizationID)
	require.Equal(t, roles.OrgAdmin, tc.Role)

	t.Run("duplicate admin email leaves no organization behind", func(t *testing.T) {
		before := f.organizationCount(t, opCtx)
		_, _, err := f.service.ProvisionOrganization(f.ctx, opCtx, auth.ProvisionRequest{
			Name:  "Org D",
			Plan:  organizations.PlanFree,
			Admin: &auth.InviteRequest{Email: f.adminA.Email, Role: roles.OrgAdmin, Password: "Passw0rdTwo"},
		})
		require.ErrorIs(t, err, apperrors.ErrConflict)
		require.Equal(t, before, f.organizationCount(t, opCtx))
	})

	t.Run("reassign to unknown organization", func(t *testing.T) {
		_, err := f.service.ReassignOrganization(f.ctx, opCtx, admin.ID, "missing")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("reassign unknown user", func(t *testing.T) {
		_, err := f.service.ReassignOrganization(f.ctx, opCtx, "missing", org.ID)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func (f *testFixture) organizationCount(t *testing.T, opCtx tenancy.Context) int {
	t.Helper()
	scope, err := tenancy.NewUnscoped(opCtx, tenancy.WithColumn(organizations.ScopeColumn))
	require.NoError(t, err)
	list, err := f.orgRepo.List(f.ctx, scope)
	require.NoError(t, err)
	return len(list)
}
