package tenancy

import (
	"context"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/roles"
)

// Context is the request-scoped (user, role, organization) triple resolved from live
// credential-store rows. It is never persisted.
type Context struct {
	UserID         string
	Email          string
	Role           roles.Role
	OrganizationID string
}

// IsPlatformOperator reports whether the context may bypass tenant scoping.
func (c Context) IsPlatformOperator() bool {
	return c.Role == roles.PlatformOperator
}

type tenantContextKey struct{}

// WithContext attaches tc to ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, &tc)
}

// FromContext extracts the Tenant Context attached by the credential validator.
func FromContext(ctx context.Context) (Context, bool) {
	if ctx == nil {
		return Context{}, false
	}
	v, ok := ctx.Value(tenantContextKey{}).(*Context)
	if !ok || v == nil {
		return Context{}, false
	}
	return *v, true
}

// Guard rejects a request whose Tenant Context is missing or has no organization.
// It runs after the validator on purpose: a handler wired without the validator still
// cannot reach business logic.
func Guard(ctx context.Context) (Context, error) {
	tc, ok := FromContext(ctx)
	if !ok {
		return Context{}, apperrors.ErrNoTenant
	}
	if err := tc.Check(); err != nil {
		return Context{}, err
	}
	return tc, nil
}

// Check applies the guard invariant to an already extracted context.
func (c Context) Check() error {
	if c.OrganizationID == "" || c.UserID == "" {
		return apperrors.ErrNoTenant
	}
	return nil
}
