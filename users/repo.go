package users

import (
	"context"

	"github.com/jrsteele09/go-tenant-guard/tenancy"
)

// UserRepo is the credential store's user contract. GetByID and GetByEmail resolve
// identity and are therefore not tenant-scoped; every listing is.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, scope tenancy.Scope) ([]*User, error)
	CountActive(ctx context.Context, scope tenancy.Scope) (int, error)
	// Update writes name, role, active and password hash of a user inside scope.
	Update(ctx context.Context, scope tenancy.Scope, user *User) error
	// SetOrganization moves a user to another tenant. Reserved for the platform operator.
	SetOrganization(ctx context.Context, userID, organizationID string) error
}
