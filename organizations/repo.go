package organizations

import (
	"context"

	"github.com/jrsteele09/go-tenant-guard/tenancy"
)

// ScopeColumn is the organization column of the organizations table itself.
const ScopeColumn = "id"

// Repo is the credential store's organization contract. Get resolves identity for the
// credential validator; List and Update are filtered through a Scope built with
// tenancy.WithColumn(ScopeColumn).
type Repo interface {
	Create(ctx context.Context, org *Organization) error
	Get(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context, scope tenancy.Scope) ([]*Organization, error)
	// Update writes name, plan, seat limit and features.
	Update(ctx context.Context, scope tenancy.Scope, org *Organization) error
	// Delete removes an organization that no user or record references yet.
	Delete(ctx context.Context, id string) error
}
