package records

import (
	"context"

	"github.com/jrsteele09/go-tenant-guard/tenancy"
)

// Repo stores records. Every method takes the caller's Scope; a row outside it behaves
// as if it did not exist (ErrNotFound).
type Repo interface {
	// Create stamps the record and its items with the Scope's organization and writes them
	// atomically.
	Create(ctx context.Context, scope tenancy.Scope, rec *Record) error
	Get(ctx context.Context, scope tenancy.Scope, id string) (*Record, error)
	List(ctx context.Context, scope tenancy.Scope) ([]*Record, error)
	// Update writes title, kind and status. The organization is never rewritten.
	Update(ctx context.Context, scope tenancy.Scope, rec *Record) error
}
