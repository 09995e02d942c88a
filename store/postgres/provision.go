package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jrsteele09/go-tenant-guard/organizations"
	"github.com/jrsteele09/go-tenant-guard/users"
)

// ProvisionStore inserts a new organization and its first admin in one transaction.
type ProvisionStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewProvisionStore(db *sql.DB) *ProvisionStore {
	return &ProvisionStore{db: db, now: time.Now}
}

// Provision creates org and, when admin is non-nil, admin inside org. Nothing is
// written unless both inserts succeed.
func (s *ProvisionStore) Provision(ctx context.Context, org *organizations.Organization, admin *users.User) error {
	now := s.now()
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := insertOrganization(ctx, tx, org, now, "[ProvisionStore.Provision] organization"); err != nil {
			return err
		}
		if admin == nil {
			return nil
		}
		admin.OrganizationID = org.ID
		return insertUser(ctx, tx, admin, now, "[ProvisionStore.Provision] admin")
	})
}
