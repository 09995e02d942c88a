package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-tenant-guard/organizations"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/pkg/errors"
)

const organizationColumns = `id, name, plan, seat_limit, features, created_at`

type OrganizationStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ organizations.Repo = (*OrganizationStore)(nil)

func NewOrganizationStore(db *sql.DB) *OrganizationStore {
	return &OrganizationStore{db: db, now: time.Now}
}

func (s *OrganizationStore) Create(ctx context.Context, org *organizations.Organization) error {
	return insertOrganization(ctx, s.db, org, s.now(), "[OrganizationStore.Create]")
}

func (s *OrganizationStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "[OrganizationStore.Delete]")
	}
	return expectOneRow(res, "[OrganizationStore.Delete]")
}

func insertOrganization(ctx context.Context, ex execer, org *organizations.Organization, now time.Time, op string) error {
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	org.Features = organizations.NormalizeFeatures(org.Features)
	org.CreatedAt = now.UTC()
	features, err := json.Marshal(org.Features)
	if err != nil {
		return errors.Wrap(err, op+" features")
	}
	_, err = ex.ExecContext(ctx, `INSERT INTO organizations (`+organizationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		org.ID, org.Name, string(org.Plan), org.SeatLimit, string(features), org.CreatedAt)
	return mapError(err, op)
}

func (s *OrganizationStore) Get(ctx context.Context, id string) (*organizations.Organization, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	org, err := scanOrganization(row)
	if err != nil {
		return nil, mapError(err, "[OrganizationStore.Get]")
	}
	return org, nil
}

// List expects a Scope built with tenancy.WithColumn(organizations.ScopeColumn).
func (s *OrganizationStore) List(ctx context.Context, scope tenancy.Scope) ([]*organizations.Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE `+scope.Predicate("")+` ORDER BY name`,
		scope.Args()...)
	if err != nil {
		return nil, mapError(err, "[OrganizationStore.List]")
	}
	defer rows.Close()

	list := make([]*organizations.Organization, 0)
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, mapError(err, "[OrganizationStore.List] scan")
		}
		list = append(list, org)
	}
	return list, mapError(rows.Err(), "[OrganizationStore.List] rows")
}

func (s *OrganizationStore) Update(ctx context.Context, scope tenancy.Scope, org *organizations.Organization) error {
	features, err := json.Marshal(organizations.NormalizeFeatures(org.Features))
	if err != nil {
		return errors.Wrap(err, "[OrganizationStore.Update] features")
	}
	query := `UPDATE organizations SET name = ` + scope.NextPlaceholder(1) +
		`, plan = ` + scope.NextPlaceholder(2) +
		`, seat_limit = ` + scope.NextPlaceholder(3) +
		`, features = ` + scope.NextPlaceholder(4) +
		` WHERE ` + scope.Predicate("id = ?")
	res, err := s.db.ExecContext(ctx, query,
		scope.Args(org.ID, org.Name, string(org.Plan), org.SeatLimit, string(features))...)
	if err != nil {
		return mapError(err, "[OrganizationStore.Update]")
	}
	return expectOneRow(res, "[OrganizationStore.Update]")
}

func scanOrganization(row rowScanner) (*organizations.Organization, error) {
	var (
		org      organizations.Organization
		plan     string
		features []byte
	)
	if err := row.Scan(&org.ID, &org.Name, &plan, &org.SeatLimit, &features, &org.CreatedAt); err != nil {
		return nil, err
	}
	org.Plan = organizations.Plan(plan)
	if len(features) > 0 {
		if err := json.Unmarshal(features, &org.Features); err != nil {
			return nil, errors.Wrap(err, "features")
		}
	}
	return &org, nil
}
