package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jrsteele09/go-tenant-guard/internal/ids"
	"github.com/jrsteele09/go-tenant-guard/records"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
)

const (
	recordColumns = `id, organization_id, title, kind, status, created_by, created_at, updated_at`
	itemColumns   = `id, record_id, organization_id, description`
	maxListed     = 500
)

type RecordStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ records.Repo = (*RecordStore)(nil)

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db, now: time.Now}
}

func (s *RecordStore) Create(ctx context.Context, scope tenancy.Scope, rec *records.Record) error {
	orgID, err := scope.OrganizationID()
	if err != nil {
		return err
	}
	rec.ID = ids.New()
	rec.OrganizationID = orgID
	rec.CreatedAt = s.now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	for i := range rec.Items {
		rec.Items[i].ID = ids.New()
		rec.Items[i].RecordID = rec.ID
		rec.Items[i].OrganizationID = orgID
	}

	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO records (`+recordColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID, rec.OrganizationID, rec.Title, rec.Kind, string(rec.Status), rec.CreatedBy,
			rec.CreatedAt, rec.UpdatedAt); err != nil {
			return mapError(err, "[RecordStore.Create] record")
		}
		for _, item := range rec.Items {
			if _, err := tx.ExecContext(ctx, `INSERT INTO record_items (`+itemColumns+`) VALUES ($1, $2, $3, $4)`,
				item.ID, item.RecordID, item.OrganizationID, item.Description); err != nil {
				return mapError(err, "[RecordStore.Create] item")
			}
		}
		return nil
	})
}

func (s *RecordStore) Get(ctx context.Context, scope tenancy.Scope, id string) (*records.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE `+scope.Predicate("id = ?"),
		scope.Args(id)...)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, mapError(err, "[RecordStore.Get]")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM record_items WHERE `+scope.Predicate("record_id = ?")+` ORDER BY id`,
		scope.Args(id)...)
	if err != nil {
		return nil, mapError(err, "[RecordStore.Get] items")
	}
	defer rows.Close()
	for rows.Next() {
		var item records.LineItem
		if err := rows.Scan(&item.ID, &item.RecordID, &item.OrganizationID, &item.Description); err != nil {
			return nil, mapError(err, "[RecordStore.Get] scan item")
		}
		rec.Items = append(rec.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "[RecordStore.Get] items rows")
	}
	return rec, nil
}

func (s *RecordStore) List(ctx context.Context, scope tenancy.Scope) ([]*records.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE `+scope.Predicate("")+
			` ORDER BY id LIMIT `+scope.NextPlaceholder(0),
		scope.Args(maxListed)...)
	if err != nil {
		return nil, mapError(err, "[RecordStore.List]")
	}
	defer rows.Close()

	list := make([]*records.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, mapError(err, "[RecordStore.List] scan")
		}
		list = append(list, rec)
	}
	return list, mapError(rows.Err(), "[RecordStore.List] rows")
}

func (s *RecordStore) Update(ctx context.Context, scope tenancy.Scope, rec *records.Record) error {
	query := `UPDATE records SET title = ` + scope.NextPlaceholder(1) +
		`, kind = ` + scope.NextPlaceholder(2) +
		`, status = ` + scope.NextPlaceholder(3) +
		`, updated_at = ` + scope.NextPlaceholder(4) +
		` WHERE ` + scope.Predicate("id = ?")
	res, err := s.db.ExecContext(ctx, query,
		scope.Args(rec.ID, rec.Title, rec.Kind, string(rec.Status), s.now().UTC())...)
	if err != nil {
		return mapError(err, "[RecordStore.Update]")
	}
	return expectOneRow(res, "[RecordStore.Update]")
}

func scanRecord(row rowScanner) (*records.Record, error) {
	var (
		rec    records.Record
		status string
	)
	if err := row.Scan(&rec.ID, &rec.OrganizationID, &rec.Title, &rec.Kind, &status,
		&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Status = records.Status(status)
	return &rec, nil
}
