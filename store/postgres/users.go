package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/jrsteele09/go-tenant-guard/users"
)

const userColumns = `id, email, name, password_hash, role, organization_id, active, created_at, updated_at`

type UserStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ users.UserRepo = (*UserStore)(nil)

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

func (s *UserStore) Create(ctx context.Context, user *users.User) error {
	return insertUser(ctx, s.db, user, s.now(), "[UserStore.Create]")
}

func insertUser(ctx context.Context, ex execer, user *users.User, now time.Time, op string) error {
	if user.OrganizationID == "" {
		return apperrors.ErrNoTenant
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormalizeEmail(user.Email)
	user.CreatedAt = now.UTC()
	user.UpdatedAt = user.CreatedAt

	_, err := ex.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role),
		user.OrganizationID, user.Active, user.CreatedAt, user.UpdatedAt)
	return mapError(err, op)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, users.NormalizeEmail(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err, "[UserStore.GetByEmail]")
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err, "[UserStore.GetByID]")
	}
	return u, nil
}

func (s *UserStore) List(ctx context.Context, scope tenancy.Scope) ([]*users.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+scope.Predicate("")+` ORDER BY email`,
		scope.Args()...)
	if err != nil {
		return nil, mapError(err, "[UserStore.List]")
	}
	defer rows.Close()

	list := make([]*users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError(err, "[UserStore.List] scan")
		}
		list = append(list, u)
	}
	return list, mapError(rows.Err(), "[UserStore.List] rows")
}

func (s *UserStore) CountActive(ctx context.Context, scope tenancy.Scope) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM users WHERE `+scope.Predicate("active AND role <> ?"),
		scope.Args(string(roles.PlatformOperator))...).Scan(&n)
	if err != nil {
		return 0, mapError(err, "[UserStore.CountActive]")
	}
	return n, nil
}

func (s *UserStore) Update(ctx context.Context, scope tenancy.Scope, user *users.User) error {
	query := `UPDATE users SET name = ` + scope.NextPlaceholder(1) +
		`, role = ` + scope.NextPlaceholder(2) +
		`, active = ` + scope.NextPlaceholder(3) +
		`, password_hash = ` + scope.NextPlaceholder(4) +
		`, updated_at = ` + scope.NextPlaceholder(5) +
		` WHERE ` + scope.Predicate("id = ?")
	res, err := s.db.ExecContext(ctx, query,
		scope.Args(user.ID, user.Name, string(user.Role), user.Active, user.PasswordHash, s.now().UTC())...)
	if err != nil {
		return mapError(err, "[UserStore.Update]")
	}
	return expectOneRow(res, "[UserStore.Update]")
}

func (s *UserStore) SetOrganization(ctx context.Context, userID, organizationID string) error {
	if organizationID == "" {
		return apperrors.ErrNoTenant
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET organization_id = $1, updated_at = $2 WHERE id = $3`,
		organizationID, s.now().UTC(), userID)
	if err != nil {
		return mapError(err, "[UserStore.SetOrganization]")
	}
	return expectOneRow(res, "[UserStore.SetOrganization]")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var (
		u    users.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role,
		&u.OrganizationID, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = roles.Role(role)
	return &u, nil
}
