// Package postgres implements the credential store, refresh rotation store and record
// store on Postgres through database/sql and the pgx driver. Every tenant-scoped
// statement takes its WHERE clause from a tenancy.Scope.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Open returns a pooled handle. The caller owns it and must Close it.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.Open]")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "[postgres.Migrate]")
	}
	return nil
}

// WithTx runs fn inside a transaction, committing when fn returns nil and rolling back
// otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "[postgres.WithTx] begin")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "[postgres.WithTx] commit")
	}
	return nil
}

// mapError turns driver errors into the shared taxonomy where one applies.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Wrap(apperrors.ErrConflict, op)
	}
	return errors.Wrap(err, op)
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
