package postgres

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/token/refresh"
	"github.com/pkg/errors"
)

// RefreshStore rotates refresh credentials with a row lock on the presented credential.
type RefreshStore struct {
	db     *sql.DB
	policy refresh.Policy
}

var _ refresh.Store = (*RefreshStore)(nil)

func NewRefreshStore(db *sql.DB, policy refresh.Policy) *RefreshStore {
	return &RefreshStore{db: db, policy: policy}
}

const insertRefresh = `INSERT INTO refresh_credentials (id, user_id, token_hash, expires_at, consumed, created_at)
	VALUES ($1, $2, $3, $4, FALSE, $5)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *RefreshStore) insert(ctx context.Context, db execer, c *refresh.Credential) error {
	_, err := db.ExecContext(ctx, insertRefresh, c.ID, c.UserID, c.TokenHash, c.ExpiresAt.UTC(), c.CreatedAt.UTC())
	return err
}

func (s *RefreshStore) Issue(ctx context.Context, userID string) (*refresh.Credential, error) {
	c, err := s.policy.Mint(userID)
	if err != nil {
		return nil, errors.Wrap(err, "[RefreshStore.Issue]")
	}
	if err := s.insert(ctx, s.db, c); err != nil {
		return nil, mapError(err, "[RefreshStore.Issue]")
	}
	return c, nil
}

func (s *RefreshStore) Redeem(ctx context.Context, token string) (*refresh.Credential, error) {
	var replacement *refresh.Credential
	err := WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var (
			current   refresh.Credential
			expiresAt time.Time
		)
		err := tx.QueryRowContext(ctx,
			`SELECT id, user_id, expires_at, consumed FROM refresh_credentials WHERE token_hash = $1 FOR UPDATE`,
			refresh.HashToken(token)).Scan(&current.ID, &current.UserID, &expiresAt, &current.Consumed)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrRefreshInvalid
		}
		if err != nil {
			return errors.Wrap(err, "select")
		}
		current.ExpiresAt = expiresAt
		if current.Consumed || s.policy.Expired(&current) {
			return apperrors.ErrRefreshInvalid
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE refresh_credentials SET consumed = TRUE WHERE id = $1 AND consumed = FALSE`, current.ID)
		if err != nil {
			return errors.Wrap(err, "consume")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "consume rows")
		}
		if n != 1 {
			return apperrors.ErrRefreshInvalid
		}

		replacement, err = s.policy.Mint(current.UserID)
		if err != nil {
			return err
		}
		return s.insert(ctx, tx, replacement)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrRefreshInvalid) {
			return nil, apperrors.ErrRefreshInvalid
		}
		return nil, errors.Wrap(err, "[RefreshStore.Redeem]")
	}
	return replacement, nil
}

func (s *RefreshStore) RevokeAll(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refresh_credentials SET consumed = TRUE WHERE user_id = $1 AND consumed = FALSE`, userID)
	return mapError(err, "[RefreshStore.RevokeAll]")
}
