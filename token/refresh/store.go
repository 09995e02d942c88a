package refresh

import (
	"context"
	"time"
)

// Credential is a single-use refresh credential. Token is the opaque value handed to the
// client and is only populated on the credential returned from Issue or Redeem; stores
// persist TokenHash.
type Credential struct {
	ID        string
	UserID    string
	Token     string
	TokenHash string
	ExpiresAt time.Time
	Consumed  bool
	CreatedAt time.Time
}

// Store persists refresh credentials and rotates them.
//
// Redeem consumes the presented credential and returns its replacement in one atomic
// step: of any number of concurrent redemptions of the same token exactly one succeeds.
// Absent, consumed and expired tokens are all reported as ErrRefreshInvalid.
type Store interface {
	Issue(ctx context.Context, userID string) (*Credential, error)
	Redeem(ctx context.Context, token string) (*Credential, error)
	RevokeAll(ctx context.Context, userID string) error
}
