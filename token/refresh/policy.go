package refresh

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-tenant-guard/internal/config"
	"github.com/pkg/errors"
)

// Policy mints refresh credentials for every Store backend.
type Policy struct {
	ttl         time.Duration
	tokenLength int
	nowFunc     func() time.Time
}

type PolicyOption func(*Policy)

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) PolicyOption {
	return func(p *Policy) {
		p.nowFunc = now
	}
}

func NewPolicy(cfg config.TokenConfig, opts ...PolicyOption) Policy {
	p := Policy{
		ttl:         cfg.GetRefreshTokenExpiry(),
		tokenLength: cfg.GetRefreshTokenLength(),
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if p.tokenLength <= 0 {
		p.tokenLength = 32
	}
	return p
}

func (p Policy) Now() time.Time {
	return p.nowFunc()
}

func (p Policy) TTL() time.Duration {
	return p.ttl
}

// Mint creates a fresh, unpersisted credential for userID.
func (p Policy) Mint(userID string) (*Credential, error) {
	tokenBytes := make([]byte, p.tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, errors.Wrap(err, "[Policy.Mint] rand.Read")
	}
	tokenStr := hex.EncodeToString(tokenBytes)
	now := p.nowFunc()
	return &Credential{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     tokenStr,
		TokenHash: HashToken(tokenStr),
		ExpiresAt: now.Add(p.ttl),
		CreatedAt: now,
	}, nil
}

// Expired reports whether c can no longer be redeemed at the policy's current time.
func (p Policy) Expired(c *Credential) bool {
	return !p.nowFunc().Before(c.ExpiresAt)
}

// HashToken is the lookup key stores keep instead of the opaque token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
