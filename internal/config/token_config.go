package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	signingSecretVar = "AUTH_SIGNING_SECRET"
	accessTTLVar     = "AUTH_ACCESS_TTL"
	refreshTTLVar    = "AUTH_REFRESH_TTL"

	minSigningSecretLength = 32
	refreshTokenLength     = 32 // bytes
)

type TokenConfig interface {
	GetSigningSecret() []byte
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type Token struct {
	signingSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

var _ TokenConfig = Token{}

// NewToken builds token settings directly, mainly for tests and embedding.
func NewToken(secret []byte, accessTTL, refreshTTL time.Duration) (Token, error) {
	t := Token{signingSecret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
	if err := t.validate(); err != nil {
		return Token{}, err
	}
	return t, nil
}

func loadToken() (Token, error) {
	secret := strings.TrimSpace(os.Getenv(signingSecretVar))
	if secret == "" {
		return Token{}, errors.Errorf("%s is required", signingSecretVar)
	}
	accessTTL, err := requiredDuration(accessTTLVar)
	if err != nil {
		return Token{}, err
	}
	refreshTTL, err := requiredDuration(refreshTTLVar)
	if err != nil {
		return Token{}, err
	}
	return NewToken([]byte(secret), accessTTL, refreshTTL)
}

func (t Token) validate() error {
	if len(t.signingSecret) < minSigningSecretLength {
		return errors.Errorf("signing secret must be at least %d bytes", minSigningSecretLength)
	}
	if t.accessTTL <= 0 {
		return errors.New("access credential ttl must be positive")
	}
	if t.refreshTTL <= t.accessTTL {
		return errors.New("refresh credential ttl must exceed access credential ttl")
	}
	return nil
}

func (t Token) GetSigningSecret() []byte {
	return t.signingSecret
}

func (t Token) GetAccessTokenExpiry() time.Duration {
	return t.accessTTL
}

func (t Token) GetRefreshTokenExpiry() time.Duration {
	return t.refreshTTL
}

func (Token) GetRefreshTokenLength() int {
	return refreshTokenLength
}

func requiredDuration(name string) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, errors.Errorf("%s is required", name)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "%s is not a duration", name)
	}
	return d, nil
}
