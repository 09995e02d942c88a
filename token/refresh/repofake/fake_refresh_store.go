package refreshrepofake

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/token/refresh"
	"github.com/pkg/errors"
)

var _ refresh.Store = (*FakeRefreshStore)(nil)

type FakeRefreshStore struct {
	policy      refresh.Policy
	credentials map[string]*refresh.Credential // keyed by token hash
	lock        sync.Mutex
}

func NewFakeRefreshStore(policy refresh.Policy) *FakeRefreshStore {
	return &FakeRefreshStore{
		policy:      policy,
		credentials: make(map[string]*refresh.Credential),
	}
}

func (s *FakeRefreshStore) Issue(_ context.Context, userID string) (*refresh.Credential, error) {
	c, err := s.policy.Mint(userID)
	if err != nil {
		return nil, errors.Wrap(err, "[FakeRefreshStore.Issue]")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.put(c)
	return c, nil
}

func (s *FakeRefreshStore) Redeem(_ context.Context, token string) (*refresh.Credential, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, ok := s.credentials[refresh.HashToken(token)]
	if !ok || current.Consumed || s.policy.Expired(current) {
		return nil, apperrors.ErrRefreshInvalid
	}
	replacement, err := s.policy.Mint(current.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "[FakeRefreshStore.Redeem]")
	}
	current.Consumed = true
	s.put(replacement)
	return replacement, nil
}

func (s *FakeRefreshStore) RevokeAll(_ context.Context, userID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, c := range s.credentials {
		if c.UserID == userID {
			c.Consumed = true
		}
	}
	return nil
}

// Active counts unconsumed credentials of userID.
func (s *FakeRefreshStore) Active(userID string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	n := 0
	for _, c := range s.credentials {
		if c.UserID == userID && !c.Consumed {
			n++
		}
	}
	return n
}

func (s *FakeRefreshStore) put(c *refresh.Credential) {
	stored := *c
	stored.Token = ""
	s.credentials[c.TokenHash] = &stored
}
