// Package refreshtest holds the behaviour every refresh.Store backend must show.
package refreshtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-tenant-guard/internal/config"
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/token/refresh"
	"github.com/stretchr/testify/require"
)

// Clock is a settable time source safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewPolicy returns a 24h refresh policy driven by clock.
func NewPolicy(t *testing.T, clock *Clock) refresh.Policy {
	t.Helper()
	cfg, err := config.NewToken([]byte("0123456789abcdef0123456789abcdef"), 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return refresh.NewPolicy(cfg, refresh.WithNowFunc(clock.Now))
}

// Run exercises newStore against the refresh.Store contract.
func Run(t *testing.T, newStore func(t *testing.T, policy refresh.Policy) refresh.Store) {
	ctx := context.Background()

	setup := func(t *testing.T) (refresh.Store, *Clock) {
		t.Helper()
		clock := NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
		return newStore(t, NewPolicy(t, clock)), clock
	}

	t.Run("issue returns an opaque token", func(t *testing.T) {
		store, clock := setup(t)
		c, err := store.Issue(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, c.Token, 64)
		require.Equal(t, refresh.HashToken(c.Token), c.TokenHash)
		require.NotEqual(t, c.Token, c.TokenHash)
		require.Equal(t, clock.Now().Add(24*time.Hour), c.ExpiresAt)
	})

	t.Run("redeem rotates and is single use", func(t *testing.T) {
		store, _ := setup(t)
		first, err := store.Issue(ctx, "user-1")
		require.NoError(t, err)

		second, err := store.Redeem(ctx, first.Token)
		require.NoError(t, err)
		require.Equal(t, "user-1", second.UserID)
		require.NotEqual(t, first.Token, second.Token)

		_, err = store.Redeem(ctx, first.Token)
		require.ErrorIs(t, err, apperrors.ErrRefreshInvalid)

		third, err := store.Redeem(ctx, second.Token)
		require.NoError(t, err)
		require.Equal(t, "user-1", third.UserID)
	})

	t.Run("unknown token", func(t *testing.T) {
		store, _ := setup(t)
		_, err := store.Redeem(ctx, "deadbeef")
		require.ErrorIs(t, err, apperrors.ErrRefreshInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		store, clock := setup(t)
		c, err := store.Issue(ctx, "user-1")
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
		_, err = store.Redeem(ctx, c.Token)
		require.ErrorIs(t, err, apperrors.ErrRefreshInvalid)
	})

	t.Run("revoke all", func(t *testing.T) {
		store, _ := setup(t)
		a, err := store.Issue(ctx, "user-1")
		require.NoError(t, err)
		b, err := store.Issue(ctx, "user-1")
		require.NoError(t, err)
		other, err := store.Issue(ctx, "user-2")
		require.NoError(t, err)

		require.NoError(t, store.RevokeAll(ctx, "user-1"))

		_, err = store.Redeem(ctx, a.Token)
		require.ErrorIs(t, err, apperrors.ErrRefreshInvalid)
		_, err = store.Redeem(ctx, b.Token)
		require.ErrorIs(t, err, apperrors.ErrRefreshInvalid)
		_, err = store.Redeem(ctx, other.Token)
		require.NoError(t, err)
	})

	t.Run("concurrent redemption has one winner", func(t *testing.T) {
		store, _ := setup(t)
		c, err := store.Issue(ctx, "user-1")
		require.NoError(t, err)

		const attempts = 32
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			winners  int
			failures int
		)
		start := make(chan struct{})
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := store.Redeem(ctx, c.Token)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					winners++
					return
				}
				if apperrors.Is(err, apperrors.ErrRefreshInvalid) {
					failures++
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, 1, winners)
		require.Equal(t, attempts-1, failures)
	})
}
