package refresh_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-tenant-guard/token/refresh"
	"github.com/jrsteele09/go-tenant-guard/token/refresh/refreshtest"
	"github.com/stretchr/testify/require"
)

func TestPolicyMint(t *testing.T) {
	clock := refreshtest.NewClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	policy := refreshtest.NewPolicy(t, clock)

	a, err := policy.Mint("user-1")
	require.NoError(t, err)
	b, err := policy.Mint("user-1")
	require.NoError(t, err)

	require.NotEqual(t, a.Token, b.Token)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, refresh.HashToken(a.Token), a.TokenHash)
	require.False(t, policy.Expired(a))

	clock.Advance(policy.TTL())
	require.True(t, policy.Expired(a))
}
