package ids_test

import (
	"testing"

	"github.com/jrsteele09/go-tenant-guard/internal/ids"
	"github.com/stretchr/testify/require"
)

func TestNewIsMonotonic(t *testing.T) {
	prev := ids.New()
	for i := 0; i < 100; i++ {
		next := ids.New()
		require.Len(t, next, 26)
		require.Less(t, prev, next)
		prev = next
	}
}
