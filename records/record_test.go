package records_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/records"
	"github.com/stretchr/testify/require"
)

func TestRecordValidate(t *testing.T) {
	t.Run("defaults status to open", func(t *testing.T) {
		r := &records.Record{Title: "Supplier audit"}
		require.NoError(t, r.Validate())
		require.Equal(t, records.StatusOpen, r.Status)
	})

	t.Run("title required", func(t *testing.T) {
		r := &records.Record{Title: "  "}
		require.ErrorIs(t, r.Validate(), apperrors.ErrInvalidRequest)
	})

	t.Run("unknown status", func(t *testing.T) {
		r := &records.Record{Title: "x", Status: "archived"}
		require.ErrorIs(t, r.Validate(), apperrors.ErrInvalidRequest)
	})

	t.Run("empty line item", func(t *testing.T) {
		r := &records.Record{Title: "x", Items: []records.LineItem{{Description: ""}}}
		require.ErrorIs(t, r.Validate(), apperrors.ErrInvalidRequest)
	})
}
