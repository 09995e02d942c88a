package tenancy

import (
	"strconv"
	"strings"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
)

const defaultColumn = "organization_id"

// Scope is the only way to build a filter over a tenant-scoped table. The zero value
// matches nothing.
type Scope struct {
	organizationID string
	column         string
	unscoped       bool
}

type ScopeOption func(*Scope)

// WithColumn qualifies the organization column, e.g. "r.organization_id" in a join.
func WithColumn(column string) ScopeOption {
	return func(s *Scope) {
		if column != "" {
			s.column = column
		}
	}
}

// NewScope confines every query built from it to tc's organization.
func NewScope(tc Context, opts ...ScopeOption) (Scope, error) {
	if err := tc.Check(); err != nil {
		return Scope{}, err
	}
	s := Scope{organizationID: tc.OrganizationID, column: defaultColumn}
	for _, opt := range opts {
		opt(&s)
	}
	return s, nil
}

// NewUnscoped is the single sanctioned bypass of tenant filtering. Only a platform
// operator gets one; every other role receives ErrForbidden.
func NewUnscoped(tc Context, opts ...ScopeOption) (Scope, error) {
	if err := tc.Check(); err != nil {
		return Scope{}, err
	}
	if !tc.IsPlatformOperator() {
		return Scope{}, apperrors.ErrForbidden
	}
	s := Scope{column: defaultColumn, unscoped: true}
	for _, opt := range opts {
		opt(&s)
	}
	return s, nil
}

// Predicate ANDs the organization filter with extra. extra uses '?' placeholders which
// are rebound to Postgres positions after the organization id ($1). An empty extra
// yields the organization filter alone.
func (s Scope) Predicate(extra string) string {
	extra = strings.TrimSpace(extra)
	if s.unscoped {
		if extra == "" {
			return "TRUE"
		}
		return rebind(extra, 1)
	}
	column := s.column
	if column == "" {
		column = defaultColumn
	}
	clause := column + " = $1"
	if extra == "" {
		return clause
	}
	return clause + " AND (" + rebind(extra, 2) + ")"
}

// Args returns the bound parameters matching Predicate: the organization id first,
// followed by extra.
func (s Scope) Args(extra ...any) []any {
	if s.unscoped {
		out := make([]any, 0, len(extra))
		return append(out, extra...)
	}
	out := make([]any, 0, len(extra)+1)
	out = append(out, s.organizationID)
	return append(out, extra...)
}

// NextPlaceholder returns the first free positional parameter after Predicate's, for
// statements that bind more values (LIMIT, OFFSET) after the WHERE clause.
func (s Scope) NextPlaceholder(extraArgs int) string {
	n := extraArgs + 1
	if !s.unscoped {
		n++
	}
	return "$" + strconv.Itoa(n)
}

// Allows applies the same rule to a row already in memory.
func (s Scope) Allows(organizationID string) bool {
	if s.unscoped {
		return true
	}
	return s.organizationID != "" && s.organizationID == organizationID
}

// OrganizationID is the owner stamped on new rows. An unscoped Scope has no owner and
// cannot be used to insert.
func (s Scope) OrganizationID() (string, error) {
	if s.unscoped || s.organizationID == "" {
		return "", apperrors.ErrNoTenant
	}
	return s.organizationID, nil
}

func (s Scope) IsUnscoped() bool {
	return s.unscoped
}

func rebind(query string, start int) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := start
	for _, r := range query {
		if r == '?' {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
