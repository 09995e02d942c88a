package permission

import (
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/roles"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
)

// Action names an operation a handler performs on behalf of a Tenant Context.
type Action string

const (
	RecordsRead  Action = "records:read"
	RecordsWrite Action = "records:write"
	OrgRead      Action = "org:read"
	UsersRead    Action = "users:read"
	SelfManage   Action = "self:manage"

	UsersInvite Action = "users:invite"
	UsersManage Action = "users:manage"
	OrgSeats    Action = "org:seats"
	OrgFeatures Action = "org:features"

	PlatformReadAll   Action = "platform:read_all"
	PlatformReassign  Action = "platform:reassign"
	PlatformProvision Action = "platform:provision"
)

// Manager and employee share one surface; finer separation has no evidenced intent.
var memberActions = []Action{RecordsRead, RecordsWrite, OrgRead, UsersRead, SelfManage}

var adminActions = []Action{UsersInvite, UsersManage, OrgSeats, OrgFeatures}

// DefaultPolicy is the static role -> action table. The platform operator is not listed
// because it is allowed everything.
func DefaultPolicy() map[roles.Role][]Action {
	admin := append(append([]Action{}, memberActions...), adminActions...)
	return map[roles.Role][]Action{
		roles.OrgAdmin: admin,
		roles.Manager:  append([]Action{}, memberActions...),
		roles.Employee: append([]Action{}, memberActions...),
	}
}

// Evaluator maps (role, action) to allow or ErrForbidden.
type Evaluator struct {
	table map[roles.Role]map[Action]struct{}
}

// NewEvaluator builds an evaluator over policy. A role that is not in policy is denied
// every action.
func NewEvaluator(policy map[roles.Role][]Action) *Evaluator {
	table := make(map[roles.Role]map[Action]struct{}, len(policy))
	for role, actions := range policy {
		set := make(map[Action]struct{}, len(actions))
		for _, a := range actions {
			set[a] = struct{}{}
		}
		table[role] = set
	}
	return &Evaluator{table: table}
}

// Authorize allows the platform operator unconditionally. Everyone else must first hold
// a resolved tenant (ErrNoTenant otherwise) and then appear in the table for action.
func (e *Evaluator) Authorize(tc tenancy.Context, action Action) error {
	if tc.IsPlatformOperator() && tc.UserID != "" {
		return nil
	}
	if err := tc.Check(); err != nil {
		return err
	}
	if _, ok := e.table[tc.Role][action]; !ok {
		return apperrors.ErrForbidden
	}
	return nil
}

// CanGrant reports whether actor may assign role to another user. Nobody but the
// platform operator can mint another operator.
func (e *Evaluator) CanGrant(actor tenancy.Context, role roles.Role) bool {
	if !role.Valid() {
		return false
	}
	if actor.IsPlatformOperator() {
		return true
	}
	return role != roles.PlatformOperator && e.Authorize(actor, UsersManage) == nil
}
