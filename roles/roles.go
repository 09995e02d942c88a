package roles

// Role is the single role a user holds inside their organization.
type Role string

const (
	PlatformOperator Role = "platform_operator" // Bypasses tenant scoping across all organizations
	OrgAdmin         Role = "org_admin"         // Manages seats, features and users of one organization
	Manager          Role = "manager"
	Employee         Role = "employee"
)

var all = []Role{PlatformOperator, OrgAdmin, Manager, Employee}

// All returns every known role.
func All() []Role {
	out := make([]Role, len(all))
	copy(out, all)
	return out
}

func (r Role) Valid() bool {
	for _, known := range all {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
