package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can review attendance reports
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// CanViewReports reports whether the role may read company-wide reports.
func (r Role) CanViewReports() bool {
	return r == RoleManager || r == RoleOwner
}
