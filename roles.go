package hostel

// Role classifies what a profile is allowed to do.
type Role = string

const (
	// RoleGuest can view their own stay information.
	RoleGuest Role = "guest"
	// RoleStaff runs the front desk: rooms, check-ins, guest directory.
	RoleStaff Role = "staff"
	// RoleAdmin additionally manages users and roles.
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r Role) bool {
	switch r {
	case RoleGuest, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role, reporting validity.
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, IsValidRole(role)
}

// NormalizeRole maps any unknown or absent role to guest. Every read of a
// role goes through this so a missing role never widens access.
func NormalizeRole(r Role) Role {
	if role, ok := ParseRole(r); ok {
		return role
	}
	return RoleGuest
}

// RoleIsAtLeast checks if role meets the minimum required level.
func RoleIsAtLeast(r, minRole Role) bool {
	roleHierarchy := map[Role]int{
		RoleGuest: 0,
		RoleStaff: 1,
		RoleAdmin: 2,
	}

	currentLevel, ok := roleHierarchy[NormalizeRole(r)]
	if !ok {
		return false
	}

	minLevel, ok := roleHierarchy[minRole]
	if !ok {
		return false
	}

	return currentLevel >= minLevel
}

// AllRoles returns the predefined roles in hierarchical order.
func AllRoles() []Role {
	return []Role{RoleGuest, RoleStaff, RoleAdmin}
}
