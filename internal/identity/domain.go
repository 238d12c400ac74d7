package identity

import "time"

// Role is the platform-wide role stored on a profile. It is distinct from the
// club-scoped membership role; authorization decisions must name which of the
// two they consult.
type Role string

const (
	RoleStudent       Role = "student"
	RoleStudentLeader Role = "student_leader"
	RoleAdmin         Role = "admin"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleStudentLeader, RoleAdmin:
		return true
	default:
		return false
	}
}

// Rank orders roles for permission comparisons: admin > student_leader > student.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleStudentLeader:
		return 1
	default:
		return 0
	}
}

// Principal is a resolved identity: who is acting and with which platform role.
// Resolved once per request and never cached beyond it.
type Principal struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the principal carries the platform admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Profile is the stored record behind a principal.
type Profile struct {
	UserID    int64
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
