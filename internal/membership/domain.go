// Package membership manages club join requests and member rosters.
package membership

import (
	"time"

	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/lifecycle"
)

// Role is a club-scoped role. It is distinct from the platform role: holding
// admin here grants owner-level authority over this club's content (event
// creation), nothing outside it. Member moderation still derives from the
// parent club record alone, so the policy layer never reads these rows when
// deciding on the rows themselves.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is a known club role.
func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleAdmin
}

// Membership is one (club, user) row. The pair is unique; a rejected row is
// reused on re-request instead of inserting a second one.
type Membership struct {
	ClubID    uuid.UUID                  `json:"club_id"`
	UserID    int64                      `json:"user_id"`
	Role      Role                       `json:"role"`
	Status    lifecycle.MembershipStatus `json:"status"`
	DecidedBy *int64                     `json:"decided_by,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}
