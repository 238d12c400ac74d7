// Package authz decides who may do what to clubs, events, memberships and
// flags. Evaluate is a pure function over entity snapshots: it performs no
// I/O, so a decision can never recurse into the store it is guarding.
package authz

import (
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/lifecycle"
)

// Evaluate applies the platform decision table to one (principal, action,
// snapshot) triple. Missing snapshot pieces for an action that needs them
// deny with INVALID_STATE rather than guessing.
func Evaluate(p identity.Principal, action Action, snap Snapshot) Decision {
	switch action {
	case ActionClubCreate:
		if p.Role == identity.RoleAdmin || p.Role == identity.RoleStudentLeader {
			return Allow()
		}
		return Deny(ReasonNotStudentLeader)

	case ActionClubView:
		if snap.Club == nil {
			return Deny(ReasonNotVisible)
		}
		if p.IsAdmin() || snap.Club.CreatorID == p.ID {
			return Allow()
		}
		if snap.Club.Status == lifecycle.ClubApproved {
			return Allow()
		}
		return Deny(ReasonNotVisible)

	case ActionClubApprove, ActionClubReject:
		if !p.IsAdmin() {
			return Deny(ReasonNotAdmin)
		}
		return Allow()

	case ActionClubDelete:
		if snap.Club == nil {
			return Deny(ReasonInvalidState)
		}
		if p.IsAdmin() || snap.Club.CreatorID == p.ID {
			return Allow()
		}
		return Deny(ReasonNotOwner)

	case ActionEventCreate:
		// Authority over the parent club is what counts here: its creator,
		// or a member holding the club-scoped admin role. The platform role
		// does not grant event creation by itself.
		if snap.Club == nil {
			return Deny(ReasonInvalidState)
		}
		if snap.Club.CreatorID != p.ID && !clubAdminMember(p, snap.Membership) {
			return Deny(ReasonNotOwner)
		}
		if snap.Club.Status != lifecycle.ClubApproved {
			return Deny(ReasonInvalidState)
		}
		return Allow()

	case ActionEventEdit, ActionEventDelete:
		if snap.Event == nil {
			return Deny(ReasonInvalidState)
		}
		if snap.Event.CreatorID == p.ID {
			return Allow()
		}
		return Deny(ReasonNotOwner)

	case ActionMembershipJoin:
		if snap.Club == nil {
			return Deny(ReasonInvalidState)
		}
		if snap.Club.Status != lifecycle.ClubApproved {
			return Deny(ReasonInvalidState)
		}
		// The creator holds an implicit admin membership over their club.
		if snap.Club.CreatorID == p.ID {
			return Deny(ReasonAlreadyExists)
		}
		if snap.Membership != nil && snap.Membership.Exists &&
			snap.Membership.Status != lifecycle.MembershipRejected {
			return Deny(ReasonAlreadyExists)
		}
		return Allow()

	case ActionMembershipApprove, ActionMembershipReject, ActionMembershipRemove:
		// Authority comes from the parent club record, never from reading
		// the membership table being acted on.
		if snap.Club == nil {
			return Deny(ReasonInvalidState)
		}
		if p.IsAdmin() || snap.Club.CreatorID == p.ID {
			return Allow()
		}
		return Deny(ReasonNotOwner)

	case ActionMembershipSetRole:
		// Same authority as approve/reject: the parent club record decides.
		// The target row in the snapshot belongs to the member being changed,
		// not to the actor, so this stays outside the rows it governs.
		if snap.Club == nil {
			return Deny(ReasonInvalidState)
		}
		if !p.IsAdmin() && snap.Club.CreatorID != p.ID {
			return Deny(ReasonNotOwner)
		}
		if snap.Membership == nil || !snap.Membership.Exists {
			return Deny(ReasonInvalidState)
		}
		if snap.Membership.Status != lifecycle.MembershipApproved {
			return Deny(ReasonInvalidState)
		}
		return Allow()

	case ActionMembershipLeave:
		if snap.Membership == nil || !snap.Membership.Exists {
			return Deny(ReasonInvalidState)
		}
		if snap.Membership.UserID == p.ID {
			return Allow()
		}
		return Deny(ReasonNotOwner)

	case ActionFlagFile:
		if snap.Flag != nil && snap.Flag.Exists {
			return Deny(ReasonAlreadyExists)
		}
		return Allow()

	case ActionFlagTransition:
		if snap.Flag == nil || !snap.Flag.Exists {
			return Deny(ReasonInvalidState)
		}
		if p.IsAdmin() || snap.Flag.TargetOwnerID == p.ID {
			return Allow()
		}
		return Deny(ReasonNotOwner)

	case ActionFlagDelete:
		if snap.Flag == nil || !snap.Flag.Exists {
			return Deny(ReasonInvalidState)
		}
		if snap.Flag.ReporterID != p.ID {
			return Deny(ReasonNotOwner)
		}
		if !snap.Flag.Status.CanDelete() {
			return Deny(ReasonInvalidState)
		}
		return Allow()

	case ActionLogsView:
		if !p.IsAdmin() {
			return Deny(ReasonNotAdmin)
		}
		return Allow()
	}

	return Deny(ReasonInvalidState)
}

// clubAdminMember reports whether m is the principal's own approved
// membership carrying the club-scoped admin role.
func clubAdminMember(p identity.Principal, m *MembershipRef) bool {
	return m != nil && m.Exists && m.UserID == p.ID &&
		m.Status == lifecycle.MembershipApproved && m.AdminRole
}
