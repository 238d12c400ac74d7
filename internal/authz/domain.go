package authz

import (
	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/lifecycle"
)

// Action enumerates everything a principal can ask the platform to do.
type Action string

const (
	ActionClubCreate  Action = "club.create"
	ActionClubView    Action = "club.view"
	ActionClubApprove Action = "club.approve"
	ActionClubReject  Action = "club.reject"
	ActionClubDelete  Action = "club.delete"

	ActionEventCreate Action = "event.create"
	ActionEventEdit   Action = "event.edit"
	ActionEventDelete Action = "event.delete"

	ActionMembershipJoin    Action = "membership.join"
	ActionMembershipApprove Action = "membership.approve"
	ActionMembershipReject  Action = "membership.reject"
	ActionMembershipRemove  Action = "membership.remove"
	ActionMembershipLeave   Action = "membership.leave"
	ActionMembershipSetRole Action = "membership.set_role"

	ActionFlagFile       Action = "flag.file"
	ActionFlagTransition Action = "flag.transition"
	ActionFlagDelete     Action = "flag.delete"

	ActionLogsView Action = "logs.view"
)

// Reason is a stable deny code for caller-side error mapping.
type Reason string

const (
	ReasonNotOwner         Reason = "NOT_OWNER"
	ReasonNotAdmin         Reason = "NOT_ADMIN"
	ReasonNotStudentLeader Reason = "NOT_STUDENT_LEADER"
	ReasonAlreadyExists    Reason = "ALREADY_EXISTS"
	ReasonInvalidState     Reason = "INVALID_STATE"
	// ReasonNotVisible denies reads of entities the principal may not see.
	// Handlers map it to 404 so unapproved entities do not leak existence.
	ReasonNotVisible Reason = "NOT_VISIBLE"
)

// Decision is the outcome of a permission check. A deny is a normal value,
// never an error.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns a permitting decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a refusing decision carrying a stable reason code.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// ClubRef is the club snapshot the policy consults. Moderation authority over
// membership rows is resolved through CreatorID here, never through the
// roster itself: a check must not read the rows it is authorizing access to.
type ClubRef struct {
	ID        uuid.UUID
	CreatorID int64
	Status    lifecycle.ClubStatus
}

// EventRef is the event snapshot, carrying its parent club.
type EventRef struct {
	ID        uuid.UUID
	CreatorID int64
	Club      ClubRef
}

// MembershipRef describes the membership row under decision. Exists reports
// whether a row is present for (club, user); Status and AdminRole are
// meaningful only then. AdminRole mirrors the club-scoped role column: an
// approved admin member holds the same authority over the club's content as
// its creator.
type MembershipRef struct {
	Club      ClubRef
	UserID    int64
	Exists    bool
	Status    lifecycle.MembershipStatus
	AdminRole bool
}

// FlagRef describes a flag. TargetOwnerID is the creator of the flagged club
// or event; only that owner or a platform admin may move the flag.
type FlagRef struct {
	ID            uuid.UUID
	ReporterID    int64
	TargetOwnerID int64
	Status        lifecycle.FlagStatus
	Exists        bool
}

// Snapshot bundles the entity views relevant to one decision. Only the
// fields an action needs have to be populated.
type Snapshot struct {
	Club       *ClubRef
	Event      *EventRef
	Membership *MembershipRef
	Flag       *FlagRef
}
