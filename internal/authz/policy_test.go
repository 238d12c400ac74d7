package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/lifecycle"
)

var (
	student = identity.Principal{ID: 1, Role: identity.RoleStudent}
	leader  = identity.Principal{ID: 2, Role: identity.RoleStudentLeader}
	admin   = identity.Principal{ID: 3, Role: identity.RoleAdmin}
)

func approvedClub(creatorID int64) *ClubRef {
	return &ClubRef{ID: uuid.New(), CreatorID: creatorID, Status: lifecycle.ClubApproved}
}

func pendingClub(creatorID int64) *ClubRef {
	return &ClubRef{ID: uuid.New(), CreatorID: creatorID, Status: lifecycle.ClubPending}
}

// TestDecisionTable walks the full (role, action, snapshot) matrix.
func TestDecisionTable(t *testing.T) {
	cases := []struct {
		name      string
		principal identity.Principal
		action    Action
		snap      Snapshot
		allowed   bool
		reason    Reason
	}{
		{"student creates club", student, ActionClubCreate, Snapshot{}, false, ReasonNotStudentLeader},
		{"leader creates club", leader, ActionClubCreate, Snapshot{}, true, ""},
		{"admin creates club", admin, ActionClubCreate, Snapshot{}, true, ""},

		{"student views approved club", student, ActionClubView, Snapshot{Club: approvedClub(2)}, true, ""},
		{"student views pending club", student, ActionClubView, Snapshot{Club: pendingClub(2)}, false, ReasonNotVisible},
		{"student views rejected club", student, ActionClubView, Snapshot{Club: &ClubRef{ID: uuid.New(), CreatorID: 2, Status: lifecycle.ClubRejected}}, false, ReasonNotVisible},
		{"owner views own pending club", leader, ActionClubView, Snapshot{Club: pendingClub(2)}, true, ""},
		{"admin views pending club", admin, ActionClubView, Snapshot{Club: pendingClub(2)}, true, ""},

		{"student approves club", student, ActionClubApprove, Snapshot{Club: pendingClub(2)}, false, ReasonNotAdmin},
		{"leader approves own club", leader, ActionClubApprove, Snapshot{Club: pendingClub(2)}, false, ReasonNotAdmin},
		{"admin approves club", admin, ActionClubApprove, Snapshot{Club: pendingClub(2)}, true, ""},
		{"leader rejects club", leader, ActionClubReject, Snapshot{Club: pendingClub(5)}, false, ReasonNotAdmin},
		{"admin rejects club", admin, ActionClubReject, Snapshot{Club: pendingClub(5)}, true, ""},

		{"creator deletes club", leader, ActionClubDelete, Snapshot{Club: approvedClub(2)}, true, ""},
		{"admin deletes club", admin, ActionClubDelete, Snapshot{Club: approvedClub(2)}, true, ""},
		{"stranger deletes club", student, ActionClubDelete, Snapshot{Club: approvedClub(2)}, false, ReasonNotOwner},

		{"non-owner creates event", student, ActionEventCreate, Snapshot{Club: approvedClub(2)}, false, ReasonNotOwner},
		{"owner creates event", leader, ActionEventCreate, Snapshot{Club: approvedClub(2)}, true, ""},
		{"admin creates event in foreign club", admin, ActionEventCreate, Snapshot{Club: approvedClub(2)}, false, ReasonNotOwner},
		{"owner creates event in pending club", leader, ActionEventCreate, Snapshot{Club: pendingClub(2)}, false, ReasonInvalidState},
		{
			"club admin member creates event", student, ActionEventCreate,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipApproved, AdminRole: true}},
			true, "",
		},
		{
			"plain member creates event", student, ActionEventCreate,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipApproved}},
			false, ReasonNotOwner,
		},
		{
			"pending admin member creates event", student, ActionEventCreate,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipPending, AdminRole: true}},
			false, ReasonNotOwner,
		},

		{"creator edits event", leader, ActionEventEdit, Snapshot{Event: &EventRef{CreatorID: 2}}, true, ""},
		{"stranger edits event", student, ActionEventEdit, Snapshot{Event: &EventRef{CreatorID: 2}}, false, ReasonNotOwner},
		{"creator deletes event", leader, ActionEventDelete, Snapshot{Event: &EventRef{CreatorID: 2}}, true, ""},

		{"student joins approved club", student, ActionMembershipJoin, Snapshot{Club: approvedClub(2)}, true, ""},
		{"leader joins approved club", leader, ActionMembershipJoin, Snapshot{Club: approvedClub(5)}, true, ""},
		{"admin joins approved club", admin, ActionMembershipJoin, Snapshot{Club: approvedClub(2)}, true, ""},
		{"join pending club", student, ActionMembershipJoin, Snapshot{Club: pendingClub(2)}, false, ReasonInvalidState},
		{"creator joins own club", leader, ActionMembershipJoin, Snapshot{Club: approvedClub(2)}, false, ReasonAlreadyExists},
		{
			"join with pending membership", student, ActionMembershipJoin,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipPending}},
			false, ReasonAlreadyExists,
		},
		{
			"rejoin after rejection", student, ActionMembershipJoin,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipRejected}},
			true, "",
		},

		{"stranger approves membership", student, ActionMembershipApprove, Snapshot{Club: approvedClub(2)}, false, ReasonNotOwner},
		{"creator approves membership", leader, ActionMembershipApprove, Snapshot{Club: approvedClub(2)}, true, ""},
		{"admin approves membership anywhere", admin, ActionMembershipApprove, Snapshot{Club: approvedClub(2)}, true, ""},
		{"creator rejects membership", leader, ActionMembershipReject, Snapshot{Club: approvedClub(2)}, true, ""},
		{"creator removes member", leader, ActionMembershipRemove, Snapshot{Club: approvedClub(2)}, true, ""},
		{"non-creator leader removes member", leader, ActionMembershipRemove, Snapshot{Club: approvedClub(9)}, false, ReasonNotOwner},

		{
			"creator promotes approved member", leader, ActionMembershipSetRole,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipApproved}},
			true, "",
		},
		{
			"admin changes role anywhere", admin, ActionMembershipSetRole,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipApproved}},
			true, "",
		},
		{
			"stranger changes role", student, ActionMembershipSetRole,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 5, Exists: true, Status: lifecycle.MembershipApproved}},
			false, ReasonNotOwner,
		},
		{
			"creator promotes pending member", leader, ActionMembershipSetRole,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipPending}},
			false, ReasonInvalidState,
		},
		{
			"creator promotes missing member", leader, ActionMembershipSetRole,
			Snapshot{Club: approvedClub(2), Membership: &MembershipRef{UserID: 1}},
			false, ReasonInvalidState,
		},

		{
			"member leaves club", student, ActionMembershipLeave,
			Snapshot{Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipApproved}},
			true, "",
		},
		{
			"leave someone else's membership", leader, ActionMembershipLeave,
			Snapshot{Membership: &MembershipRef{UserID: 1, Exists: true, Status: lifecycle.MembershipApproved}},
			false, ReasonNotOwner,
		},

		{"student files flag", student, ActionFlagFile, Snapshot{}, true, ""},
		{"leader files flag", leader, ActionFlagFile, Snapshot{}, true, ""},
		{"admin files flag", admin, ActionFlagFile, Snapshot{}, true, ""},
		{
			"duplicate flag", student, ActionFlagFile,
			Snapshot{Flag: &FlagRef{ReporterID: 1, Exists: true, Status: lifecycle.FlagPending}},
			false, ReasonAlreadyExists,
		},

		{
			"target owner transitions flag", leader, ActionFlagTransition,
			Snapshot{Flag: &FlagRef{ReporterID: 1, TargetOwnerID: 2, Exists: true, Status: lifecycle.FlagPending}},
			true, "",
		},
		{
			"admin transitions any flag", admin, ActionFlagTransition,
			Snapshot{Flag: &FlagRef{ReporterID: 1, TargetOwnerID: 2, Exists: true, Status: lifecycle.FlagPending}},
			true, "",
		},
		{
			"reporter transitions own flag", student, ActionFlagTransition,
			Snapshot{Flag: &FlagRef{ReporterID: 1, TargetOwnerID: 2, Exists: true, Status: lifecycle.FlagPending}},
			false, ReasonNotOwner,
		},

		{
			"reporter deletes pending flag", student, ActionFlagDelete,
			Snapshot{Flag: &FlagRef{ReporterID: 1, TargetOwnerID: 2, Exists: true, Status: lifecycle.FlagPending}},
			true, "",
		},
		{
			"reporter deletes reviewed flag", student, ActionFlagDelete,
			Snapshot{Flag: &FlagRef{ReporterID: 1, TargetOwnerID: 2, Exists: true, Status: lifecycle.FlagReviewed}},
			false, ReasonInvalidState,
		},
		{
			"stranger deletes flag", leader, ActionFlagDelete,
			Snapshot{Flag: &FlagRef{ReporterID: 1, TargetOwnerID: 5, Exists: true, Status: lifecycle.FlagPending}},
			false, ReasonNotOwner,
		},

		{"student views logs", student, ActionLogsView, Snapshot{}, false, ReasonNotAdmin},
		{"leader views logs", leader, ActionLogsView, Snapshot{}, false, ReasonNotAdmin},
		{"admin views logs", admin, ActionLogsView, Snapshot{}, true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := Evaluate(tc.principal, tc.action, tc.snap)
			assert.Equal(t, tc.allowed, decision.Allowed)
			if !tc.allowed {
				assert.Equal(t, tc.reason, decision.Reason)
			}
		})
	}
}

// TestMembershipDecisionIgnoresMembershipRows pins the invariant that broke
// the predecessor system: authority over membership actions is derived from
// the parent club only, so the decision is identical whether membership rows
// are visible or not.
func TestMembershipDecisionIgnoresMembershipRows(t *testing.T) {
	club := approvedClub(leader.ID)

	withRows := Snapshot{
		Club:       club,
		Membership: &MembershipRef{Club: *club, UserID: 1, Exists: true, Status: lifecycle.MembershipPending},
	}
	withoutRows := Snapshot{Club: club}

	for _, action := range []Action{ActionMembershipApprove, ActionMembershipReject, ActionMembershipRemove} {
		assert.Equal(t, Evaluate(leader, action, withoutRows), Evaluate(leader, action, withRows), string(action))
		assert.Equal(t, Evaluate(student, action, withoutRows), Evaluate(student, action, withRows), string(action))
		assert.Equal(t, Evaluate(admin, action, withoutRows), Evaluate(admin, action, withRows), string(action))
	}
}

// TestNonOwnerModeration covers scenario: a non-owner, non-admin user can
// neither decide a club nor move a flag they do not own.
func TestNonOwnerModeration(t *testing.T) {
	outsider := identity.Principal{ID: 77, Role: identity.RoleStudentLeader}
	flag := &FlagRef{ReporterID: 1, TargetOwnerID: 2, Exists: true, Status: lifecycle.FlagPending}

	assert.Equal(t, ReasonNotAdmin, Evaluate(outsider, ActionClubApprove, Snapshot{Club: pendingClub(2)}).Reason)
	assert.Equal(t, ReasonNotAdmin, Evaluate(outsider, ActionClubReject, Snapshot{Club: pendingClub(2)}).Reason)
	assert.Equal(t, ReasonNotOwner, Evaluate(outsider, ActionFlagTransition, Snapshot{Flag: flag}).Reason)
}

func TestUnknownActionDenies(t *testing.T) {
	decision := Evaluate(admin, Action("club.export"), Snapshot{})
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInvalidState, decision.Reason)
}
