// Package lifecycle defines the legal state graphs for clubs, memberships and
// flags. Transition checks are pure: callers apply the resulting state with a
// conditional update so concurrent actors resolve to one winner.
package lifecycle

import (
	"fmt"

	"github.com/campushub/campushub/internal/shared"
)

// ClubStatus represents the approval lifecycle of a club.
type ClubStatus string

const (
	ClubPending  ClubStatus = "PENDING"
	ClubApproved ClubStatus = "APPROVED"
	ClubRejected ClubStatus = "REJECTED"
)

// IsValid checks if the status is valid.
func (s ClubStatus) IsValid() bool {
	switch s {
	case ClubPending, ClubApproved, ClubRejected:
		return true
	default:
		return false
	}
}

// clubGraph lists the admin-driven transitions. APPROVED has no way out;
// REJECTED is re-enterable into APPROVED (admin re-approval only, students
// cannot resubmit a rejected club).
var clubGraph = map[ClubStatus][]ClubStatus{
	ClubPending:  {ClubApproved, ClubRejected},
	ClubRejected: {ClubApproved},
}

// ClubTransition validates a club status change.
func ClubTransition(from, to ClubStatus) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("lifecycle: unknown club status %q -> %q: %w", from, to, shared.ErrInvalidTransition)
	}
	for _, next := range clubGraph[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("lifecycle: club %s -> %s: %w", from, to, shared.ErrInvalidTransition)
}

// MembershipStatus represents the join-request lifecycle of a club membership.
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "PENDING"
	MembershipApproved MembershipStatus = "APPROVED"
	MembershipRejected MembershipStatus = "REJECTED"
)

// IsValid checks if the status is valid.
func (s MembershipStatus) IsValid() bool {
	switch s {
	case MembershipPending, MembershipApproved, MembershipRejected:
		return true
	default:
		return false
	}
}

// membershipGraph allows the creator to decide pending requests and a rejected
// member to re-request, which resets the row to PENDING. Approved rows leave
// the table by deletion (self-leave or removal), not by transition.
var membershipGraph = map[MembershipStatus][]MembershipStatus{
	MembershipPending:  {MembershipApproved, MembershipRejected},
	MembershipRejected: {MembershipPending},
}

// MembershipTransition validates a membership status change.
func MembershipTransition(from, to MembershipStatus) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("lifecycle: unknown membership status %q -> %q: %w", from, to, shared.ErrInvalidTransition)
	}
	for _, next := range membershipGraph[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("lifecycle: membership %s -> %s: %w", from, to, shared.ErrInvalidTransition)
}

// FlagStatus represents the moderation lifecycle of a content flag.
type FlagStatus string

const (
	FlagPending   FlagStatus = "PENDING"
	FlagReviewed  FlagStatus = "REVIEWED"
	FlagResolved  FlagStatus = "RESOLVED"
	FlagDismissed FlagStatus = "DISMISSED"
)

// IsValid checks if the status is valid.
func (s FlagStatus) IsValid() bool {
	switch s {
	case FlagPending, FlagReviewed, FlagResolved, FlagDismissed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions exist.
func (s FlagStatus) IsTerminal() bool {
	return s == FlagResolved || s == FlagDismissed
}

// CanDelete reports whether the reporter may still withdraw the flag.
func (s FlagStatus) CanDelete() bool {
	return s == FlagPending
}

var flagGraph = map[FlagStatus][]FlagStatus{
	FlagPending:  {FlagReviewed, FlagResolved, FlagDismissed},
	FlagReviewed: {FlagResolved, FlagDismissed},
}

// FlagTransition validates a flag status change. Re-applying an already
// applied transition fails: dismissing a dismissed flag is not idempotent
// success, the caller must re-check current state first.
func FlagTransition(from, to FlagStatus) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("lifecycle: unknown flag status %q -> %q: %w", from, to, shared.ErrInvalidTransition)
	}
	for _, next := range flagGraph[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("lifecycle: flag %s -> %s: %w", from, to, shared.ErrInvalidTransition)
}
