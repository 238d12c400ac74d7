package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/authz"
	"github.com/campushub/campushub/internal/club"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/lifecycle"
	"github.com/campushub/campushub/internal/shared"
)

// ClubDirectory is the slice of the club store the membership workflow needs:
// the parent record, whose CreatorID is the moderation authority.
type ClubDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*club.Club, error)
}

// Service provides membership business logic.
type Service struct {
	clubs         ClubDirectory
	repo          Repository
	countConflict func()
}

// Option customizes a Service.
type Option func(*Service)

// WithConflictCounter installs a hook fired whenever a conditional update
// loses to a concurrent writer.
func WithConflictCounter(count func()) Option {
	return func(s *Service) {
		if count != nil {
			s.countConflict = count
		}
	}
}

// NewService constructs a membership Service.
func NewService(clubs ClubDirectory, repo Repository, opts ...Option) *Service {
	s := &Service{clubs: clubs, repo: repo, countConflict: func() {}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Join files a join request against an approved club. A fresh request starts
// PENDING; if the caller holds a REJECTED row it is reset to PENDING instead
// of inserting a duplicate.
func (s *Service) Join(ctx context.Context, p identity.Principal, clubID uuid.UUID) (*Membership, authz.Decision, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return nil, authz.Allow(), err
	}

	existing, err := s.repo.Get(ctx, clubID, p.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, authz.Allow(), err
	}

	snap := authz.Snapshot{Club: club.Snapshot(c)}
	if existing != nil {
		snap.Membership = &authz.MembershipRef{
			Club:   *snap.Club,
			UserID: p.ID,
			Exists: true,
			Status: existing.Status,
		}
	}
	decision := authz.Evaluate(p, authz.ActionMembershipJoin, snap)
	if !decision.Allowed {
		return nil, decision, nil
	}

	if existing != nil {
		// Only a REJECTED row passes the policy above; reset it.
		if err := s.repo.Rerequest(ctx, clubID, p.ID); err != nil {
			if errors.Is(err, shared.ErrStorageConflict) {
				s.countConflict()
			}
			return nil, decision, err
		}
		reset, err := s.repo.Get(ctx, clubID, p.ID)
		return reset, decision, err
	}

	now := time.Now().UTC()
	m := &Membership{
		ClubID:    clubID,
		UserID:    p.ID,
		Role:      RoleMember,
		Status:    lifecycle.MembershipPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, decision, err
	}
	return m, decision, nil
}

// Approve grants a pending join request. Authority is the parent club's
// creator or a platform admin.
func (s *Service) Approve(ctx context.Context, p identity.Principal, clubID uuid.UUID, userID int64) (*Membership, authz.Decision, error) {
	return s.decide(ctx, p, clubID, userID, lifecycle.MembershipApproved)
}

// Reject refuses a pending join request. The row stays, so the requester can
// re-request later.
func (s *Service) Reject(ctx context.Context, p identity.Principal, clubID uuid.UUID, userID int64) (*Membership, authz.Decision, error) {
	return s.decide(ctx, p, clubID, userID, lifecycle.MembershipRejected)
}

func (s *Service) decide(ctx context.Context, p identity.Principal, clubID uuid.UUID, userID int64, to lifecycle.MembershipStatus) (*Membership, authz.Decision, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return nil, authz.Allow(), err
	}

	action := authz.ActionMembershipApprove
	if to == lifecycle.MembershipRejected {
		action = authz.ActionMembershipReject
	}
	decision := authz.Evaluate(p, action, authz.Snapshot{Club: club.Snapshot(c)})
	if !decision.Allowed {
		return nil, decision, nil
	}

	m, err := s.repo.Get(ctx, clubID, userID)
	if err != nil {
		return nil, decision, err
	}
	if err := lifecycle.MembershipTransition(m.Status, to); err != nil {
		return nil, decision, err
	}

	if err := s.repo.UpdateStatus(ctx, clubID, userID, m.Status, to, p.ID); err != nil {
		if errors.Is(err, shared.ErrStorageConflict) {
			s.countConflict()
			fresh, ferr := s.repo.Get(ctx, clubID, userID)
			if ferr != nil {
				return nil, decision, ferr
			}
			if terr := lifecycle.MembershipTransition(fresh.Status, to); terr != nil {
				return nil, decision, terr
			}
		}
		return nil, decision, err
	}

	updated, err := s.repo.Get(ctx, clubID, userID)
	return updated, decision, err
}

// SetRole changes a member's club-scoped role. Only the club creator or a
// platform admin may change roles, only on approved rows, and never on the
// creator's own implicit admin row.
func (s *Service) SetRole(ctx context.Context, p identity.Principal, clubID uuid.UUID, userID int64, role Role) (*Membership, authz.Decision, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return nil, authz.Allow(), err
	}
	if userID == c.CreatorID {
		return nil, authz.Deny(authz.ReasonInvalidState), nil
	}

	m, err := s.repo.Get(ctx, clubID, userID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, authz.Allow(), err
	}

	snap := authz.Snapshot{
		Club:       club.Snapshot(c),
		Membership: &authz.MembershipRef{Club: *club.Snapshot(c), UserID: userID},
	}
	if m != nil {
		snap.Membership.Exists = true
		snap.Membership.Status = m.Status
		snap.Membership.AdminRole = m.Role == RoleAdmin
	}
	decision := authz.Evaluate(p, authz.ActionMembershipSetRole, snap)
	if !decision.Allowed {
		return nil, decision, nil
	}

	if err := s.repo.UpdateRole(ctx, clubID, userID, role); err != nil {
		if errors.Is(err, shared.ErrStorageConflict) {
			s.countConflict()
			// Approved when evaluated, but re-decided or removed before the
			// update landed.
			return nil, decision, fmt.Errorf("membership: role change lost to a concurrent decision: %w", shared.ErrInvalidTransition)
		}
		return nil, decision, err
	}
	updated, err := s.repo.Get(ctx, clubID, userID)
	return updated, decision, err
}

// Leave removes the caller's own membership row. The club creator cannot
// leave their own club; its implicit admin row anchors ownership.
func (s *Service) Leave(ctx context.Context, p identity.Principal, clubID uuid.UUID) (authz.Decision, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return authz.Allow(), err
	}
	if c.CreatorID == p.ID {
		return authz.Deny(authz.ReasonInvalidState), nil
	}

	m, err := s.repo.Get(ctx, clubID, p.ID)
	if err != nil {
		return authz.Allow(), err
	}
	decision := authz.Evaluate(p, authz.ActionMembershipLeave, authz.Snapshot{
		Club: club.Snapshot(c),
		Membership: &authz.MembershipRef{
			Club:   *club.Snapshot(c),
			UserID: m.UserID,
			Exists: true,
			Status: m.Status,
		},
	})
	if !decision.Allowed {
		return decision, nil
	}
	return decision, s.repo.Delete(ctx, clubID, p.ID)
}

// Remove evicts a member, club creator or platform admin only. The creator's
// own row is not removable.
func (s *Service) Remove(ctx context.Context, p identity.Principal, clubID uuid.UUID, userID int64) (authz.Decision, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return authz.Allow(), err
	}
	decision := authz.Evaluate(p, authz.ActionMembershipRemove, authz.Snapshot{Club: club.Snapshot(c)})
	if !decision.Allowed {
		return decision, nil
	}
	if userID == c.CreatorID {
		return authz.Deny(authz.ReasonInvalidState), nil
	}
	return decision, s.repo.Delete(ctx, clubID, userID)
}

// List returns the membership rows the principal may see: the creator and
// platform admins get the full table including pending requests, everyone
// else the approved roster of an approved club.
func (s *Service) List(ctx context.Context, p identity.Principal, clubID uuid.UUID) ([]Membership, authz.Decision, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return nil, authz.Allow(), err
	}
	if p.IsAdmin() || c.CreatorID == p.ID {
		rows, err := s.repo.ListByClub(ctx, clubID)
		return rows, authz.Allow(), err
	}
	decision := authz.Evaluate(p, authz.ActionClubView, authz.Snapshot{Club: club.Snapshot(c)})
	if !decision.Allowed {
		return nil, decision, nil
	}
	rows, err := s.repo.ListApprovedByClub(ctx, clubID)
	return rows, decision, err
}
