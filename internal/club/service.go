package club

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/campushub/campushub/internal/authz"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/lifecycle"
	"github.com/campushub/campushub/internal/moderation"
	"github.com/campushub/campushub/internal/shared"
)

// Notifier delivers decision notifications out of band.
type Notifier interface {
	ClubDecision(ctx context.Context, c *Club)
}

// Service provides club business logic on top of the authorization policy
// and approval state machine.
type Service struct {
	repo          Repository
	modlog        moderation.Log
	notifier      Notifier
	countConflict func()
	validate      *validator.Validate
	folder        cases.Caser
}

// Option customises a Service.
type Option func(*Service)

// WithNotifier wires decision notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithConflictCounter installs a hook fired whenever a conditional update
// loses to a concurrent writer.
func WithConflictCounter(count func()) Option {
	return func(s *Service) {
		if count != nil {
			s.countConflict = count
		}
	}
}

// NewService constructs a club Service.
func NewService(repo Repository, modlog moderation.Log, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		modlog:        modlog,
		countConflict: func() {},
		validate:      validator.New(),
		folder:        cases.Fold(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NameKey returns the case-folded form backing the club name uniqueness
// constraint, so "Chess Club" and "chess club" collide.
func (s *Service) NameKey(name string) string {
	return s.folder.String(strings.TrimSpace(name))
}

// Create registers a new club. A student_leader's club starts PENDING; an
// admin's club is auto-approved at creation time.
func (s *Service) Create(ctx context.Context, p identity.Principal, req CreateClubRequest) (*Club, authz.Decision, error) {
	decision := authz.Evaluate(p, authz.ActionClubCreate, authz.Snapshot{})
	if !decision.Allowed {
		return nil, decision, nil
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, decision, fmt.Errorf("club: validate create: %w", err)
	}

	now := time.Now().UTC()
	c := &Club{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CreatorID:   p.ID,
		Status:      lifecycle.ClubPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.IsAdmin() {
		c.Status = lifecycle.ClubApproved
		c.ApprovedBy = &p.ID
		c.ApprovedAt = &now
	}

	if err := s.repo.Create(ctx, c, s.NameKey(c.Name)); err != nil {
		return nil, decision, err
	}
	return c, decision, nil
}

// Get returns a club subject to visibility rules: approved clubs are public,
// pending/rejected ones are visible to the owner and admins only.
func (s *Service) Get(ctx context.Context, p identity.Principal, id uuid.UUID) (*Club, authz.Decision, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, authz.Allow(), err
	}
	decision := authz.Evaluate(p, authz.ActionClubView, authz.Snapshot{Club: s.ref(c)})
	if !decision.Allowed {
		return nil, decision, nil
	}
	return c, decision, nil
}

// List returns the clubs the principal may see.
func (s *Service) List(ctx context.Context, p identity.Principal) ([]Club, error) {
	if p.IsAdmin() {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListApprovedOrOwn(ctx, p.ID)
}

// Approve moves a club to APPROVED, admin only. Works from PENDING and from
// REJECTED (re-approval).
func (s *Service) Approve(ctx context.Context, p identity.Principal, id uuid.UUID) (*Club, authz.Decision, error) {
	return s.decide(ctx, p, id, lifecycle.ClubApproved, nil)
}

// Reject moves a PENDING club to REJECTED with a mandatory reason, admin only.
func (s *Service) Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req RejectClubRequest) (*Club, authz.Decision, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, authz.Allow(), fmt.Errorf("club: validate reject: %w", err)
	}
	reason := strings.TrimSpace(req.Reason)
	return s.decide(ctx, p, id, lifecycle.ClubRejected, &reason)
}

func (s *Service) decide(ctx context.Context, p identity.Principal, id uuid.UUID, to lifecycle.ClubStatus, reason *string) (*Club, authz.Decision, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, authz.Allow(), err
	}

	action := authz.ActionClubApprove
	if to == lifecycle.ClubRejected {
		action = authz.ActionClubReject
	}
	decision := authz.Evaluate(p, action, authz.Snapshot{Club: s.ref(c)})
	if !decision.Allowed {
		return nil, decision, nil
	}

	if err := lifecycle.ClubTransition(c.Status, to); err != nil {
		return nil, decision, err
	}

	if err := s.repo.UpdateStatus(ctx, id, c.Status, to, p.ID, reason); err != nil {
		if errors.Is(err, shared.ErrStorageConflict) {
			s.countConflict()
			// Lost the race: re-read and report whether the transition is
			// still meaningful so the caller can re-decide.
			fresh, ferr := s.repo.Get(ctx, id)
			if ferr != nil {
				return nil, decision, ferr
			}
			if terr := lifecycle.ClubTransition(fresh.Status, to); terr != nil {
				return nil, decision, terr
			}
		}
		return nil, decision, err
	}

	s.modlog.Record(ctx, moderation.Entry{
		ActorID:  p.ID,
		Action:   logAction(to),
		Entity:   moderation.EntityClub,
		EntityID: id,
		Details:  logDetails(c.Name, reason),
	})

	updated, err := s.repo.Get(ctx, id)
	if err == nil && s.notifier != nil {
		s.notifier.ClubDecision(ctx, updated)
	}
	return updated, decision, err
}

// Delete removes a club; allowed for the creator and platform admins.
// Memberships, events and flags cascade at the storage layer.
func (s *Service) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) (authz.Decision, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return authz.Allow(), err
	}
	decision := authz.Evaluate(p, authz.ActionClubDelete, authz.Snapshot{Club: s.ref(c)})
	if !decision.Allowed {
		return decision, nil
	}
	return decision, s.repo.Delete(ctx, id)
}

// Ref builds the policy snapshot for a club; shared with the membership and
// event services so ownership always resolves through the same club record.
func (s *Service) ref(c *Club) *authz.ClubRef {
	return &authz.ClubRef{ID: c.ID, CreatorID: c.CreatorID, Status: c.Status}
}

// Snapshot exposes the policy view of a club for sibling services.
func Snapshot(c *Club) *authz.ClubRef {
	return &authz.ClubRef{ID: c.ID, CreatorID: c.CreatorID, Status: c.Status}
}

func logAction(to lifecycle.ClubStatus) moderation.Action {
	if to == lifecycle.ClubRejected {
		return moderation.ActionClubRejected
	}
	return moderation.ActionClubApproved
}

func logDetails(name string, reason *string) map[string]any {
	details := map[string]any{"name": name}
	if reason != nil {
		details["reason"] = *reason
	}
	return details
}
