package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/authz"
	"github.com/campushub/campushub/internal/club"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/membership"
	"github.com/campushub/campushub/internal/platform/httpx"
	"github.com/campushub/campushub/internal/shared"
)

// ErrPriceRequired is returned when a paid event carries no positive price.
// It wraps the validation sentinel so the HTTP layer renders a 400.
var ErrPriceRequired = fmt.Errorf("event: paid event requires a positive price: %w", httpx.ErrValidation)

// ClubDirectory is the slice of the club store the event workflow needs.
type ClubDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*club.Club, error)
}

// MemberDirectory looks up the actor's own membership row so the policy can
// weigh a club-scoped admin role when the actor is not the club creator.
type MemberDirectory interface {
	Get(ctx context.Context, clubID uuid.UUID, userID int64) (*membership.Membership, error)
}

// Service provides event business logic.
type Service struct {
	clubs    ClubDirectory
	members  MemberDirectory
	repo     Repository
	validate *validator.Validate
}

// NewService constructs an event Service.
func NewService(clubs ClubDirectory, members MemberDirectory, repo Repository) *Service {
	return &Service{clubs: clubs, members: members, repo: repo, validate: validator.New()}
}

// Create adds an event to a club. Authority is the club's creator or an
// approved member holding the club admin role, while the club is APPROVED;
// a platform admin who holds neither is denied like anyone else.
func (s *Service) Create(ctx context.Context, p identity.Principal, clubID uuid.UUID, req CreateEventRequest) (*Event, authz.Decision, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return nil, authz.Allow(), err
	}
	snap := authz.Snapshot{Club: club.Snapshot(c)}
	if c.CreatorID != p.ID {
		m, err := s.members.Get(ctx, clubID, p.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, authz.Allow(), err
		}
		if m != nil {
			snap.Membership = &authz.MembershipRef{
				Club:      *snap.Club,
				UserID:    m.UserID,
				Exists:    true,
				Status:    m.Status,
				AdminRole: m.Role == membership.RoleAdmin,
			}
		}
	}
	decision := authz.Evaluate(p, authz.ActionEventCreate, snap)
	if !decision.Allowed {
		return nil, decision, nil
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, decision, fmt.Errorf("event: validate create: %w", err)
	}
	if err := checkPrice(req.IsFree, req.PriceCents); err != nil {
		return nil, decision, err
	}

	now := time.Now().UTC()
	e := &Event{
		ID:          uuid.New(),
		ClubID:      clubID,
		CreatorID:   p.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		IsFree:      req.IsFree,
		PriceCents:  req.PriceCents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if e.IsFree {
		e.PriceCents = 0
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, decision, err
	}
	return e, decision, nil
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.Get(ctx, id)
}

// ListByClub returns a club's events, subject to the club's visibility.
func (s *Service) ListByClub(ctx context.Context, p identity.Principal, clubID uuid.UUID) ([]Event, authz.Decision, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return nil, authz.Allow(), err
	}
	decision := authz.Evaluate(p, authz.ActionClubView, authz.Snapshot{Club: club.Snapshot(c)})
	if !decision.Allowed {
		return nil, decision, nil
	}
	events, err := s.repo.ListByClub(ctx, clubID)
	return events, decision, err
}

// ListUpcoming returns the public feed of upcoming events.
func (s *Service) ListUpcoming(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListUpcoming(ctx, limit)
}

// Update edits an event, creator only.
func (s *Service) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateEventRequest) (*Event, authz.Decision, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, authz.Allow(), err
	}
	decision := authz.Evaluate(p, authz.ActionEventEdit, authz.Snapshot{Event: s.ref(e)})
	if !decision.Allowed {
		return nil, decision, nil
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, decision, fmt.Errorf("event: validate update: %w", err)
	}

	apply(e, req)
	if !e.EndsAt.After(e.StartsAt) {
		return nil, decision, fmt.Errorf("event: ends_at must be after starts_at: %w", httpx.ErrValidation)
	}
	if err := checkPrice(e.IsFree, e.PriceCents); err != nil {
		return nil, decision, err
	}
	if e.IsFree {
		e.PriceCents = 0
	}
	e.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, decision, err
	}
	return e, decision, nil
}

// Delete removes an event, creator only.
func (s *Service) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) (authz.Decision, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return authz.Allow(), err
	}
	decision := authz.Evaluate(p, authz.ActionEventDelete, authz.Snapshot{Event: s.ref(e)})
	if !decision.Allowed {
		return decision, nil
	}
	return decision, s.repo.Delete(ctx, id)
}

func (s *Service) ref(e *Event) *authz.EventRef {
	return &authz.EventRef{ID: e.ID, CreatorID: e.CreatorID}
}

// checkPrice enforces the pricing invariant: a paid event must cost something.
func checkPrice(isFree bool, priceCents int64) error {
	if !isFree && priceCents <= 0 {
		return ErrPriceRequired
	}
	return nil
}

func apply(e *Event, req UpdateEventRequest) {
	if req.Title != nil {
		e.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		e.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		e.Location = strings.TrimSpace(*req.Location)
	}
	if req.StartsAt != nil {
		e.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		e.EndsAt = *req.EndsAt
	}
	if req.IsFree != nil {
		e.IsFree = *req.IsFree
	}
	if req.PriceCents != nil {
		e.PriceCents = *req.PriceCents
	}
}
