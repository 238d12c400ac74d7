package flag

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
	"github.com/campushub/campushub/internal/event"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/lifecycle"
	"github.com/campushub/campushub/internal/moderation"
	"github.com/campushub/campushub/internal/shared"
)

// ClubDirectory resolves flagged clubs.
type ClubDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*club.Club, error)
}

// EventDirectory resolves flagged events.
type EventDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*event.Event, error)
}

// Service provides flag business logic.
type Service struct {
	clubs         ClubDirectory
	events        EventDirectory
	repo          Repository
	modlog        moderation.Log
	countConflict func()
	validate      *validator.Validate
}

// Option customises a Service.
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

// NewService constructs a flag Service.
func NewService(clubs ClubDirectory, events EventDirectory, repo Repository, modlog moderation.Log, opts ...Option) *Service {
	s := &Service{
		clubs:         clubs,
		events:        events,
		repo:          repo,
		modlog:        modlog,
		countConflict: func() {},
		validate:      validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// File reports a club or event. One flag per (target, reporter); a repeat
// report is refused.
func (s *Service) File(ctx context.Context, p identity.Principal, targetType TargetType, targetID uuid.UUID, req FileFlagRequest) (*Flag, authz.Decision, error) {
	if !targetType.IsValid() {
		return nil, authz.Allow(), fmt.Errorf("flag: unknown target type %q: %w", targetType, shared.ErrNotFound)
	}
	if _, err := s.targetOwner(ctx, targetType, targetID); err != nil {
		return nil, authz.Allow(), err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, authz.Allow(), fmt.Errorf("flag: validate file: %w", err)
	}

	snap := authz.Snapshot{}
	existing, err := s.repo.GetByTargetAndReporter(ctx, targetType, targetID, p.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, authz.Allow(), err
	}
	if existing != nil {
		snap.Flag = &authz.FlagRef{ID: existing.ID, ReporterID: existing.ReporterID, Status: existing.Status, Exists: true}
	}
	decision := authz.Evaluate(p, authz.ActionFlagFile, snap)
	if !decision.Allowed {
		return nil, decision, nil
	}

	now := time.Now().UTC()
	f := &Flag{
		ID:         uuid.New(),
		TargetType: targetType,
		TargetID:   targetID,
		ReporterID: p.ID,
		Reason:     strings.TrimSpace(req.Reason),
		Status:     lifecycle.FlagPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, decision, err
	}
	return f, decision, nil
}

// Review marks a flag as under review.
func (s *Service) Review(ctx context.Context, p identity.Principal, id uuid.UUID, req TransitionFlagRequest) (*Flag, authz.Decision, error) {
	return s.transition(ctx, p, id, lifecycle.FlagReviewed, req)
}

// Resolve closes a flag as actioned.
func (s *Service) Resolve(ctx context.Context, p identity.Principal, id uuid.UUID, req TransitionFlagRequest) (*Flag, authz.Decision, error) {
	return s.transition(ctx, p, id, lifecycle.FlagResolved, req)
}

// Dismiss closes a flag as unfounded.
func (s *Service) Dismiss(ctx context.Context, p identity.Principal, id uuid.UUID, req TransitionFlagRequest) (*Flag, authz.Decision, error) {
	return s.transition(ctx, p, id, lifecycle.FlagDismissed, req)
}

func (s *Service) transition(ctx context.Context, p identity.Principal, id uuid.UUID, to lifecycle.FlagStatus, req TransitionFlagRequest) (*Flag, authz.Decision, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, authz.Allow(), fmt.Errorf("flag: validate transition: %w", err)
	}

	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, authz.Allow(), err
	}
	ownerID, err := s.targetOwner(ctx, f.TargetType, f.TargetID)
	if err != nil {
		return nil, authz.Allow(), err
	}

	decision := authz.Evaluate(p, authz.ActionFlagTransition, authz.Snapshot{
		Flag: &authz.FlagRef{
			ID:            f.ID,
			ReporterID:    f.ReporterID,
			TargetOwnerID: ownerID,
			Status:        f.Status,
			Exists:        true,
		},
	})
	if !decision.Allowed {
		return nil, decision, nil
	}

	if err := lifecycle.FlagTransition(f.Status, to); err != nil {
		return nil, decision, err
	}

	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}
	if err := s.repo.UpdateStatus(ctx, id, f.Status, to, p.ID, note); err != nil {
		if errors.Is(err, shared.ErrStorageConflict) {
			s.countConflict()
			fresh, ferr := s.repo.Get(ctx, id)
			if ferr != nil {
				return nil, decision, ferr
			}
			if terr := lifecycle.FlagTransition(fresh.Status, to); terr != nil {
				return nil, decision, terr
			}
		}
		return nil, decision, err
	}

	s.modlog.Record(ctx, moderation.Entry{
		ActorID:  p.ID,
		Action:   logAction(to),
		Entity:   logEntity(f.TargetType),
		EntityID: f.ID,
		Details:  logDetails(f, note),
	})

	updated, err := s.repo.Get(ctx, id)
	return updated, decision, err
}

// Withdraw lets the reporter delete their own flag while it is still PENDING.
func (s *Service) Withdraw(ctx context.Context, p identity.Principal, id uuid.UUID) (authz.Decision, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return authz.Allow(), err
	}
	decision := authz.Evaluate(p, authz.ActionFlagDelete, authz.Snapshot{
		Flag: &authz.FlagRef{ID: f.ID, ReporterID: f.ReporterID, Status: f.Status, Exists: true},
	})
	if !decision.Allowed {
		return decision, nil
	}
	if err := s.repo.DeletePending(ctx, id); err != nil {
		if errors.Is(err, shared.ErrStorageConflict) {
			s.countConflict()
			// Review started between the check and the delete.
			return decision, fmt.Errorf("flag: no longer withdrawable: %w", shared.ErrInvalidTransition)
		}
		return decision, err
	}
	return decision, nil
}

// ListOpen returns flags awaiting a decision, admin only.
func (s *Service) ListOpen(ctx context.Context, p identity.Principal) ([]Flag, authz.Decision, error) {
	decision := authz.Evaluate(p, authz.ActionLogsView, authz.Snapshot{})
	if !decision.Allowed {
		return nil, decision, nil
	}
	flags, err := s.repo.ListOpen(ctx)
	return flags, decision, err
}

// ListByTarget returns the flags on one target for its owner or an admin.
func (s *Service) ListByTarget(ctx context.Context, p identity.Principal, targetType TargetType, targetID uuid.UUID) ([]Flag, authz.Decision, error) {
	if !targetType.IsValid() {
		return nil, authz.Allow(), fmt.Errorf("flag: unknown target type %q: %w", targetType, shared.ErrNotFound)
	}
	ownerID, err := s.targetOwner(ctx, targetType, targetID)
	if err != nil {
		return nil, authz.Allow(), err
	}
	if !p.IsAdmin() && p.ID != ownerID {
		return nil, authz.Deny(authz.ReasonNotOwner), nil
	}
	flags, err := s.repo.ListByTarget(ctx, targetType, targetID)
	return flags, authz.Allow(), err
}

// targetOwner resolves the creator of the flagged club or event; that owner
// shares moderation authority over the flag with platform admins.
func (s *Service) targetOwner(ctx context.Context, targetType TargetType, targetID uuid.UUID) (int64, error) {
	switch targetType {
	case TargetClub:
		c, err := s.clubs.Get(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return c.CreatorID, nil
	case TargetEvent:
		e, err := s.events.Get(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return e.CreatorID, nil
	default:
		return 0, shared.ErrNotFound
	}
}

func logAction(to lifecycle.FlagStatus) moderation.Action {
	switch to {
	case lifecycle.FlagResolved:
		return moderation.ActionFlagResolved
	case lifecycle.FlagDismissed:
		return moderation.ActionFlagDismissed
	default:
		return moderation.ActionFlagReviewed
	}
}

func logEntity(t TargetType) moderation.EntityType {
	if t == TargetEvent {
		return moderation.EntityEventFlag
	}
	return moderation.EntityClubFlag
}

func logDetails(f *Flag, note *string) map[string]any {
	details := map[string]any{
		"target_type": string(f.TargetType),
		"target_id":   f.TargetID.String(),
	}
	if note != nil {
		details["note"] = *note
	}
	return details
}
