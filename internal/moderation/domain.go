package moderation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntityType names the kind of record a log entry refers to.
type EntityType string

const (
	EntityClub      EntityType = "club"
	EntityEvent     EntityType = "event"
	EntityClubFlag  EntityType = "club_flag"
	EntityEventFlag EntityType = "event_flag"
)

// Action enumerates moderation-relevant transitions worth auditing.
type Action string

const (
	ActionClubApproved  Action = "club_approved"
	ActionClubRejected  Action = "club_rejected"
	ActionFlagReviewed  Action = "flag_reviewed"
	ActionFlagResolved  Action = "flag_resolved"
	ActionFlagDismissed Action = "flag_dismissed"
)

// Entry is one append-only moderation log record. Entries are never mutated
// or deleted.
type Entry struct {
	ID        int64
	ActorID   int64
	Action    Action
	Entity    EntityType
	EntityID  uuid.UUID
	Details   map[string]any
	CreatedAt time.Time
}

// Log is the write side consumed by the domain services. Record is
// best-effort relative to the transition it documents: implementations
// report failures to observability instead of returning them to the caller.
type Log interface {
	Record(ctx context.Context, entry Entry)
}
