// Package flag manages content flags on clubs and events: reporting,
// moderation transitions and withdrawal.
package flag

import (
	"time"

	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/lifecycle"
)

// TargetType names the kind of record a flag points at.
type TargetType string

const (
	TargetClub  TargetType = "club"
	TargetEvent TargetType = "event"
)

// IsValid checks if the target type is valid.
func (t TargetType) IsValid() bool {
	return t == TargetClub || t == TargetEvent
}

// Flag is one report against a club or event. A reporter may hold at most one
// flag per target; re-reporting the same target is refused.
type Flag struct {
	ID             uuid.UUID            `json:"id"`
	TargetType     TargetType           `json:"target_type"`
	TargetID       uuid.UUID            `json:"target_id"`
	ReporterID     int64                `json:"reporter_id"`
	Reason         string               `json:"reason"`
	Status         lifecycle.FlagStatus `json:"status"`
	ReviewedBy     *int64               `json:"reviewed_by,omitempty"`
	ResolutionNote *string              `json:"resolution_note,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// FileFlagRequest is the payload for reporting a club or event.
type FileFlagRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=1000"`
}

// TransitionFlagRequest carries an optional note alongside a moderation
// decision.
type TransitionFlagRequest struct {
	Note string `json:"note" validate:"max=1000"`
}
