package club

import (
	"time"

	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/lifecycle"
)

// Club represents a student club and its approval workflow state.
type Club struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description,omitempty"`
	CreatorID       int64                `json:"creator_id"`
	Status          lifecycle.ClubStatus `json:"status"`
	ApprovedBy      *int64               `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// CreateClubRequest is the payload for creating a club.
type CreateClubRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

// RejectClubRequest carries the mandatory rejection reason.
type RejectClubRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=500"`
}
