// Package event manages events hosted by approved clubs.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a club-hosted event. Only the creator of an approved club may
// create one, and only the event's creator may edit or delete it afterwards.
type Event struct {
	ID          uuid.UUID `json:"id"`
	ClubID      uuid.UUID `json:"club_id"`
	CreatorID   int64     `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	IsFree      bool      `json:"is_free"`
	PriceCents  int64     `json:"price_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateEventRequest is the payload for creating an event.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=160"`
	Description string    `json:"description" validate:"max=4000"`
	Location    string    `json:"location" validate:"max=300"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	IsFree      bool      `json:"is_free"`
	PriceCents  int64     `json:"price_cents" validate:"min=0"`
}

// UpdateEventRequest is the payload for editing an event. Nil fields are left
// unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=160"`
	Description *string    `json:"description" validate:"omitempty,max=4000"`
	Location    *string    `json:"location" validate:"omitempty,max=300"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	IsFree      *bool      `json:"is_free"`
	PriceCents  *int64     `json:"price_cents" validate:"omitempty,min=0"`
}
