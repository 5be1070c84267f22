package dto

import (
	"time"

	"github.com/google/uuid"
)

// Missing fields are reported together with range and overlap errors, so
// only format constraints are checked on the request itself.
type CreateReservationRequest struct {
	SpaceID     *uuid.UUID `json:"space_id"`
	Name        string     `json:"name" validate:"max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=pending approved"`
}

type UpdateReservationRequest struct {
	SpaceID     *uuid.UUID `json:"space_id,omitempty"`
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

type ListReservationsQuery struct {
	SpaceID string `validate:"omitempty,uuid" json:"space_id"`
	Status  string `validate:"omitempty,oneof=pending approved rejected" json:"status"`
	Filter  string `validate:"omitempty,oneof=all mine" json:"filter"`
	From    string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00" json:"from"`
	To      string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00" json:"to"`
}

type ReservationResponse struct {
	ID          uuid.UUID      `json:"id"`
	SpaceID     uuid.UUID      `json:"space_id"`
	UserID      uuid.UUID      `json:"user_id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	StartsAt    time.Time      `json:"starts_at"`
	EndsAt      time.Time      `json:"ends_at"`
	Status      string         `json:"status"`
	IsOrganizer bool           `json:"is_organizer"`
	CanDecide   bool           `json:"can_decide"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
	Space       *SpaceResponse `json:"space,omitempty"`
	Organizer   *UserResponse  `json:"organizer,omitempty"`
}
