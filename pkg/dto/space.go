package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSpaceRequest struct {
	Name        string  `json:"name" validate:"max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Capacity    *int    `json:"capacity,omitempty"`
	Price       *string `json:"price,omitempty" validate:"omitempty,max=120"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=300"`
}

type UpdateSpaceRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Capacity    *int    `json:"capacity,omitempty"`
	Price       *string `json:"price,omitempty" validate:"omitempty,max=120"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=300"`
}

type SpaceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Capacity    *int      `json:"capacity,omitempty"`
	Price       *string   `json:"price,omitempty"`
	Address     *string   `json:"address,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty"`
	UpdatedAt   string    `json:"updated_at,omitempty"`
}

type AvailabilityResponse struct {
	Status      string               `json:"status"`
	Until       *time.Time           `json:"until,omitempty"`
	NextEventAt *time.Time           `json:"next_event_at,omitempty"`
	Event       *ReservationResponse `json:"event,omitempty"`
}

type SpaceStatusResponse struct {
	Space  SpaceResponse        `json:"space"`
	At     time.Time            `json:"at"`
	Status AvailabilityResponse `json:"status"`
}
