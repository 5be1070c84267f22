package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationPending  ReservationStatus = "pending"
	ReservationApproved ReservationStatus = "approved"
	ReservationRejected ReservationStatus = "rejected"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationApproved, ReservationRejected:
		return true
	}
	return false
}

func (s ReservationStatus) String() string {
	return string(s)
}

func ParseReservationStatus(v string) (ReservationStatus, error) {
	s := ReservationStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown reservation status %q", v)
	}
	return s, nil
}

type Reservation struct {
	ID          uuid.UUID         `json:"id"`
	SpaceID     uuid.UUID         `json:"space_id"`
	UserID      uuid.UUID         `json:"user_id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	StartsAt    time.Time         `json:"starts_at"`
	EndsAt      time.Time         `json:"ends_at"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	Space     *Space `json:"space,omitempty"`
	Organizer *User  `json:"organizer,omitempty"`
}

// Overlaps reports whether the half-open ranges [StartsAt, EndsAt) intersect.
// Touching endpoints do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartsAt.Before(end) && r.EndsAt.After(start)
}

func (r *Reservation) IsOrganizer(userID uuid.UUID) bool {
	return r.UserID == userID
}
