package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
)

// Candidate is a reservation about to be created or changed. ID is set for
// updates and approvals so the record never conflicts with itself.
type Candidate struct {
	ID       *uuid.UUID
	SpaceID  uuid.UUID
	Name     string
	StartsAt time.Time
	EndsAt   time.Time
}

// CandidateFrom builds the candidate that represents an existing reservation.
func CandidateFrom(r *models.Reservation) Candidate {
	id := r.ID
	return Candidate{
		ID:       &id,
		SpaceID:  r.SpaceID,
		Name:     r.Name,
		StartsAt: r.StartsAt,
		EndsAt:   r.EndsAt,
	}
}

// HasRange reports whether both instants are present and end is strictly
// after start.
func (c Candidate) HasRange() bool {
	return !c.StartsAt.IsZero() && !c.EndsAt.IsZero() && c.EndsAt.After(c.StartsAt)
}

// Validate checks the candidate against the reservation invariants. existing
// may contain reservations of any status or space; only approved reservations
// in the candidate's space other than the candidate itself are considered.
func Validate(c Candidate, existing []models.Reservation) error {
	errs := &ValidationErrors{}

	if strings.TrimSpace(c.Name) == "" {
		errs.Add("name", ErrMissingField, "name is required")
	}
	if c.SpaceID == uuid.Nil {
		errs.Add("space_id", ErrMissingField, "space_id is required")
	}
	if c.StartsAt.IsZero() {
		errs.Add("starts_at", ErrMissingField, "starts_at is required")
	}
	if c.EndsAt.IsZero() {
		errs.Add("ends_at", ErrMissingField, "ends_at is required")
	}
	if !c.StartsAt.IsZero() && !c.EndsAt.IsZero() && !c.EndsAt.After(c.StartsAt) {
		errs.Add("ends_at", ErrInvalidRange, "ends_at must be after starts_at")
	}

	if c.HasRange() {
		for _, r := range Conflicts(c, existing) {
			errs.Add("", ErrOverlapConflict, fmt.Sprintf(
				"overlaps approved reservation %q (%s - %s)",
				r.Name, r.StartsAt.Format(time.RFC3339), r.EndsAt.Format(time.RFC3339),
			))
		}
	}

	return errs.Err()
}

// Conflicts returns the approved reservations in the candidate's space whose
// half-open range intersects the candidate's.
func Conflicts(c Candidate, existing []models.Reservation) []models.Reservation {
	if !c.HasRange() {
		return nil
	}
	var out []models.Reservation
	for _, r := range existing {
		if r.Status != models.ReservationApproved || r.SpaceID != c.SpaceID {
			continue
		}
		if c.ID != nil && r.ID == *c.ID {
			continue
		}
		if r.Overlaps(c.StartsAt, c.EndsAt) {
			out = append(out, r)
		}
	}
	return out
}
