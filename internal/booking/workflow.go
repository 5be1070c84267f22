package booking

import (
	"fmt"

	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
)

// Actor is the identity a mutating operation is performed on behalf of.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

// Transition allows only pending -> approved and pending -> rejected.
func Transition(from, to models.ReservationStatus) error {
	if from != models.ReservationPending {
		return fmt.Errorf("%w: reservation is %s, only pending reservations can be decided", ErrInvalidTransition, from)
	}
	if to != models.ReservationApproved && to != models.ReservationRejected {
		return fmt.Errorf("%w: cannot move a pending reservation to %s", ErrInvalidTransition, to)
	}
	return nil
}

// AuthorizeOrganizer allows changes only by the user who made the reservation.
func AuthorizeOrganizer(actor Actor, r *models.Reservation) error {
	if !r.IsOrganizer(actor.ID) {
		return fmt.Errorf("%w: only the organizer can change this reservation", ErrForbidden)
	}
	return nil
}

// AuthorizeDecision allows approve/reject by admins other than the organizer.
func AuthorizeDecision(actor Actor, r *models.Reservation) error {
	if !actor.Admin {
		return fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}
	if r.IsOrganizer(actor.ID) {
		return fmt.Errorf("%w: organizers cannot decide their own reservation", ErrForbidden)
	}
	return nil
}

// Decide checks that actor may move r to the target status.
func Decide(actor Actor, r *models.Reservation, to models.ReservationStatus) error {
	if err := AuthorizeDecision(actor, r); err != nil {
		return err
	}
	return Transition(r.Status, to)
}

// CanCreateWithStatus reports whether actor may create a reservation directly
// in the given status. Anyone may create pending requests; only admins may
// book directly as approved.
func CanCreateWithStatus(actor Actor, status models.ReservationStatus) error {
	switch status {
	case models.ReservationPending:
		return nil
	case models.ReservationApproved:
		if actor.Admin {
			return nil
		}
		return fmt.Errorf("%w: admin privileges required to book as approved", ErrForbidden)
	default:
		return fmt.Errorf("%w: reservations cannot be created as %s", ErrInvalidTransition, status)
	}
}

// Visible reports whether viewer may see r. Rejected reservations are shown
// only to admins and to their organizer.
func Visible(viewer Actor, r *models.Reservation) bool {
	return r.Status != models.ReservationRejected || viewer.Admin || r.IsOrganizer(viewer.ID)
}
