package services

import (
	"errors"
	"fmt"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrSpaceNotFound       = fmt.Errorf("space %w", booking.ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", booking.ErrNotFound)
	ErrSlugTaken           = errors.New("space slug already taken")

	// ErrTransactionConflict means the database aborted the transaction because
	// of a concurrent writer. The operation can be retried as a whole.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// mapWriteError turns constraint and concurrency failures reported by
// PostgreSQL into domain errors. Other errors are returned unchanged.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.ExclusionViolation:
		verrs := &booking.ValidationErrors{}
		verrs.Add("", booking.ErrOverlapConflict, "overlaps an approved reservation in this space")
		return verrs
	case pgerrcode.CheckViolation:
		if pgErr.ConstraintName == "reservations_range_check" {
			verrs := &booking.ValidationErrors{}
			verrs.Add("ends_at", booking.ErrInvalidRange, "ends_at must be after starts_at")
			return verrs
		}
	case pgerrcode.ForeignKeyViolation:
		if pgErr.ConstraintName == "reservations_space_id_fkey" {
			return ErrSpaceNotFound
		}
	case pgerrcode.UniqueViolation:
		if pgErr.ConstraintName == "spaces_slug_key" {
			return ErrSlugTaken
		}
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return fmt.Errorf("%w: %s", ErrTransactionConflict, pgErr.Message)
	}
	return err
}
