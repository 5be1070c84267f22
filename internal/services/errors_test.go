package services

import (
	"errors"
	"testing"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapWriteError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{"exclusion", &pgconn.PgError{Code: pgerrcode.ExclusionViolation}, booking.ErrOverlapConflict},
		{"range check", &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "reservations_range_check"}, booking.ErrInvalidRange},
		{"space fk", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "reservations_space_id_fkey"}, ErrSpaceNotFound},
		{"slug", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "spaces_slug_key"}, ErrSlugTaken},
		{"serialization", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, ErrTransactionConflict},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, ErrTransactionConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := errors.Join(errors.New("failed to write"), tc.err)
			assert.ErrorIs(t, mapWriteError(wrapped), tc.expected)
		})
	}
}

func TestMapWriteError_Passthrough(t *testing.T) {
	plain := errors.New("connection refused")
	assert.Equal(t, plain, mapWriteError(plain))

	other := &pgconn.PgError{Code: pgerrcode.UndefinedTable}
	assert.Equal(t, error(other), mapWriteError(other))
}

func TestNotFoundErrorsWrapBookingKind(t *testing.T) {
	assert.ErrorIs(t, ErrSpaceNotFound, booking.ErrNotFound)
	assert.ErrorIs(t, ErrReservationNotFound, booking.ErrNotFound)
}
