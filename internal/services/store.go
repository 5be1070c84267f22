package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const reservationColumns = `id, space_id, user_id, name, description, starts_at, ends_at, status, created_at, updated_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanReservationInto(row pgx.Row, r *models.Reservation, extra ...any) error {
	var status string
	dest := append([]any{
		&r.ID, &r.SpaceID, &r.UserID, &r.Name, &r.Description,
		&r.StartsAt, &r.EndsAt, &status, &r.CreatedAt, &r.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	r.Status = models.ReservationStatus(status)
	return nil
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var r models.Reservation
	err := scanReservationInto(row, &r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectReservations(rows pgx.Rows) ([]models.Reservation, error) {
	defer rows.Close()

	reservations := []models.Reservation{}
	for rows.Next() {
		var r models.Reservation
		if err := scanReservationInto(rows, &r); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

func statusStrings(statuses []models.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// lockSpace takes the per-space write lock. Every validate-then-write sequence
// on a space's reservations holds it until commit.
func lockSpace(ctx context.Context, q querier, spaceID uuid.UUID) error {
	var id uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM spaces WHERE id = $1 FOR UPDATE`, spaceID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSpaceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock space: %w", err)
	}
	return nil
}

// ApprovedOverlapping returns the approved reservations of a space whose range
// intersects [start, end), leaving out excludeID when set.
func ApprovedOverlapping(ctx context.Context, q querier, spaceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Reservation, error) {
	rows, err := q.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE space_id = $1 AND status = 'approved'
			AND starts_at < $3 AND ends_at > $2
			AND ($4::uuid IS NULL OR id <> $4)
		ORDER BY starts_at
	`, spaceID, start, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved reservations: %w", err)
	}
	return collectReservations(rows)
}

// ReservationsForSpace returns reservations with one of the given statuses
// that intersect [from, to). A nil spaceID means every space.
func ReservationsForSpace(ctx context.Context, q querier, spaceID *uuid.UUID, from, to time.Time, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	rows, err := q.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE ($1::uuid IS NULL OR space_id = $1)
			AND status = ANY($2)
			AND starts_at < $4 AND ends_at > $3
		ORDER BY starts_at, created_at
	`, spaceID, statusStrings(statuses), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}
	return collectReservations(rows)
}

// reservationsEndingAfter returns reservations still running or upcoming at
// the instant at. A nil spaceID means every space.
func reservationsEndingAfter(ctx context.Context, q querier, spaceID *uuid.UUID, at time.Time, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	rows, err := q.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE ($1::uuid IS NULL OR space_id = $1)
			AND status = ANY($2)
			AND ends_at > $3
		ORDER BY starts_at, created_at
	`, spaceID, statusStrings(statuses), at)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}
	return collectReservations(rows)
}
