package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/database"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
)

type CreateReservationInput struct {
	SpaceID     uuid.UUID
	Name        string
	Description *string
	StartsAt    time.Time
	EndsAt      time.Time
	// Status defaults to pending. Admins may book directly as approved.
	Status models.ReservationStatus
}

// UpdateReservationInput changes only the fields that are set. The status is
// never changed by an update.
type UpdateReservationInput struct {
	SpaceID     *uuid.UUID
	Name        *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
}

type ReservationFilter struct {
	SpaceID *uuid.UUID
	UserID  *uuid.UUID
	Status  *models.ReservationStatus
	From    *time.Time
	To      *time.Time
}

// CacheInvalidator drops cached day views touched by a reservation write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, spaceID uuid.UUID, from, to time.Time) error
}

type ReservationService struct {
	db    *database.DB
	cache CacheInvalidator
}

func NewReservationService(db *database.DB, cache CacheInvalidator) *ReservationService {
	return &ReservationService{db: db, cache: cache}
}

// Create validates the candidate against the approved reservations of its
// space while holding the space lock, then stores it.
func (s *ReservationService) Create(ctx context.Context, actor booking.Actor, in CreateReservationInput) (*models.Reservation, error) {
	status := in.Status
	if status == "" {
		status = models.ReservationPending
	}
	if err := booking.CanCreateWithStatus(actor, status); err != nil {
		return nil, err
	}

	candidate := booking.Candidate{
		SpaceID:  in.SpaceID,
		Name:     in.Name,
		StartsAt: in.StartsAt,
		EndsAt:   in.EndsAt,
	}
	if candidate.SpaceID == uuid.Nil || !candidate.HasRange() {
		return nil, booking.Validate(candidate, nil)
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockSpace(ctx, tx, in.SpaceID); err != nil {
		return nil, withFieldErrors(candidate, err)
	}

	existing, err := ApprovedOverlapping(ctx, tx, in.SpaceID, in.StartsAt, in.EndsAt, nil)
	if err != nil {
		return nil, err
	}
	if err := booking.Validate(candidate, existing); err != nil {
		return nil, err
	}

	r, err := scanReservation(tx.QueryRow(ctx, `
		INSERT INTO reservations (space_id, user_id, name, description, starts_at, ends_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+reservationColumns,
		in.SpaceID, actor.ID, strings.TrimSpace(in.Name), in.Description, in.StartsAt, in.EndsAt, string(status),
	))
	if err != nil {
		return nil, mapWriteError(fmt.Errorf("failed to create reservation: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapWriteError(fmt.Errorf("failed to commit transaction: %w", err))
	}

	s.invalidate(ctx, r.SpaceID, r.StartsAt, r.EndsAt)
	return r, nil
}

// withFieldErrors reports a missing space together with the rules the
// candidate breaks on its own. Without such rules err is returned as is.
func withFieldErrors(c booking.Candidate, err error) error {
	if !errors.Is(err, ErrSpaceNotFound) {
		return err
	}
	var verrs *booking.ValidationErrors
	if !errors.As(booking.Validate(c, nil), &verrs) {
		return err
	}
	verrs.Add("space_id", booking.ErrNotFound, "space not found")
	return verrs
}

// Update changes a reservation on behalf of its organizer. The changed
// reservation is revalidated against the approved reservations of its
// (possibly new) space, never against itself. It returns the reservation as
// stored and as it was right before the change.
func (s *ReservationService) Update(ctx context.Context, actor booking.Actor, id uuid.UUID, in UpdateReservationInput) (*models.Reservation, *models.Reservation, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanReservation(tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		return nil, nil, err
	}
	if err := booking.AuthorizeOrganizer(actor, cur); err != nil {
		return nil, nil, err
	}

	if early := booking.CandidateFrom(ptrTo(applyUpdate(*cur, in))); !early.HasRange() {
		return nil, nil, booking.Validate(early, nil)
	}
	target := cur.SpaceID
	if in.SpaceID != nil {
		target = *in.SpaceID
	}

	// Spaces are always locked in id order so that concurrent moves between
	// the same two spaces cannot deadlock.
	for _, spaceID := range lockOrder(cur.SpaceID, target) {
		if err := lockSpace(ctx, tx, spaceID); err != nil {
			return nil, nil, err
		}
	}

	locked, err := scanReservation(tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, nil, err
	}
	if locked.SpaceID != cur.SpaceID {
		return nil, nil, ErrTransactionConflict
	}

	// Fields the request leaves alone keep their committed values, including
	// edits that landed after the first read.
	next := applyUpdate(*locked, in)
	candidate := booking.CandidateFrom(&next)
	if !candidate.HasRange() {
		return nil, nil, booking.Validate(candidate, nil)
	}

	existing, err := ApprovedOverlapping(ctx, tx, next.SpaceID, next.StartsAt, next.EndsAt, &next.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := booking.Validate(candidate, existing); err != nil {
		return nil, nil, err
	}

	updated, err := scanReservation(tx.QueryRow(ctx, `
		UPDATE reservations
		SET space_id = $2, name = $3, description = $4, starts_at = $5, ends_at = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+reservationColumns,
		id, next.SpaceID, next.Name, next.Description, next.StartsAt, next.EndsAt,
	))
	if err != nil {
		return nil, nil, mapWriteError(fmt.Errorf("failed to update reservation: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, mapWriteError(fmt.Errorf("failed to commit transaction: %w", err))
	}

	s.invalidate(ctx, locked.SpaceID, locked.StartsAt, locked.EndsAt)
	s.invalidate(ctx, updated.SpaceID, updated.StartsAt, updated.EndsAt)
	return updated, locked, nil
}

func ptrTo[T any](v T) *T {
	return &v
}

func applyUpdate(r models.Reservation, in UpdateReservationInput) models.Reservation {
	if in.SpaceID != nil {
		r.SpaceID = *in.SpaceID
	}
	if in.Name != nil {
		r.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		r.Description = in.Description
	}
	if in.StartsAt != nil {
		r.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		r.EndsAt = *in.EndsAt
	}
	return r
}

func lockOrder(a, b uuid.UUID) []uuid.UUID {
	switch c := bytes.Compare(a[:], b[:]); {
	case c == 0:
		return []uuid.UUID{a}
	case c < 0:
		return []uuid.UUID{a, b}
	default:
		return []uuid.UUID{b, a}
	}
}

// Delete removes a reservation of any status on behalf of its organizer and
// returns what was deleted.
func (s *ReservationService) Delete(ctx context.Context, actor booking.Actor, id uuid.UUID) (*models.Reservation, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := booking.AuthorizeOrganizer(actor, cur); err != nil {
		return nil, err
	}

	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1 AND user_id = $2`, id, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrReservationNotFound
	}

	s.invalidate(ctx, cur.SpaceID, cur.StartsAt, cur.EndsAt)
	return cur, nil
}

func (s *ReservationService) Approve(ctx context.Context, actor booking.Actor, id uuid.UUID) (*models.Reservation, error) {
	return s.decide(ctx, actor, id, models.ReservationApproved)
}

func (s *ReservationService) Reject(ctx context.Context, actor booking.Actor, id uuid.UUID) (*models.Reservation, error) {
	return s.decide(ctx, actor, id, models.ReservationRejected)
}

// decide moves a pending reservation to approved or rejected. Approval
// re-checks overlap under the space lock; the status change itself is a
// compare-and-swap on the pending status. The returned reservation carries
// its space and organizer.
func (s *ReservationService) decide(ctx context.Context, actor booking.Actor, id uuid.UUID, to models.ReservationStatus) (*models.Reservation, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanReservation(tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := booking.Decide(actor, cur, to); err != nil {
		return nil, err
	}

	if to == models.ReservationApproved {
		if err := lockSpace(ctx, tx, cur.SpaceID); err != nil {
			return nil, err
		}
		existing, err := ApprovedOverlapping(ctx, tx, cur.SpaceID, cur.StartsAt, cur.EndsAt, &cur.ID)
		if err != nil {
			return nil, err
		}
		if err := booking.Validate(booking.CandidateFrom(cur), existing); err != nil {
			return nil, err
		}
	}

	updated, err := scanReservation(tx.QueryRow(ctx, `
		UPDATE reservations SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+reservationColumns,
		id, string(to),
	))
	if errors.Is(err, ErrReservationNotFound) {
		return nil, casMiss(ctx, tx, id)
	}
	if err != nil {
		return nil, mapWriteError(fmt.Errorf("failed to %s reservation: %w", verb(to), err))
	}

	if err := s.attachDetails(ctx, tx, updated); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapWriteError(fmt.Errorf("failed to commit transaction: %w", err))
	}

	s.invalidate(ctx, updated.SpaceID, updated.StartsAt, updated.EndsAt)
	return updated, nil
}

// casMiss explains why the pending compare-and-swap matched no row: the
// reservation was either deleted or decided by someone else.
func casMiss(ctx context.Context, q querier, id uuid.UUID) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check reservation: %w", err)
	}
	if !exists {
		return ErrReservationNotFound
	}
	return fmt.Errorf("%w: reservation is no longer pending", booking.ErrInvalidTransition)
}

func verb(to models.ReservationStatus) string {
	if to == models.ReservationApproved {
		return "approve"
	}
	return "reject"
}

func (s *ReservationService) attachDetails(ctx context.Context, q querier, r *models.Reservation) error {
	sp := models.Space{ID: r.SpaceID}
	organizer := models.User{ID: r.UserID}
	err := q.QueryRow(ctx, `
		SELECT s.name, s.slug, u.name, u.email
		FROM spaces s, users u
		WHERE s.id = $1 AND u.id = $2
	`, r.SpaceID, r.UserID).Scan(&sp.Name, &sp.Slug, &organizer.Name, &organizer.Email)
	if err != nil {
		return fmt.Errorf("failed to load reservation details: %w", err)
	}
	r.Space = &sp
	r.Organizer = &organizer
	return nil
}

func (s *ReservationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return scanReservation(s.db.Pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
}

// GetDetailed returns the reservation with its space and organizer.
func (s *ReservationService) GetDetailed(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachDetails(ctx, s.db.Pool, r); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns reservations matching the filter as seen by viewer: rejected
// reservations are only visible to admins and to their organizer.
func (s *ReservationService) List(ctx context.Context, viewer booking.Actor, filter ReservationFilter) ([]models.Reservation, error) {
	var status *string
	if filter.Status != nil {
		v := string(*filter.Status)
		status = &v
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE ($1::uuid IS NULL OR space_id = $1)
			AND ($2::uuid IS NULL OR user_id = $2)
			AND ($3::text IS NULL OR status = $3)
			AND ($4::timestamptz IS NULL OR ends_at > $4)
			AND ($5::timestamptz IS NULL OR starts_at < $5)
			AND (status <> 'rejected' OR $6 OR user_id = $7)
		ORDER BY starts_at, created_at
	`, filter.SpaceID, filter.UserID, status, filter.From, filter.To, viewer.Admin, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return collectReservations(rows)
}

func (s *ReservationService) invalidate(ctx context.Context, spaceID uuid.UUID, from, to time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, spaceID, from, to); err != nil {
		slog.WarnContext(ctx, "timeline cache invalidation failed",
			"space_id", spaceID, "error", err)
	}
}
