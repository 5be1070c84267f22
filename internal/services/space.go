package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/database"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
)

const spaceColumns = `id, name, slug, description, capacity, price, address, created_at, updated_at`

type CreateSpaceInput struct {
	Name        string
	Description *string
	Capacity    *int
	Price       *string
	Address     *string
}

// UpdateSpaceInput changes only the fields that are set.
type UpdateSpaceInput struct {
	Name        *string
	Description *string
	Capacity    *int
	Price       *string
	Address     *string
}

type SpaceService struct {
	db     *database.DB
	policy booking.OccupancyPolicy
}

func NewSpaceService(db *database.DB, policy booking.OccupancyPolicy) *SpaceService {
	return &SpaceService{db: db, policy: policy}
}

func scanSpace(row pgx.Row) (*models.Space, error) {
	var sp models.Space
	err := row.Scan(
		&sp.ID, &sp.Name, &sp.Slug, &sp.Description, &sp.Capacity,
		&sp.Price, &sp.Address, &sp.CreatedAt, &sp.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSpaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// NextSlug returns base if it is free, otherwise base-2, base-3 and so on.
func NextSlug(base string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t] = true
	}
	if !used[base] {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !used[candidate] {
			return candidate
		}
	}
}

func (s *SpaceService) uniqueSlug(ctx context.Context, q querier, name string, excludeID *uuid.UUID) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "space"
	}

	rows, err := q.Query(ctx, `
		SELECT slug FROM spaces
		WHERE (slug = $1 OR slug LIKE $2) AND ($3::uuid IS NULL OR id <> $3)
	`, base, base+"-%", excludeID)
	if err != nil {
		return "", fmt.Errorf("failed to load slugs: %w", err)
	}
	defer rows.Close()

	var taken []string
	for rows.Next() {
		var sl string
		if err := rows.Scan(&sl); err != nil {
			return "", err
		}
		taken = append(taken, sl)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return NextSlug(base, taken), nil
}

func validateSpace(name string, capacity *int) error {
	verrs := &booking.ValidationErrors{}
	if strings.TrimSpace(name) == "" {
		verrs.Add("name", booking.ErrMissingField, "name is required")
	}
	if capacity != nil && *capacity <= 0 {
		verrs.Add("capacity", booking.ErrInvalidRange, "capacity must be positive")
	}
	return verrs.Err()
}

func (s *SpaceService) Create(ctx context.Context, in CreateSpaceInput) (*models.Space, error) {
	if err := validateSpace(in.Name, in.Capacity); err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sl, err := s.uniqueSlug(ctx, tx, in.Name, nil)
	if err != nil {
		return nil, err
	}

	sp, err := scanSpace(tx.QueryRow(ctx, `
		INSERT INTO spaces (name, slug, description, capacity, price, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+spaceColumns,
		strings.TrimSpace(in.Name), sl, in.Description, in.Capacity, in.Price, in.Address,
	))
	if err != nil {
		return nil, mapWriteError(fmt.Errorf("failed to create space: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return sp, nil
}

func (s *SpaceService) GetByID(ctx context.Context, id uuid.UUID) (*models.Space, error) {
	return scanSpace(s.db.Pool.QueryRow(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id = $1`, id))
}

func (s *SpaceService) GetBySlug(ctx context.Context, sl string) (*models.Space, error) {
	return scanSpace(s.db.Pool.QueryRow(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE slug = $1`, sl))
}

// Resolve looks a space up by id, falling back to slug.
func (s *SpaceService) Resolve(ctx context.Context, idOrSlug string) (*models.Space, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return s.GetByID(ctx, id)
	}
	return s.GetBySlug(ctx, idOrSlug)
}

func (s *SpaceService) List(ctx context.Context) ([]models.Space, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+spaceColumns+` FROM spaces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	defer rows.Close()

	spaces := []models.Space{}
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, *sp)
	}
	return spaces, rows.Err()
}

func (s *SpaceService) Update(ctx context.Context, id uuid.UUID, in UpdateSpaceInput) (*models.Space, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanSpace(tx.QueryRow(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		cur.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		cur.Description = in.Description
	}
	if in.Capacity != nil {
		cur.Capacity = in.Capacity
	}
	if in.Price != nil {
		cur.Price = in.Price
	}
	if in.Address != nil {
		cur.Address = in.Address
	}
	if err := validateSpace(cur.Name, cur.Capacity); err != nil {
		return nil, err
	}

	sl := cur.Slug
	if in.Name != nil {
		if sl, err = s.uniqueSlug(ctx, tx, cur.Name, &cur.ID); err != nil {
			return nil, err
		}
	}

	updated, err := scanSpace(tx.QueryRow(ctx, `
		UPDATE spaces
		SET name = $2, slug = $3, description = $4, capacity = $5, price = $6, address = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+spaceColumns,
		cur.ID, cur.Name, sl, cur.Description, cur.Capacity, cur.Price, cur.Address,
	))
	if err != nil {
		return nil, mapWriteError(fmt.Errorf("failed to update space: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// Delete removes the space together with all of its reservations.
func (s *SpaceService) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM spaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete space: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpaceNotFound
	}
	return nil
}

// Status reports whether the space is occupied at the instant at, counting
// the reservation statuses selected by the occupancy policy.
func (s *SpaceService) Status(ctx context.Context, spaceID uuid.UUID, at time.Time) (booking.Availability, error) {
	statuses, err := s.StatusAll(ctx, &spaceID, at)
	if err != nil {
		return booking.Availability{}, err
	}
	return statuses[spaceID], nil
}

// StatusAll computes the status of every space (or just spaceID when set) at
// the instant at from a single query. Spaces without reservations are
// reported available.
func (s *SpaceService) StatusAll(ctx context.Context, spaceID *uuid.UUID, at time.Time) (map[uuid.UUID]booking.Availability, error) {
	reservations, err := reservationsEndingAfter(ctx, s.db.Pool, spaceID, at, s.policy.Statuses())
	if err != nil {
		return nil, err
	}

	bySpace := make(map[uuid.UUID][]models.Reservation)
	for _, r := range reservations {
		bySpace[r.SpaceID] = append(bySpace[r.SpaceID], r)
	}

	out := make(map[uuid.UUID]booking.Availability, len(bySpace))
	for id, rs := range bySpace {
		out[id] = booking.StatusAt(rs, at)
	}
	if spaceID != nil {
		if _, ok := out[*spaceID]; !ok {
			out[*spaceID] = booking.StatusAt(nil, at)
		}
	}
	return out, nil
}
