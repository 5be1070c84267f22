package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/spacebook-api/internal/cache"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

var reservationRowColumns = []string{
	"id", "space_id", "user_id", "name", "description", "starts_at", "ends_at", "status", "created_at", "updated_at",
}

var spaceRowColumns = []string{
	"id", "name", "slug", "description", "capacity", "price", "address", "created_at", "updated_at",
}

var day = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

func hour(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func newReservation(spaceID, userID uuid.UUID, status models.ReservationStatus, start, end time.Time) models.Reservation {
	return models.Reservation{
		ID:        uuid.New(),
		SpaceID:   spaceID,
		UserID:    userID,
		Name:      "Standup",
		StartsAt:  start,
		EndsAt:    end,
		Status:    status,
		CreatedAt: day,
		UpdatedAt: day,
	}
}

func reservationRows(rs ...models.Reservation) *pgxmock.Rows {
	rows := pgxmock.NewRows(reservationRowColumns)
	for _, r := range rs {
		var desc any
		if r.Description != nil {
			desc = r.Description
		}
		rows.AddRow(r.ID, r.SpaceID, r.UserID, r.Name, desc, r.StartsAt, r.EndsAt, string(r.Status), r.CreatedAt, r.UpdatedAt)
	}
	return rows
}

func spaceRows(spaces ...models.Space) *pgxmock.Rows {
	rows := pgxmock.NewRows(spaceRowColumns)
	for _, sp := range spaces {
		rows.AddRow(sp.ID, sp.Name, sp.Slug, nil, nil, nil, nil, day, day)
	}
	return rows
}

func expectLockSpace(mock pgxmock.PgxPoolIface, spaceID uuid.UUID) {
	mock.ExpectQuery(`SELECT id FROM spaces WHERE id = .+ FOR UPDATE`).
		WithArgs(spaceID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(spaceID))
}

type invalidation struct {
	spaceID  uuid.UUID
	from, to time.Time
}

// fakeCache mirrors the generation scheme of the Redis cache: an entry is
// only served while its generation matches the pair's current one.
type fakeCache struct {
	mu            sync.Mutex
	entries       map[string][]models.Reservation
	entryGens     map[string]int64
	gens          map[string]int64
	invalidated   []invalidation
	getErr        error
	invalidateErr error
	// beforeSet runs between the database load and the cache write.
	beforeSet func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:   make(map[string][]models.Reservation),
		entryGens: make(map[string]int64),
		gens:      make(map[string]int64),
	}
}

func (c *fakeCache) Get(_ context.Context, scope, day string) ([]models.Reservation, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, 0, false, c.getErr
	}
	key := scope + "/" + day
	gen := c.gens[key]
	rs, ok := c.entries[key]
	if !ok || c.entryGens[key] != gen {
		return nil, gen, false, nil
	}
	return rs, gen, true, nil
}

func (c *fakeCache) Set(_ context.Context, scope, day string, gen int64, rs []models.Reservation) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := scope + "/" + day
	c.entries[key] = rs
	c.entryGens[key] = gen
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, spaceID uuid.UUID, from, to time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, invalidation{spaceID, from, to})
	for _, day := range cache.Days(from, to, time.UTC) {
		c.gens[spaceID.String()+"/"+day]++
		c.gens["all/"+day]++
	}
	return c.invalidateErr
}

func mustPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}
