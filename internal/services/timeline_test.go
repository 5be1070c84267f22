package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/database"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []string{"pending", "approved", "rejected"}

func setupTimelineService(t *testing.T, cache TimelineCache) (*TimelineService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := mustPool(t)
	db := &database.DB{Pool: mock}
	spaces := NewSpaceService(db, booking.PolicyApproved)
	return NewTimelineService(db, spaces, cache, time.UTC, booking.DefaultWindow), mock
}

func TestTimelineService_Day_SingleSpace(t *testing.T) {
	cache := newFakeCache()
	svc, mock := setupTimelineService(t, cache)
	sp := models.Space{ID: uuid.New(), Name: "Blue Room", Slug: "blue-room"}
	r := newReservation(sp.ID, uuid.New(), models.ReservationApproved, hour(9, 0), hour(10, 0))

	mock.ExpectQuery(`SELECT .+ FROM spaces WHERE id`).
		WithArgs(sp.ID).
		WillReturnRows(spaceRows(sp))
	mock.ExpectQuery(`SELECT .+ FROM reservations`).
		WithArgs(&sp.ID, allStatuses, day, day.AddDate(0, 0, 1)).
		WillReturnRows(reservationRows(r))

	out, err := svc.Day(context.Background(), booking.Actor{ID: uuid.New()}, TimelineQuery{SpaceID: &sp.ID, Date: hour(15, 0)})

	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", out.Date)
	assert.Equal(t, "08:00", out.Slots[0])
	assert.Equal(t, "22:00", out.Slots[len(out.Slots)-1])
	require.Len(t, out.Columns, 1)
	require.Len(t, out.Columns[0].Placements, 1)
	assert.Equal(t, 120.0, out.Columns[0].Placements[0].Top)
	assert.Equal(t, 120.0, out.Columns[0].Placements[0].Height)
	assert.Contains(t, cache.entries, sp.ID.String()+"/2024-03-11")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineService_Day_WriteDuringLoadIsNotServedStale(t *testing.T) {
	cache := newFakeCache()
	svc, mock := setupTimelineService(t, cache)
	sp := models.Space{ID: uuid.New(), Name: "Blue Room", Slug: "blue-room"}
	pending := newReservation(sp.ID, uuid.New(), models.ReservationPending, hour(9, 0), hour(10, 0))
	approved := pending
	approved.Status = models.ReservationApproved

	// A decision commits and invalidates after the first reader loaded its
	// snapshot but before that snapshot reaches the cache.
	cache.beforeSet = func() {
		cache.beforeSet = nil
		require.NoError(t, cache.Invalidate(context.Background(), sp.ID, pending.StartsAt, pending.EndsAt))
	}

	for _, r := range []models.Reservation{pending, approved} {
		mock.ExpectQuery(`SELECT .+ FROM spaces WHERE id`).
			WithArgs(sp.ID).
			WillReturnRows(spaceRows(sp))
		mock.ExpectQuery(`SELECT .+ FROM reservations`).
			WithArgs(&sp.ID, allStatuses, day, day.AddDate(0, 0, 1)).
			WillReturnRows(reservationRows(r))
	}

	viewer := booking.Actor{ID: uuid.New()}
	q := TimelineQuery{SpaceID: &sp.ID, Date: day}

	first, err := svc.Day(context.Background(), viewer, q)
	require.NoError(t, err)
	require.Len(t, first.Columns[0].Placements, 1)
	assert.Equal(t, models.ReservationPending, first.Columns[0].Placements[0].Reservation.Status)

	second, err := svc.Day(context.Background(), viewer, q)
	require.NoError(t, err)
	require.Len(t, second.Columns[0].Placements, 1)
	assert.Equal(t, models.ReservationApproved, second.Columns[0].Placements[0].Reservation.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineService_Day_CacheHit(t *testing.T) {
	cache := newFakeCache()
	svc, mock := setupTimelineService(t, cache)
	sp := models.Space{ID: uuid.New(), Name: "Blue Room", Slug: "blue-room"}
	cache.entries["all/2024-03-11"] = []models.Reservation{
		newReservation(sp.ID, uuid.New(), models.ReservationPending, hour(9, 0), hour(10, 0)),
	}

	mock.ExpectQuery(`SELECT .+ FROM spaces ORDER BY name`).
		WillReturnRows(spaceRows(sp))

	out, err := svc.Day(context.Background(), booking.Actor{ID: uuid.New()}, TimelineQuery{Date: day})

	require.NoError(t, err)
	require.Len(t, out.Columns, 1)
	assert.Len(t, out.Columns[0].Placements, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineService_Day_CacheErrorFallsBackToDatabase(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	svc, mock := setupTimelineService(t, cache)

	mock.ExpectQuery(`SELECT .+ FROM spaces ORDER BY name`).
		WillReturnRows(spaceRows())
	mock.ExpectQuery(`SELECT .+ FROM reservations`).
		WithArgs((*uuid.UUID)(nil), allStatuses, day, day.AddDate(0, 0, 1)).
		WillReturnRows(reservationRows())

	out, err := svc.Day(context.Background(), booking.Actor{ID: uuid.New()}, TimelineQuery{Date: day})

	require.NoError(t, err)
	assert.Empty(t, out.Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineService_Day_Visibility(t *testing.T) {
	sp := models.Space{ID: uuid.New(), Name: "Blue Room", Slug: "blue-room"}
	organizer := uuid.New()
	rejected := newReservation(sp.ID, organizer, models.ReservationRejected, hour(9, 0), hour(10, 0))
	approved := newReservation(sp.ID, uuid.New(), models.ReservationApproved, hour(11, 0), hour(12, 0))

	testCases := []struct {
		name     string
		viewer   booking.Actor
		mine     bool
		expected int
	}{
		{"stranger sees no rejected", booking.Actor{ID: uuid.New()}, false, 1},
		{"organizer sees own rejected", booking.Actor{ID: organizer}, false, 2},
		{"admin sees everything", booking.Actor{ID: uuid.New(), Admin: true}, false, 2},
		{"mine filters to organizer", booking.Actor{ID: organizer}, true, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cache := newFakeCache()
			cache.entries[sp.ID.String()+"/2024-03-11"] = []models.Reservation{rejected, approved}
			svc, mock := setupTimelineService(t, cache)

			mock.ExpectQuery(`SELECT .+ FROM spaces WHERE id`).
				WithArgs(sp.ID).
				WillReturnRows(spaceRows(sp))

			out, err := svc.Day(context.Background(), tc.viewer, TimelineQuery{SpaceID: &sp.ID, Date: day, Mine: tc.mine})

			require.NoError(t, err)
			assert.Len(t, out.Columns[0].Placements, tc.expected)
		})
	}
}

func TestTimelineService_Day_TimeZone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Belgrade")
	require.NoError(t, err)

	mock := mustPool(t)
	db := &database.DB{Pool: mock}
	svc := NewTimelineService(db, NewSpaceService(db, booking.PolicyApproved), nil, loc, booking.DefaultWindow)
	dayStart := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)

	mock.ExpectQuery(`SELECT .+ FROM spaces ORDER BY name`).
		WillReturnRows(spaceRows())
	mock.ExpectQuery(`SELECT .+ FROM reservations`).
		WithArgs((*uuid.UUID)(nil), allStatuses, dayStart, dayStart.AddDate(0, 0, 1)).
		WillReturnRows(reservationRows())

	// 23:30 UTC on the 10th is already the 11th in Belgrade.
	out, err := svc.Day(context.Background(), booking.Actor{ID: uuid.New()}, TimelineQuery{
		Date: time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", out.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}
