package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/middleware"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/dimitrije/spacebook-api/pkg/dto"
	"github.com/dimitrije/spacebook-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTimelineTest(t *testing.T) (*testutil.MockTimelineService, *testutil.MockSpaceService, http.Handler, *services.JWTService) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Belgrade")
	require.NoError(t, err)

	mockTimeline := new(testutil.MockTimelineService)
	mockSpaces := new(testutil.MockSpaceService)
	handler := NewTimelineHandler(mockTimeline, mockSpaces, loc)
	// 23:30 UTC is already the next day in Belgrade.
	handler.now = func() time.Time { return time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC) }
	jwtSvc := newTestJWTService()

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/timeline", handler.All)
	app.Get("/spaces/:spaceId/timeline", handler.Space)

	return mockTimeline, mockSpaces, app, jwtSvc
}

func onDay(day string) func(services.TimelineQuery) bool {
	return func(q services.TimelineQuery) bool {
		return q.Date.Format(dateLayout) == day
	}
}

func TestTimelineHandler_All(t *testing.T) {
	mockTimeline, _, app, jwtSvc := setupTimelineTest(t)
	user := newTestUser(t, jwtSvc, false)

	space := models.Space{ID: uuid.New(), Name: "Blue Room", Slug: "blue-room"}
	r := models.Reservation{
		ID:       uuid.New(),
		SpaceID:  space.ID,
		UserID:   user.actor.ID,
		Name:     "Planning",
		StartsAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Status:   models.ReservationPending,
	}
	day := &services.DayTimeline{
		Date:  "2026-03-02",
		Slots: []string{"08:00", "08:30"},
		Columns: []services.SpaceTimeline{{
			Space: space,
			Timeline: booking.Timeline{
				Lanes:      1,
				Placements: []booking.Placement{{Reservation: r, Top: 120, Height: 120, Lane: 0}},
			},
		}},
	}

	mockTimeline.On("Day", mock.Anything, user.actor, mock.MatchedBy(func(q services.TimelineQuery) bool {
		return q.SpaceID == nil && !q.Mine && q.Date.Format(dateLayout) == "2026-03-02"
	})).Return(day, nil)

	rec := serve(app, http.MethodGet, "/timeline", user.token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.TimelineResponse](t, rec)
	assert.Equal(t, "2026-03-02", resp.Date)
	assert.Equal(t, []string{"08:00", "08:30"}, resp.Slots)
	require.Len(t, resp.Columns, 1)
	col := resp.Columns[0]
	assert.Equal(t, "blue-room", col.Space.Slug)
	assert.Equal(t, 1, col.Lanes)
	require.Len(t, col.Placements, 1)
	assert.Equal(t, 120.0, col.Placements[0].Top)
	assert.Equal(t, 120.0, col.Placements[0].Height)
	assert.True(t, col.Placements[0].Reservation.IsOrganizer)

	mockTimeline.AssertExpectations(t)
}

func TestTimelineHandler_Space_Mine(t *testing.T) {
	mockTimeline, mockSpaces, app, jwtSvc := setupTimelineTest(t)
	user := newTestUser(t, jwtSvc, false)

	space := &models.Space{ID: uuid.New(), Name: "Blue Room", Slug: "blue-room"}
	mockSpaces.On("Resolve", mock.Anything, "blue-room").Return(space, nil)
	mockTimeline.On("Day", mock.Anything, user.actor, mock.MatchedBy(func(q services.TimelineQuery) bool {
		return q.SpaceID != nil && *q.SpaceID == space.ID && q.Mine && onDay("2026-03-10")(q)
	})).Return(&services.DayTimeline{Date: "2026-03-10"}, nil)

	rec := serve(app, http.MethodGet, "/spaces/blue-room/timeline?date=2026-03-10&filter=mine", user.token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.TimelineResponse](t, rec)
	assert.Equal(t, "2026-03-10", resp.Date)
	assert.Empty(t, resp.Columns)

	mockTimeline.AssertExpectations(t)
	mockSpaces.AssertExpectations(t)
}

func TestTimelineHandler_Space_NotFound(t *testing.T) {
	mockTimeline, mockSpaces, app, jwtSvc := setupTimelineTest(t)
	user := newTestUser(t, jwtSvc, false)

	mockSpaces.On("Resolve", mock.Anything, "ghost").Return(nil, services.ErrSpaceNotFound)

	rec := serve(app, http.MethodGet, "/spaces/ghost/timeline", user.token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockTimeline.AssertNotCalled(t, "Day", mock.Anything, mock.Anything, mock.Anything)
}

func TestTimelineHandler_InvalidDate(t *testing.T) {
	mockTimeline, _, app, jwtSvc := setupTimelineTest(t)
	user := newTestUser(t, jwtSvc, false)

	rec := serve(app, http.MethodGet, "/timeline?date=02.03.2026", user.token, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[dto.ValidationErrorResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "date", resp.Errors[0].Field)
	mockTimeline.AssertNotCalled(t, "Day", mock.Anything, mock.Anything, mock.Anything)
}
