package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/database"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// TimelineCache stores the raw reservations of a (scope, day) pair. The scope
// is a space id or "all". Get reports the generation it looked up; Set must be
// given that generation so a snapshot loaded before an invalidation is never
// served after it.
type TimelineCache interface {
	CacheInvalidator
	Get(ctx context.Context, scope, day string) ([]models.Reservation, int64, bool, error)
	Set(ctx context.Context, scope, day string, gen int64, reservations []models.Reservation) error
}

type TimelineQuery struct {
	SpaceID *uuid.UUID
	Date    time.Time
	// Mine limits the view to the viewer's own reservations.
	Mine bool
}

type SpaceTimeline struct {
	Space models.Space
	booking.Timeline
}

type DayTimeline struct {
	Date    string
	Slots   []string
	Columns []SpaceTimeline
}

type TimelineService struct {
	db     *database.DB
	spaces *SpaceService
	cache  TimelineCache
	loc    *time.Location
	window booking.Window
}

func NewTimelineService(db *database.DB, spaces *SpaceService, cache TimelineCache, loc *time.Location, window booking.Window) *TimelineService {
	if loc == nil {
		loc = time.UTC
	}
	return &TimelineService{db: db, spaces: spaces, cache: cache, loc: loc, window: window}
}

// Day lays out the reservations of one space, or of every space, on the
// calendar day of q.Date in the service's time zone.
func (s *TimelineService) Day(ctx context.Context, viewer booking.Actor, q TimelineQuery) (*DayTimeline, error) {
	y, m, d := q.Date.In(s.loc).Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	day := dayStart.Format(dateLayout)

	var spaces []models.Space
	if q.SpaceID != nil {
		sp, err := s.spaces.GetByID(ctx, *q.SpaceID)
		if err != nil {
			return nil, err
		}
		spaces = []models.Space{*sp}
	} else {
		var err error
		if spaces, err = s.spaces.List(ctx); err != nil {
			return nil, err
		}
	}

	reservations, err := s.dayReservations(ctx, q.SpaceID, day, dayStart)
	if err != nil {
		return nil, err
	}

	bySpace := make(map[uuid.UUID][]models.Reservation)
	for _, r := range reservations {
		if !booking.Visible(viewer, &r) || (q.Mine && !r.IsOrganizer(viewer.ID)) {
			continue
		}
		bySpace[r.SpaceID] = append(bySpace[r.SpaceID], r)
	}

	out := &DayTimeline{
		Date:    day,
		Slots:   s.window.SlotLabels(),
		Columns: make([]SpaceTimeline, 0, len(spaces)),
	}
	for _, sp := range spaces {
		out.Columns = append(out.Columns, SpaceTimeline{
			Space:    sp,
			Timeline: booking.Layout(bySpace[sp.ID], dayStart, s.loc, s.window),
		})
	}
	return out, nil
}

func scopeKey(spaceID *uuid.UUID) string {
	if spaceID == nil {
		return "all"
	}
	return spaceID.String()
}

// dayReservations returns every reservation, whatever its status, that
// intersects the day. The unfiltered list is what gets cached so one entry
// serves every viewer.
func (s *TimelineService) dayReservations(ctx context.Context, spaceID *uuid.UUID, day string, dayStart time.Time) ([]models.Reservation, error) {
	scope := scopeKey(spaceID)
	var gen int64
	cacheable := s.cache != nil
	if cacheable {
		cached, g, ok, err := s.cache.Get(ctx, scope, day)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "timeline cache read failed", "scope", scope, "day", day, "error", err)
			cacheable = false
		case ok:
			return cached, nil
		}
		gen = g
	}

	all := []models.ReservationStatus{models.ReservationPending, models.ReservationApproved, models.ReservationRejected}
	reservations, err := ReservationsForSpace(ctx, s.db.Pool, spaceID, dayStart, dayStart.AddDate(0, 0, 1), all)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, scope, day, gen, reservations); err != nil {
			slog.WarnContext(ctx, "timeline cache write failed", "scope", scope, "day", day, "error", err)
		}
	}
	return reservations, nil
}
