package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/database"
	"github.com/dimitrije/spacebook-api/internal/models"
)

const upcomingLimit = 10

type SpaceStatus struct {
	Space        models.Space
	Availability booking.Availability
}

type Home struct {
	Spaces   []SpaceStatus
	Timeline *DayTimeline
	Upcoming []models.Reservation
	// Pending is the approval queue. Only filled for admins.
	Pending []models.Reservation
}

type DashboardService struct {
	db       *database.DB
	spaces   *SpaceService
	timeline *TimelineService
}

func NewDashboardService(db *database.DB, spaces *SpaceService, timeline *TimelineService) *DashboardService {
	return &DashboardService{db: db, spaces: spaces, timeline: timeline}
}

// Home gathers the landing view for viewer: every space with its status at
// the instant at, the timeline of date, the viewer's upcoming reservations
// and, for admins, the pending reservations waiting for a decision.
func (s *DashboardService) Home(ctx context.Context, viewer booking.Actor, date, at time.Time) (*Home, error) {
	spaces, err := s.spaces.List(ctx)
	if err != nil {
		return nil, err
	}

	statuses, err := s.spaces.StatusAll(ctx, nil, at)
	if err != nil {
		return nil, err
	}

	home := &Home{Spaces: make([]SpaceStatus, 0, len(spaces))}
	for _, sp := range spaces {
		availability, ok := statuses[sp.ID]
		if !ok {
			availability = booking.StatusAt(nil, at)
		}
		home.Spaces = append(home.Spaces, SpaceStatus{Space: sp, Availability: availability})
	}

	if home.Timeline, err = s.timeline.Day(ctx, viewer, TimelineQuery{Date: date}); err != nil {
		return nil, err
	}

	if home.Upcoming, err = s.upcoming(ctx, viewer, at); err != nil {
		return nil, err
	}

	home.Pending = []models.Reservation{}
	if viewer.Admin {
		if home.Pending, err = s.pendingQueue(ctx, at); err != nil {
			return nil, err
		}
	}
	return home, nil
}

func (s *DashboardService) upcoming(ctx context.Context, viewer booking.Actor, at time.Time) ([]models.Reservation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE user_id = $1 AND ends_at > $2
		ORDER BY starts_at
		LIMIT $3
	`, viewer.ID, at, upcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming reservations: %w", err)
	}
	return collectReservations(rows)
}

func (s *DashboardService) pendingQueue(ctx context.Context, at time.Time) ([]models.Reservation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE status = 'pending' AND ends_at > $1
		ORDER BY starts_at
	`, at)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending reservations: %w", err)
	}
	return collectReservations(rows)
}
