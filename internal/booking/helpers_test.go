package booking

import (
	"time"

	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
)

var testDay = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func reservation(spaceID uuid.UUID, status models.ReservationStatus, start, end time.Time) models.Reservation {
	return models.Reservation{
		ID:       uuid.New(),
		SpaceID:  spaceID,
		UserID:   uuid.New(),
		Name:     "Standup",
		StartsAt: start,
		EndsAt:   end,
		Status:   status,
	}
}
