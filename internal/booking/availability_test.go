package booking

import (
	"testing"

	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusAt_Scenario(t *testing.T) {
	spaceID := uuid.New()
	r := reservation(spaceID, models.ReservationApproved, at(10, 0), at(12, 0))
	reservations := []models.Reservation{r}

	t.Run("inside", func(t *testing.T) {
		got := StatusAt(reservations, at(11, 0))

		assert.Equal(t, Occupied, got.Status)
		require.NotNil(t, got.Until)
		assert.True(t, got.Until.Equal(at(12, 0)))
		assert.Nil(t, got.NextEventAt)
		require.NotNil(t, got.Event)
		assert.Equal(t, r.ID, got.Event.ID)
	})

	t.Run("at end", func(t *testing.T) {
		got := StatusAt(reservations, at(12, 0))

		assert.Equal(t, Available, got.Status)
		assert.Nil(t, got.Until)
		assert.Nil(t, got.NextEventAt)
		assert.Nil(t, got.Event)
	})

	t.Run("before", func(t *testing.T) {
		got := StatusAt(reservations, at(9, 0))

		assert.Equal(t, Available, got.Status)
		require.NotNil(t, got.NextEventAt)
		assert.True(t, got.NextEventAt.Equal(at(10, 0)))
		require.NotNil(t, got.Event)
		assert.Equal(t, r.ID, got.Event.ID)
	})

	t.Run("at start", func(t *testing.T) {
		assert.Equal(t, Occupied, StatusAt(reservations, at(10, 0)).Status)
	})
}

func TestStatusAt_Empty(t *testing.T) {
	got := StatusAt(nil, at(10, 0))

	assert.Equal(t, Availability{Status: Available}, got)
}

func TestStatusAt_PicksEarliestNext(t *testing.T) {
	spaceID := uuid.New()
	later := reservation(spaceID, models.ReservationApproved, at(15, 0), at(16, 0))
	sooner := reservation(spaceID, models.ReservationApproved, at(13, 0), at(14, 0))

	got := StatusAt([]models.Reservation{later, sooner}, at(9, 0))

	require.NotNil(t, got.Event)
	assert.Equal(t, sooner.ID, got.Event.ID)
}

func TestStatusAt_DoesNotAliasInput(t *testing.T) {
	reservations := []models.Reservation{reservation(uuid.New(), models.ReservationApproved, at(10, 0), at(12, 0))}

	got := StatusAt(reservations, at(11, 0))
	got.Event.Name = "changed"

	assert.Equal(t, "Standup", reservations[0].Name)
}

func TestAvailableAtAndNextAfter(t *testing.T) {
	spaceID := uuid.New()
	reservations := []models.Reservation{
		reservation(spaceID, models.ReservationApproved, at(10, 0), at(11, 0)),
		reservation(spaceID, models.ReservationApproved, at(14, 0), at(15, 0)),
	}

	assert.False(t, AvailableAt(reservations, at(10, 30)))
	assert.True(t, AvailableAt(reservations, at(11, 0)))

	next := NextAfter(reservations, at(10, 0))
	require.NotNil(t, next)
	assert.Equal(t, reservations[1].ID, next.ID)
	assert.Nil(t, NextAfter(reservations, at(14, 0)))
}

func TestOccupancyPolicy(t *testing.T) {
	spaceID := uuid.New()
	reservations := []models.Reservation{
		reservation(spaceID, models.ReservationApproved, at(9, 0), at(10, 0)),
		reservation(spaceID, models.ReservationPending, at(10, 0), at(11, 0)),
		reservation(spaceID, models.ReservationRejected, at(11, 0), at(12, 0)),
	}

	testCases := []struct {
		policy   OccupancyPolicy
		expected int
		busyAt10 bool
	}{
		{PolicyApproved, 1, false},
		{PolicyActive, 2, true},
		{PolicyAll, 3, true},
	}

	for _, tc := range testCases {
		t.Run(string(tc.policy), func(t *testing.T) {
			filtered := tc.policy.Filter(reservations)

			assert.Len(t, filtered, tc.expected)
			assert.Len(t, tc.policy.Statuses(), tc.expected)
			assert.Equal(t, tc.busyAt10, !AvailableAt(filtered, at(10, 30)))
		})
	}
}

func TestParseOccupancyPolicy(t *testing.T) {
	p, err := ParseOccupancyPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyApproved, p)

	p, err = ParseOccupancyPolicy("active")
	require.NoError(t, err)
	assert.Equal(t, PolicyActive, p)

	_, err = ParseOccupancyPolicy("busy")
	assert.Error(t, err)
}
