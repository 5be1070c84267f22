package booking

import (
	"fmt"
	"time"

	"github.com/dimitrije/spacebook-api/internal/models"
)

type Occupancy string

const (
	Occupied  Occupancy = "occupied"
	Available Occupancy = "available"
)

// Availability is the status of a space at a reference instant. Until is set
// when occupied, NextEventAt when a later reservation exists.
type Availability struct {
	Status      Occupancy           `json:"status"`
	Until       *time.Time          `json:"until,omitempty"`
	NextEventAt *time.Time          `json:"next_event_at,omitempty"`
	Event       *models.Reservation `json:"event,omitempty"`
}

// StatusAt derives the occupancy at the instant at from every reservation it
// is given. Callers choose which statuses count with an OccupancyPolicy.
func StatusAt(reservations []models.Reservation, at time.Time) Availability {
	if cur := currentAt(reservations, at); cur != nil {
		until := cur.EndsAt
		return Availability{Status: Occupied, Until: &until, Event: cur}
	}
	if next := NextAfter(reservations, at); next != nil {
		start := next.StartsAt
		return Availability{Status: Available, NextEventAt: &start, Event: next}
	}
	return Availability{Status: Available}
}

// AvailableAt reports whether no reservation covers the instant at.
func AvailableAt(reservations []models.Reservation, at time.Time) bool {
	return currentAt(reservations, at) == nil
}

// NextAfter returns a copy of the reservation with the smallest start strictly
// after at, or nil.
func NextAfter(reservations []models.Reservation, at time.Time) *models.Reservation {
	var next *models.Reservation
	for i := range reservations {
		r := &reservations[i]
		if !r.StartsAt.After(at) {
			continue
		}
		if next == nil || r.StartsAt.Before(next.StartsAt) {
			next = r
		}
	}
	if next == nil {
		return nil
	}
	out := *next
	return &out
}

// currentAt returns the reservation covering at. When several do (possible
// under policies that count pending requests) the earliest start wins.
func currentAt(reservations []models.Reservation, at time.Time) *models.Reservation {
	var cur *models.Reservation
	for i := range reservations {
		r := &reservations[i]
		if r.StartsAt.After(at) || !r.EndsAt.After(at) {
			continue
		}
		if cur == nil || r.StartsAt.Before(cur.StartsAt) {
			cur = r
		}
	}
	if cur == nil {
		return nil
	}
	out := *cur
	return &out
}

// OccupancyPolicy selects which reservation statuses make a space occupied.
type OccupancyPolicy string

const (
	PolicyApproved OccupancyPolicy = "approved"
	PolicyActive   OccupancyPolicy = "active"
	PolicyAll      OccupancyPolicy = "all"
)

func ParseOccupancyPolicy(v string) (OccupancyPolicy, error) {
	switch p := OccupancyPolicy(v); p {
	case PolicyApproved, PolicyActive, PolicyAll:
		return p, nil
	case "":
		return PolicyApproved, nil
	}
	return "", fmt.Errorf("unknown occupancy policy %q", v)
}

func (p OccupancyPolicy) Counts(s models.ReservationStatus) bool {
	switch p {
	case PolicyAll:
		return true
	case PolicyActive:
		return s == models.ReservationApproved || s == models.ReservationPending
	default:
		return s == models.ReservationApproved
	}
}

// Statuses lists the statuses the policy counts, for building queries.
func (p OccupancyPolicy) Statuses() []models.ReservationStatus {
	var out []models.ReservationStatus
	for _, s := range []models.ReservationStatus{
		models.ReservationPending, models.ReservationApproved, models.ReservationRejected,
	} {
		if p.Counts(s) {
			out = append(out, s)
		}
	}
	return out
}

func (p OccupancyPolicy) Filter(reservations []models.Reservation) []models.Reservation {
	out := make([]models.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if p.Counts(r.Status) {
			out = append(out, r)
		}
	}
	return out
}
