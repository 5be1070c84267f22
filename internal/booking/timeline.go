package booking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dimitrije/spacebook-api/internal/models"
)

// Window is the visible part of a day and the vertical scale used to place
// reservations in it.
type Window struct {
	StartHour   int
	EndHour     int
	SlotMinutes int
	SlotHeight  float64
	MinHeight   float64
}

var DefaultWindow = Window{
	StartHour:   8,
	EndHour:     22,
	SlotMinutes: 30,
	SlotHeight:  60,
	MinHeight:   40,
}

func (w Window) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("timeline window %d-%d is not a valid range of hours", w.StartHour, w.EndHour)
	}
	if w.SlotMinutes <= 0 {
		return errors.New("timeline slot minutes must be positive")
	}
	if w.SlotHeight <= 0 || w.MinHeight < 0 {
		return errors.New("timeline heights must be positive")
	}
	return nil
}

// Bounds returns the window's first and last instant on the calendar day of
// day in loc.
func (w Window) Bounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, w.StartHour, 0, 0, 0, loc), time.Date(y, m, d, w.EndHour, 0, 0, 0, loc)
}

// SlotLabels returns the "HH:MM" label of every slot boundary in the window.
func (w Window) SlotLabels() []string {
	var labels []string
	for m := w.StartHour * 60; m <= w.EndHour*60; m += w.SlotMinutes {
		labels = append(labels, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return labels
}

type Placement struct {
	Reservation models.Reservation `json:"reservation"`
	Top         float64            `json:"top"`
	Height      float64            `json:"height"`
	Lane        int                `json:"lane"`
}

type Timeline struct {
	Placements []Placement `json:"placements"`
	Lanes      int         `json:"lanes"`
}

type span struct {
	start, end float64
}

// Layout places the reservations starting inside the window on the given day
// into the fewest lanes such that no two reservations in a lane overlap.
// Reservations are considered in start order; ties keep input order.
func Layout(reservations []models.Reservation, day time.Time, loc *time.Location, w Window) Timeline {
	if loc == nil {
		loc = time.UTC
	}
	windowStart, windowEnd := w.Bounds(day, loc)
	dy, dm, dd := day.In(loc).Date()

	sorted := make([]models.Reservation, len(reservations))
	copy(sorted, reservations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartsAt.Before(sorted[j].StartsAt)
	})

	tl := Timeline{Placements: make([]Placement, 0, len(sorted))}
	var lanes [][]span

	for _, r := range sorted {
		if !r.EndsAt.After(r.StartsAt) {
			continue
		}
		start := r.StartsAt.In(loc)
		if y, m, d := start.Date(); y != dy || m != dm || d != dd {
			continue
		}
		if start.Before(windowStart) || !start.Before(windowEnd) {
			continue
		}
		end := r.EndsAt
		if end.After(windowEnd) {
			end = windowEnd
		}

		s := span{
			start: start.Sub(windowStart).Minutes(),
			end:   end.Sub(windowStart).Minutes(),
		}

		lane := -1
		for i, occupied := range lanes {
			if fits(occupied, s) {
				lane = i
				break
			}
		}
		if lane < 0 {
			lanes = append(lanes, nil)
			lane = len(lanes) - 1
		}
		lanes[lane] = append(lanes[lane], s)

		slot := float64(w.SlotMinutes)
		tl.Placements = append(tl.Placements, Placement{
			Reservation: r,
			Top:         s.start / slot * w.SlotHeight,
			Height:      math.Max((s.end-s.start)/slot*w.SlotHeight, w.MinHeight),
			Lane:        lane,
		})
	}

	tl.Lanes = max(len(lanes), 1)
	return tl
}

func fits(lane []span, s span) bool {
	for _, o := range lane {
		if o.start < s.end && o.end > s.start {
			return false
		}
	}
	return true
}
