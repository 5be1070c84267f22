package handlers

import (
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/dimitrije/spacebook-api/pkg/dto"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Provider:  u.Provider,
		Role:      u.Role,
	}
}

func toSpaceResponse(sp *models.Space) dto.SpaceResponse {
	return dto.SpaceResponse{
		ID:          sp.ID,
		Name:        sp.Name,
		Slug:        sp.Slug,
		Description: sp.Description,
		Capacity:    sp.Capacity,
		Price:       sp.Price,
		Address:     sp.Address,
		CreatedAt:   formatTime(sp.CreatedAt),
		UpdatedAt:   formatTime(sp.UpdatedAt),
	}
}

// toReservationResponse renders r as seen by viewer. The flags tell clients
// which actions the viewer may take.
func toReservationResponse(r *models.Reservation, viewer booking.Actor) dto.ReservationResponse {
	resp := dto.ReservationResponse{
		ID:          r.ID,
		SpaceID:     r.SpaceID,
		UserID:      r.UserID,
		Name:        r.Name,
		Description: r.Description,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		Status:      string(r.Status),
		IsOrganizer: r.IsOrganizer(viewer.ID),
		CanDecide:   booking.AuthorizeDecision(viewer, r) == nil && r.Status == models.ReservationPending,
		CreatedAt:   formatTime(r.CreatedAt),
		UpdatedAt:   formatTime(r.UpdatedAt),
	}
	if r.Space != nil {
		sp := toSpaceResponse(r.Space)
		resp.Space = &sp
	}
	if r.Organizer != nil {
		u := toUserResponse(r.Organizer)
		resp.Organizer = &u
	}
	return resp
}

func toReservationList(rs []models.Reservation, viewer booking.Actor) []dto.ReservationResponse {
	out := make([]dto.ReservationResponse, 0, len(rs))
	for i := range rs {
		out = append(out, toReservationResponse(&rs[i], viewer))
	}
	return out
}

func toAvailabilityResponse(a booking.Availability, viewer booking.Actor) dto.AvailabilityResponse {
	resp := dto.AvailabilityResponse{
		Status:      string(a.Status),
		Until:       a.Until,
		NextEventAt: a.NextEventAt,
	}
	if a.Event != nil {
		ev := toReservationResponse(a.Event, viewer)
		resp.Event = &ev
	}
	return resp
}

func toTimelineResponse(t *services.DayTimeline, viewer booking.Actor) dto.TimelineResponse {
	resp := dto.TimelineResponse{
		Date:    t.Date,
		Slots:   t.Slots,
		Columns: make([]dto.SpaceTimelineResponse, 0, len(t.Columns)),
	}
	for i := range t.Columns {
		col := &t.Columns[i]
		out := dto.SpaceTimelineResponse{
			Space:      toSpaceResponse(&col.Space),
			Lanes:      col.Lanes,
			Placements: make([]dto.PlacementResponse, 0, len(col.Placements)),
		}
		for _, p := range col.Placements {
			out.Placements = append(out.Placements, dto.PlacementResponse{
				Reservation: toReservationResponse(&p.Reservation, viewer),
				Top:         p.Top,
				Height:      p.Height,
				Lane:        p.Lane,
			})
		}
		resp.Columns = append(resp.Columns, out)
	}
	return resp
}
