package handlers

import (
	"net/http"
	"time"

	"github.com/dimitrije/spacebook-api/internal/middleware"
	"github.com/dimitrije/spacebook-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type HomeHandler struct {
	dashboardService DashboardServiceInterface
	loc              *time.Location
	now              func() time.Time
}

func NewHomeHandler(dashboardService DashboardServiceInterface, loc *time.Location) *HomeHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &HomeHandler{dashboardService: dashboardService, loc: loc, now: time.Now}
}

func (h *HomeHandler) Get(c *drift.Context) {
	q := dto.HomeQuery{
		Date: c.QueryParam("date"),
		At:   c.QueryParam("at"),
	}
	if !validateRequest(c, &q) {
		return
	}

	at := h.now()
	if q.At != "" {
		at, _ = time.Parse(time.RFC3339, q.At)
	}
	date := at.In(h.loc)
	if q.Date != "" {
		date, _ = time.ParseInLocation(dateLayout, q.Date, h.loc)
	}

	viewer := middleware.Actor(c)
	home, err := h.dashboardService.Home(c.Request.Context(), viewer, date, at)
	if err != nil {
		writeError(c, err, "load home")
		return
	}

	resp := dto.HomeResponse{
		Spaces:   make([]dto.HomeSpace, 0, len(home.Spaces)),
		Timeline: toTimelineResponse(home.Timeline, viewer),
		Upcoming: toReservationList(home.Upcoming, viewer),
		Pending:  toReservationList(home.Pending, viewer),
	}
	for i := range home.Spaces {
		s := &home.Spaces[i]
		resp.Spaces = append(resp.Spaces, dto.HomeSpace{
			Space:  toSpaceResponse(&s.Space),
			Status: toAvailabilityResponse(s.Availability, viewer),
		})
	}
	_ = c.JSON(http.StatusOK, resp)
}
