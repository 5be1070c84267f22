package handlers

import (
	"net/http"
	"time"

	"github.com/dimitrije/spacebook-api/internal/middleware"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/dimitrije/spacebook-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const dateLayout = "2006-01-02"

type TimelineHandler struct {
	timelineService TimelineServiceInterface
	spaceService    SpaceServiceInterface
	loc             *time.Location
	now             func() time.Time
}

func NewTimelineHandler(timelineService TimelineServiceInterface, spaceService SpaceServiceInterface, loc *time.Location) *TimelineHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TimelineHandler{
		timelineService: timelineService,
		spaceService:    spaceService,
		loc:             loc,
		now:             time.Now,
	}
}

// parseDate reads a YYYY-MM-DD day in the handler's time zone, defaulting to
// today.
func (h *TimelineHandler) parseDate(v string) time.Time {
	if v == "" {
		return h.now().In(h.loc)
	}
	d, _ := time.ParseInLocation(dateLayout, v, h.loc)
	return d
}

// All lays out the day for every space.
func (h *TimelineHandler) All(c *drift.Context) {
	h.render(c, nil)
}

// Space lays out the day for one space, given by id or slug.
func (h *TimelineHandler) Space(c *drift.Context) {
	sp, err := h.spaceService.Resolve(c.Request.Context(), c.Param("spaceId"))
	if err != nil {
		writeError(c, err, "get timeline")
		return
	}
	h.render(c, &sp.ID)
}

func (h *TimelineHandler) render(c *drift.Context, spaceID *uuid.UUID) {
	q := dto.TimelineQuery{
		Date:   c.QueryParam("date"),
		Filter: c.QueryParam("filter"),
	}
	if !validateRequest(c, &q) {
		return
	}

	viewer := middleware.Actor(c)
	timeline, err := h.timelineService.Day(c.Request.Context(), viewer, services.TimelineQuery{
		SpaceID: spaceID,
		Date:    h.parseDate(q.Date),
		Mine:    q.Filter == "mine",
	})
	if err != nil {
		writeError(c, err, "get timeline")
		return
	}
	_ = c.JSON(http.StatusOK, toTimelineResponse(timeline, viewer))
}
