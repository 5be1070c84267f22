package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/middleware"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/dimitrije/spacebook-api/internal/sse"
	"github.com/dimitrije/spacebook-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const notifyTimeout = 30 * time.Second

type ReservationHandler struct {
	reservationService ReservationServiceInterface
	hub                HubInterface
	notifier           NotifierInterface
	// notified, when set, runs after each background notice.
	notified func()
}

func NewReservationHandler(
	reservationService ReservationServiceInterface,
	hub HubInterface,
	notifier NotifierInterface,
) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		hub:                hub,
		notifier:           notifier,
	}
}

func parseID(c *drift.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid reservation id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReservationHandler) List(c *drift.Context) {
	q := dto.ListReservationsQuery{
		SpaceID: c.QueryParam("space_id"),
		Status:  c.QueryParam("status"),
		Filter:  c.QueryParam("filter"),
		From:    c.QueryParam("from"),
		To:      c.QueryParam("to"),
	}
	if !validateRequest(c, &q) {
		return
	}

	viewer := middleware.Actor(c)
	var filter services.ReservationFilter
	if q.SpaceID != "" {
		id := uuid.MustParse(q.SpaceID)
		filter.SpaceID = &id
	}
	if q.Status != "" {
		status := models.ReservationStatus(q.Status)
		filter.Status = &status
	}
	if q.Filter == "mine" {
		filter.UserID = &viewer.ID
	}
	if q.From != "" {
		from, _ := time.Parse(time.RFC3339, q.From)
		filter.From = &from
	}
	if q.To != "" {
		to, _ := time.Parse(time.RFC3339, q.To)
		filter.To = &to
	}

	reservations, err := h.reservationService.List(c.Request.Context(), viewer, filter)
	if err != nil {
		writeError(c, err, "list reservations")
		return
	}
	_ = c.JSON(http.StatusOK, toReservationList(reservations, viewer))
}

func (h *ReservationHandler) Get(c *drift.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	viewer := middleware.Actor(c)
	r, err := h.reservationService.GetDetailed(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "get reservation")
		return
	}
	if !booking.Visible(viewer, r) {
		c.NotFound(services.ErrReservationNotFound.Error())
		return
	}
	_ = c.JSON(http.StatusOK, toReservationResponse(r, viewer))
}

func (h *ReservationHandler) Create(c *drift.Context) {
	var req dto.CreateReservationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if !validateRequest(c, &req) {
		return
	}

	in := services.CreateReservationInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ReservationStatus(req.Status),
	}
	if req.SpaceID != nil {
		in.SpaceID = *req.SpaceID
	}
	if req.StartsAt != nil {
		in.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		in.EndsAt = *req.EndsAt
	}

	actor := middleware.Actor(c)
	ctx := c.Request.Context()
	r, err := retryOnConflict(func() (*models.Reservation, error) {
		return h.reservationService.Create(ctx, actor, in)
	})
	if err != nil {
		writeError(c, err, "create reservation")
		return
	}

	h.hub.BroadcastReservation(sse.ReservationCreated, r, actor.ID)
	_ = c.JSON(http.StatusCreated, toReservationResponse(r, actor))
}

func (h *ReservationHandler) Update(c *drift.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateReservationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if !validateRequest(c, &req) {
		return
	}

	in := services.UpdateReservationInput{
		SpaceID:     req.SpaceID,
		Name:        req.Name,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}

	actor := middleware.Actor(c)
	ctx := c.Request.Context()
	var previous *models.Reservation
	r, err := retryOnConflict(func() (*models.Reservation, error) {
		updated, before, err := h.reservationService.Update(ctx, actor, id, in)
		previous = before
		return updated, err
	})
	if err != nil {
		writeError(c, err, "update reservation")
		return
	}

	// Followers of the space it left see it go.
	if previous != nil && previous.SpaceID != r.SpaceID {
		h.hub.BroadcastReservation(sse.ReservationDeleted, previous, actor.ID)
	}
	h.hub.BroadcastReservation(sse.ReservationUpdated, r, actor.ID)
	_ = c.JSON(http.StatusOK, toReservationResponse(r, actor))
}

func (h *ReservationHandler) Delete(c *drift.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	actor := middleware.Actor(c)
	r, err := h.reservationService.Delete(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err, "delete reservation")
		return
	}

	h.hub.BroadcastReservation(sse.ReservationDeleted, r, actor.ID)
	_ = c.JSON(http.StatusOK, map[string]string{"message": "reservation deleted"})
}

func (h *ReservationHandler) Approve(c *drift.Context) {
	h.decide(c, models.ReservationApproved)
}

func (h *ReservationHandler) Reject(c *drift.Context) {
	h.decide(c, models.ReservationRejected)
}

func (h *ReservationHandler) decide(c *drift.Context, to models.ReservationStatus) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	actor := middleware.Actor(c)
	ctx := c.Request.Context()
	r, err := retryOnConflict(func() (*models.Reservation, error) {
		if to == models.ReservationApproved {
			return h.reservationService.Approve(ctx, actor, id)
		}
		return h.reservationService.Reject(ctx, actor, id)
	})
	if err != nil {
		writeError(c, err, "decide reservation")
		return
	}

	event := sse.ReservationApproved
	if to == models.ReservationRejected {
		event = sse.ReservationRejected
	}
	h.hub.BroadcastReservation(event, r, actor.ID)
	h.notifyOrganizer(r)

	_ = c.JSON(http.StatusOK, toReservationResponse(r, actor))
}

// notifyOrganizer mails the decision in the background. Failures are logged
// and never affect the response.
func (h *ReservationHandler) notifyOrganizer(r *models.Reservation) {
	if h.notifier == nil || !h.notifier.IsConfigured() || r.Organizer == nil || r.Space == nil {
		return
	}

	go func() {
		if h.notified != nil {
			defer h.notified()
		}
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := h.notifier.SendReservationDecision(ctx, r, r.Organizer, r.Space); err != nil {
			slog.Error("failed to send decision email",
				"reservation_id", r.ID, "to", r.Organizer.Email, "error", err)
		}
	}()
}
