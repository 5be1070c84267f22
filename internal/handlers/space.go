package handlers

import (
	"net/http"
	"time"

	"github.com/dimitrije/spacebook-api/internal/middleware"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/dimitrije/spacebook-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type SpaceHandler struct {
	spaceService SpaceServiceInterface
	now          func() time.Time
}

func NewSpaceHandler(spaceService SpaceServiceInterface) *SpaceHandler {
	return &SpaceHandler{spaceService: spaceService, now: time.Now}
}

func (h *SpaceHandler) List(c *drift.Context) {
	spaces, err := h.spaceService.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "list spaces")
		return
	}

	resp := make([]dto.SpaceResponse, 0, len(spaces))
	for i := range spaces {
		resp = append(resp, toSpaceResponse(&spaces[i]))
	}
	_ = c.JSON(http.StatusOK, resp)
}

// Get accepts either the space id or its slug.
func (h *SpaceHandler) Get(c *drift.Context) {
	sp, err := h.spaceService.Resolve(c.Request.Context(), c.Param("spaceId"))
	if err != nil {
		writeError(c, err, "get space")
		return
	}
	_ = c.JSON(http.StatusOK, toSpaceResponse(sp))
}

func (h *SpaceHandler) Create(c *drift.Context) {
	var req dto.CreateSpaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if !validateRequest(c, &req) {
		return
	}

	sp, err := h.spaceService.Create(c.Request.Context(), services.CreateSpaceInput{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Price:       req.Price,
		Address:     req.Address,
	})
	if err != nil {
		writeError(c, err, "create space")
		return
	}
	_ = c.JSON(http.StatusCreated, toSpaceResponse(sp))
}

func (h *SpaceHandler) Update(c *drift.Context) {
	var req dto.UpdateSpaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if !validateRequest(c, &req) {
		return
	}

	ctx := c.Request.Context()
	cur, err := h.spaceService.Resolve(ctx, c.Param("spaceId"))
	if err != nil {
		writeError(c, err, "update space")
		return
	}

	sp, err := h.spaceService.Update(ctx, cur.ID, services.UpdateSpaceInput{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Price:       req.Price,
		Address:     req.Address,
	})
	if err != nil {
		writeError(c, err, "update space")
		return
	}
	_ = c.JSON(http.StatusOK, toSpaceResponse(sp))
}

func (h *SpaceHandler) Delete(c *drift.Context) {
	ctx := c.Request.Context()
	sp, err := h.spaceService.Resolve(ctx, c.Param("spaceId"))
	if err != nil {
		writeError(c, err, "delete space")
		return
	}

	if err := h.spaceService.Delete(ctx, sp.ID); err != nil {
		writeError(c, err, "delete space")
		return
	}
	_ = c.JSON(http.StatusOK, map[string]string{"message": "space deleted"})
}

// Status reports the occupancy of a space at ?at=RFC3339, defaulting to now.
func (h *SpaceHandler) Status(c *drift.Context) {
	at := h.now()
	if v := c.QueryParam("at"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.BadRequest("at must be an RFC3339 timestamp")
			return
		}
		at = parsed
	}

	ctx := c.Request.Context()
	sp, err := h.spaceService.Resolve(ctx, c.Param("spaceId"))
	if err != nil {
		writeError(c, err, "get space status")
		return
	}

	availability, err := h.spaceService.Status(ctx, sp.ID, at)
	if err != nil {
		writeError(c, err, "get space status")
		return
	}

	_ = c.JSON(http.StatusOK, dto.SpaceStatusResponse{
		Space:  toSpaceResponse(sp),
		At:     at,
		Status: toAvailabilityResponse(availability, middleware.Actor(c)),
	})
}
