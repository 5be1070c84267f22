package handlers

import (
	"fmt"

	"github.com/dimitrije/spacebook-api/internal/middleware"
	"github.com/dimitrije/spacebook-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SSEHandler struct {
	hub          HubInterface
	spaceService SpaceServiceInterface
}

func NewSSEHandler(hub HubInterface, spaceService SpaceServiceInterface) *SSEHandler {
	return &SSEHandler{
		hub:          hub,
		spaceService: spaceService,
	}
}

// ConnectAll streams the reservation events of every space.
func (h *SSEHandler) ConnectAll(c *drift.Context) {
	h.stream(c, nil)
}

// ConnectSpace streams the reservation events of one space. More spaces can
// be added to the stream with Subscribe.
func (h *SSEHandler) ConnectSpace(c *drift.Context) {
	sp, err := h.spaceService.Resolve(c.Request.Context(), c.Param("spaceId"))
	if err != nil {
		writeError(c, err, "open event stream")
		return
	}
	h.stream(c, &sp.ID)
}

func (h *SSEHandler) stream(c *drift.Context, spaceID *uuid.UUID) {
	actor := middleware.Actor(c)
	if actor.ID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	client := &sse.Client{
		ID:        uuid.New().String(),
		UserID:    actor.ID,
		Admin:     actor.Admin,
		AllSpaces: spaceID == nil,
		Spaces:    make(map[uuid.UUID]bool),
		Send:      make(chan []byte, 256),
	}
	if spaceID != nil {
		client.Spaces[*spaceID] = true
	}

	sseCtx := c.SSE()

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": client.ID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *SSEHandler) Subscribe(c *drift.Context) {
	clientID, sp, ok := h.subscriptionTarget(c)
	if !ok {
		return
	}

	if !h.hub.SubscribeToSpace(clientID, middleware.GetUserID(c), sp) {
		c.NotFound("event stream not found")
		return
	}

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("subscribed to space %s", sp),
	})
}

func (h *SSEHandler) Unsubscribe(c *drift.Context) {
	clientID, sp, ok := h.subscriptionTarget(c)
	if !ok {
		return
	}

	if !h.hub.UnsubscribeFromSpace(clientID, middleware.GetUserID(c), sp) {
		c.NotFound("event stream not found")
		return
	}

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("unsubscribed from space %s", sp),
	})
}

func (h *SSEHandler) subscriptionTarget(c *drift.Context) (string, uuid.UUID, bool) {
	if middleware.GetUserID(c) == uuid.Nil {
		c.Unauthorized("not authenticated")
		return "", uuid.Nil, false
	}

	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return "", uuid.Nil, false
	}

	sp, err := h.spaceService.Resolve(c.Request.Context(), c.Param("spaceId"))
	if err != nil {
		writeError(c, err, "update subscription")
		return "", uuid.Nil, false
	}
	return clientID, sp.ID, true
}
