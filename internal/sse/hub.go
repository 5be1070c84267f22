package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
)

const (
	ReservationCreated  = "reservation_created"
	ReservationUpdated  = "reservation_updated"
	ReservationDeleted  = "reservation_deleted"
	ReservationApproved = "reservation_approved"
	ReservationRejected = "reservation_rejected"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ReservationEvent struct {
	ReservationID uuid.UUID                `json:"reservation_id"`
	SpaceID       uuid.UUID                `json:"space_id"`
	OrganizerID   uuid.UUID                `json:"organizer_id"`
	Status        models.ReservationStatus `json:"status"`
	StartsAt      time.Time                `json:"starts_at"`
	EndsAt        time.Time                `json:"ends_at"`
	ChangedBy     uuid.UUID                `json:"changed_by"`
}

// Client is one open event stream. A client with AllSpaces set receives the
// events of every space.
type Client struct {
	ID        string
	UserID    uuid.UUID
	Admin     bool
	AllSpaces bool
	Spaces    map[uuid.UUID]bool
	Send      chan []byte
}

func (c *Client) follows(spaceID uuid.UUID) bool {
	return c.AllSpaces || c.Spaces[spaceID]
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *SpaceMessage
	mu         sync.RWMutex
}

type SpaceMessage struct {
	SpaceID uuid.UUID
	Event   Event
	// OnlyFor restricts delivery to admins and this user when set.
	OnlyFor *uuid.UUID
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *SpaceMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if !client.follows(msg.SpaceID) {
					continue
				}
				if msg.OnlyFor != nil && !client.Admin && client.UserID != *msg.OnlyFor {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SubscribeToSpace adds a space to a stream owned by userID. It reports
// false when no such stream exists.
func (h *Hub) SubscribeToSpace(clientID string, userID, spaceID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.UserID != userID {
		return false
	}
	client.Spaces[spaceID] = true
	return true
}

func (h *Hub) UnsubscribeFromSpace(clientID string, userID, spaceID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.UserID != userID {
		return false
	}
	delete(client.Spaces, spaceID)
	return true
}

// BroadcastReservation publishes a reservation change to the followers of its
// space. Rejected reservations only reach admins and their organizer.
func (h *Hub) BroadcastReservation(eventType string, r *models.Reservation, changedBy uuid.UUID) {
	msg := &SpaceMessage{
		SpaceID: r.SpaceID,
		Event: Event{
			Type: eventType,
			Data: ReservationEvent{
				ReservationID: r.ID,
				SpaceID:       r.SpaceID,
				OrganizerID:   r.UserID,
				Status:        r.Status,
				StartsAt:      r.StartsAt,
				EndsAt:        r.EndsAt,
				ChangedBy:     changedBy,
			},
		},
	}
	if r.Status == models.ReservationRejected {
		organizer := r.UserID
		msg.OnlyFor = &organizer
	}
	h.broadcast <- msg
}
