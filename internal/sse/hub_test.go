package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(id string, userID uuid.UUID, spaces ...uuid.UUID) *Client {
	c := &Client{
		ID:     id,
		UserID: userID,
		Spaces: make(map[uuid.UUID]bool),
		Send:   make(chan []byte, 256),
	}
	for _, s := range spaces {
		c.Spaces[s] = true
	}
	return c
}

func newReservation(spaceID uuid.UUID, status models.ReservationStatus) *models.Reservation {
	start := time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)
	return &models.Reservation{
		ID:       uuid.New(),
		SpaceID:  spaceID,
		UserID:   uuid.New(),
		Name:     "Standup",
		StartsAt: start,
		EndsAt:   start.Add(time.Hour),
		Status:   status,
	}
}

func receive(t *testing.T, c *Client) (Event, bool) {
	t.Helper()
	select {
	case data := <-c.Send:
		var e Event
		require.NoError(t, json.Unmarshal(data, &e))
		return e, true
	case <-time.After(50 * time.Millisecond):
		return Event{}, false
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.broadcast)
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1", uuid.New())

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	_, exists := hub.clients[client.ID]
	hub.mu.RUnlock()
	assert.True(t, exists)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	_, exists = hub.clients[client.ID]
	hub.mu.RUnlock()
	assert.False(t, exists)

	_, ok := <-client.Send
	assert.False(t, ok, "send channel is closed")
}

func TestHub_BroadcastReservation_OnlyFollowers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	spaceID := uuid.New()
	follower := newClient("follower", uuid.New(), spaceID)
	everything := newClient("everything", uuid.New())
	everything.AllSpaces = true
	other := newClient("other", uuid.New(), uuid.New())

	for _, c := range []*Client{follower, everything, other} {
		hub.Register(c)
	}
	time.Sleep(10 * time.Millisecond)

	r := newReservation(spaceID, models.ReservationPending)
	hub.BroadcastReservation(ReservationCreated, r, r.UserID)

	e, ok := receive(t, follower)
	require.True(t, ok)
	assert.Equal(t, ReservationCreated, e.Type)
	data := e.Data.(map[string]interface{})
	assert.Equal(t, r.ID.String(), data["reservation_id"])
	assert.Equal(t, "pending", data["status"])

	_, ok = receive(t, everything)
	assert.True(t, ok)

	_, ok = receive(t, other)
	assert.False(t, ok, "client of another space should not receive the event")
}

func TestHub_BroadcastReservation_RejectedIsRestricted(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	spaceID := uuid.New()
	r := newReservation(spaceID, models.ReservationRejected)

	organizer := newClient("organizer", r.UserID, spaceID)
	admin := newClient("admin", uuid.New(), spaceID)
	admin.Admin = true
	stranger := newClient("stranger", uuid.New(), spaceID)

	for _, c := range []*Client{organizer, admin, stranger} {
		hub.Register(c)
	}
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastReservation(ReservationRejected, r, uuid.New())

	_, ok := receive(t, organizer)
	assert.True(t, ok)
	_, ok = receive(t, admin)
	assert.True(t, ok)
	_, ok = receive(t, stranger)
	assert.False(t, ok)
}

func TestHub_FullBufferDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	spaceID := uuid.New()
	client := newClient("client-1", uuid.New(), spaceID)
	client.Send = make(chan []byte, 1)

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	client.Send <- []byte("fill")

	hub.BroadcastReservation(ReservationUpdated, newReservation(spaceID, models.ReservationPending), uuid.New())
	time.Sleep(10 * time.Millisecond)

	<-client.Send

	select {
	case <-client.Send:
		t.Fatal("should not receive dropped message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	spaceID := uuid.New()
	client := newClient("client-1", uuid.New())

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	assert.True(t, hub.SubscribeToSpace(client.ID, client.UserID, spaceID))
	hub.mu.RLock()
	assert.True(t, client.Spaces[spaceID])
	hub.mu.RUnlock()

	assert.True(t, hub.UnsubscribeFromSpace(client.ID, client.UserID, spaceID))
	hub.mu.RLock()
	assert.False(t, client.Spaces[spaceID])
	hub.mu.RUnlock()

	assert.False(t, hub.SubscribeToSpace("nonexistent", client.UserID, spaceID))
	assert.False(t, hub.UnsubscribeFromSpace("nonexistent", client.UserID, spaceID))
	assert.False(t, hub.SubscribeToSpace(client.ID, uuid.New(), spaceID), "stream of another user")
}
