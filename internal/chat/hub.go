// Package chat implements the per-ticket realtime messaging channel: an
// in-memory room per ticket, message persistence and multicast delivery to
// every connected participant.
package chat

import "sync"

const (
	// EventJoin subscribes the connection to a ticket's room.
	EventJoin = "join"
	// EventSendMessage submits a chat message to a ticket.
	EventSendMessage = "sendMessage"
	// EventNewMessage broadcasts a persisted message to a ticket's room.
	EventNewMessage = "newMessage"
	// EventError is sent to a single connection when its request failed.
	EventError = "errorMessage"
)

// Subscriber receives events delivered to a room or to one connection.
type Subscriber interface {
	Send(event string, payload any)
}

// Hub tracks room membership for every ticket. Rooms live in process
// memory for the lifetime of the server; membership is rebuilt on
// reconnect. All methods are safe for concurrent use.
type Hub struct {
	mu    sync.Mutex
	rooms map[uint]map[Subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uint]map[Subscriber]struct{}),
	}
}

// Join adds a subscriber to a ticket's room.
func (h *Hub) Join(ticketID uint, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[ticketID]
	if !ok {
		room = make(map[Subscriber]struct{})
		h.rooms[ticketID] = room
	}

	room[s] = struct{}{}
}

// Leave removes a subscriber from a ticket's room. Empty rooms are dropped.
func (h *Hub) Leave(ticketID uint, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[ticketID]
	if !ok {
		return
	}

	delete(room, s)

	if len(room) == 0 {
		delete(h.rooms, ticketID)
	}
}

// LeaveAll removes a subscriber from every room. Called on disconnect.
func (h *Hub) LeaveAll(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ticketID, room := range h.rooms {
		delete(room, s)

		if len(room) == 0 {
			delete(h.rooms, ticketID)
		}
	}
}

// ToTicket delivers an event to every subscriber currently in the ticket's
// room, the sender included. Holding the lock for the whole fanout keeps
// delivery order consistent across subscribers.
func (h *Hub) ToTicket(ticketID uint, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.rooms[ticketID] {
		s.Send(event, payload)
	}
}

// RoomSize reports how many subscribers are joined to a ticket's room.
func (h *Hub) RoomSize(ticketID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.rooms[ticketID])
}
