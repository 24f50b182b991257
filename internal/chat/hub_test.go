package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordedEvent struct {
	event   string
	payload any
}

type fakeSubscriber struct {
	events []recordedEvent
}

func (f *fakeSubscriber) Send(event string, payload any) {
	f.events = append(f.events, recordedEvent{event: event, payload: payload})
}

func TestHubBroadcastReachesWholeRoom(t *testing.T) {
	hub := NewHub()

	a := &fakeSubscriber{}
	b := &fakeSubscriber{}
	other := &fakeSubscriber{}

	hub.Join(1, a)
	hub.Join(1, b)
	hub.Join(2, other)

	hub.ToTicket(1, EventNewMessage, "hello")

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Empty(t, other.events, "subscribers of other rooms must not receive the event")
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	hub := NewHub()

	a := &fakeSubscriber{}
	b := &fakeSubscriber{}

	hub.Join(7, a)
	hub.Join(7, b)
	hub.Leave(7, a)

	hub.ToTicket(7, EventNewMessage, "bye")

	assert.Empty(t, a.events)
	assert.Len(t, b.events, 1)
	assert.Equal(t, 1, hub.RoomSize(7))
}

func TestHubLeaveAllClearsEveryRoom(t *testing.T) {
	hub := NewHub()

	a := &fakeSubscriber{}

	hub.Join(1, a)
	hub.Join(2, a)
	hub.LeaveAll(a)

	assert.Zero(t, hub.RoomSize(1))
	assert.Zero(t, hub.RoomSize(2))

	hub.ToTicket(1, EventNewMessage, "nobody home")
	assert.Empty(t, a.events)
}

func TestHubBroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub()

	// must not panic
	hub.ToTicket(99, EventNewMessage, "void")
	assert.Zero(t, hub.RoomSize(99))
}
