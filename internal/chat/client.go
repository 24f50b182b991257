package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

const (
	// writeWait is the deadline for a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong before dropping the peer.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize allows base64 images to ride on chat messages.
	maxMessageSize = 4 << 20

	// sendBufferSize is the per-connection outbound queue length.
	sendBufferSize = 64
)

// Envelope is the wire format of every inbound event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outbound is the wire format of every event sent to the peer.
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is one websocket connection bound to an authenticated user. It
// implements Subscriber, so the hub can deliver room events to it.
type Client struct {
	svc  *Service
	conn *websocket.Conn
	user models.User
	send chan []byte
}

// NewClient wraps an upgraded websocket connection.
func NewClient(svc *Service, conn *websocket.Conn, user models.User) *Client {
	return &Client{
		svc:  svc,
		conn: conn,
		user: user,
		send: make(chan []byte, sendBufferSize),
	}
}

// Send queues an event for delivery to the peer. Events are dropped when
// the peer cannot keep up; there is no offline delivery.
func (c *Client) Send(event string, payload any) {
	out, err := json.Marshal(outbound{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal outbound event")
		return
	}

	select {
	case c.send <- out:
	default:
		log.Warn().Uint64("user_id", c.user.ID).Str("event", event).Msg("slow chat consumer, event dropped")
	}
}

// Serve pumps the connection until the peer disconnects, then removes the
// client from every room it joined.
func (c *Client) Serve() {
	done := make(chan struct{})

	go c.writePump(done)
	c.readPump()

	close(done)
	c.svc.hub.LeaveAll(c)

	if err := c.conn.Close(); err != nil {
		log.Debug().Err(err).Msg("websocket close")
	}
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Uint64("user_id", c.user.ID).Msg("websocket read error")
			}

			return
		}

		c.dispatch(raw)
	}
}

func (c *Client) dispatch(raw []byte) {
	var env Envelope

	if err := json.Unmarshal(raw, &env); err != nil {
		c.Send(EventError, ErrorPayload{Code: codeInvalidMessage, Message: "malformed event"})
		return
	}

	switch env.Event {
	case EventJoin:
		var in JoinInput
		if err := json.Unmarshal(env.Data, &in); err != nil {
			c.Send(EventError, ErrorPayload{Code: codeInvalidMessage, Message: "malformed join payload"})
			return
		}

		c.svc.Join(c, in)
	case EventSendMessage:
		var in SendMessageInput
		if err := json.Unmarshal(env.Data, &in); err != nil {
			c.Send(EventError, ErrorPayload{Code: codeInvalidMessage, Message: "malformed message payload"})
			return
		}

		c.svc.SendMessage(context.Background(), c, c.user, in)
	default:
		c.Send(EventError, ErrorPayload{Code: codeInvalidMessage, Message: "unknown event: " + env.Event})
	}
}

func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case out := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
