package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB
)

// Client is one live, authenticated realtime session bound to exactly one
// room. The identity fields are decoded from the credential at handshake
// time and never re-validated per message.
type Client struct {
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *Hub
	RoomID    uint
	UserID    uint
	UserName  string
	UserEmail string

	// done is closed by the hub when it evicts the session. Send stays
	// open until unregister, after ReadPump has exited, so the read side
	// can never hit a closed channel.
	done chan struct{}
}

func encodeEnvelope(event string, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data})
}

// trySend queues an outbound frame for this session, giving up once the
// hub has started tearing the session down.
func (c *Client) trySend(data []byte) {
	select {
	case c.Send <- data:
	case <-c.done:
	}
}

// ReadPump consumes inbound frames for this session. Events are handled
// inline so a single session's events keep their arrival order; sessions
// run concurrently with each other.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.LogError(err, "unexpected socket close", "user_id", c.UserID)
			}
			break
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			c.Hub.log.LogError(err, "malformed frame dropped", "user_id", c.UserID)
			continue
		}

		switch envelope.Event {
		case EventProjectMessage:
			var in ProjectMessageIn
			raw, err := json.Marshal(envelope.Data)
			if err == nil {
				err = json.Unmarshal(raw, &in)
			}
			if err != nil || in.Message == "" {
				c.Hub.log.Warn("invalid projectMessage payload dropped", "user_id", c.UserID)
				continue
			}
			c.Hub.handleProjectMessage(c, in)
		case "ping":
			if data, err := encodeEnvelope("pong", nil); err == nil {
				c.trySend(data)
			}
		default:
			c.Hub.log.Warn("unknown event dropped", "event", envelope.Event, "user_id", c.UserID)
		}
	}
}

// WritePump flushes the session's send buffer to the socket and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain any queued messages as separate frames.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-c.done:
			// The hub evicted the session.
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
