package ws

import (
	"context"
	"sync/atomic"

	"devforge/backend/internal/models"
	"devforge/backend/pkg/logger"
)

// MessageStore persists a chat message and links it into its owning
// project's ordered message list before returning.
type MessageStore interface {
	Append(ctx context.Context, projectID, senderID uint, content string) (*models.Message, error)
}

// MembershipGuard confirms a project exists and a user belongs to it.
// Checked once, at room-join time; membership changes after join do not
// evict a live session.
type MembershipGuard interface {
	AuthorizeJoin(ctx context.Context, projectID, userID uint) (*models.Project, error)
}

// Envelope is the framing for every message on the socket, inbound and
// outbound.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// EventProjectMessage is the single chat event both directions share.
const EventProjectMessage = "projectMessage"

// ProjectMessageIn is the inbound chat payload from a joined session
type ProjectMessageIn struct {
	UserID    uint   `json:"userId"`
	ProjectID uint   `json:"projectId"`
	Message   string `json:"message"`
}

type broadcast struct {
	roomID  uint
	payload []byte
}

// Hub owns the room registry and fans persisted messages out to every
// session bound to a room. Registry mutation happens only on the Run
// goroutine; per-session event handling runs on that session's read
// goroutine, so one slow store call never stalls other sessions.
type Hub struct {
	registry   *registry
	register   chan *Client
	unregister chan *Client
	broadcasts chan broadcast
	store      MessageStore
	dispatcher *Dispatcher
	log        *logger.Logger
	sessions   atomic.Int64
}

// ActiveSessions reports the number of currently joined sessions
func (h *Hub) ActiveSessions() int64 {
	return h.sessions.Load()
}

// NewHub creates a hub wired to the message store and AI dispatcher
func NewHub(store MessageStore, dispatcher *Dispatcher, log *logger.Logger) *Hub {
	return &Hub{
		registry:   newRegistry(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcasts: make(chan broadcast, 64),
		store:      store,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Run processes join, leave and broadcast events. It is the only
// goroutine that touches the registry.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registry.join(client)
			activeSessions.Inc()
			h.sessions.Add(1)
			h.log.Info("session joined room", "user_id", client.UserID, "project_id", client.RoomID)

		case client := <-h.unregister:
			if h.registry.leave(client) {
				close(client.Send)
				activeSessions.Dec()
				h.sessions.Add(-1)
				h.log.Info("session left room", "user_id", client.UserID, "project_id", client.RoomID)
			}

		case b := <-h.broadcasts:
			for _, client := range h.registry.members(b.roomID) {
				select {
				case client.Send <- b.payload:
				default:
					// Slow consumer: drop the session rather than block the
					// room. Send stays open; its read goroutine may still be
					// queueing replies until the connection dies.
					h.registry.leave(client)
					close(client.done)
					activeSessions.Dec()
					h.sessions.Add(-1)
					h.log.Warn("session dropped, send buffer full", "user_id", client.UserID, "project_id", client.RoomID)
				}
			}
			messagesBroadcast.Inc()
		}
	}
}

// Broadcast queues an outbound event for every session in the room,
// including the one that triggered it.
func (h *Hub) Broadcast(roomID uint, payload models.MessageResponse) {
	data, err := encodeEnvelope(EventProjectMessage, payload)
	if err != nil {
		h.log.LogError(err, "failed to encode broadcast", "project_id", roomID)
		return
	}
	h.broadcasts <- broadcast{roomID: roomID, payload: data}
}

// handleProjectMessage runs on the sender's read goroutine: persist, echo
// to the room, then hand off to the AI dispatcher. A persistence failure
// drops this one event and leaves the session joined.
func (h *Hub) handleProjectMessage(c *Client, in ProjectMessageIn) {
	message, err := h.store.Append(context.Background(), c.RoomID, c.UserID, in.Message)
	if err != nil {
		h.log.LogError(err, "failed to persist message, event dropped",
			"user_id", c.UserID, "project_id", c.RoomID)
		return
	}

	// Sender display fields come from the already-verified claims, not a
	// fresh store lookup.
	h.Broadcast(c.RoomID, models.MessageResponse{
		ID:        message.ID,
		Content:   message.Content,
		SenderID:  models.MessageSender{ID: c.UserID, Name: c.UserName, Email: c.UserEmail},
		CreatedAt: message.CreatedAt,
	})

	if h.dispatcher != nil && h.dispatcher.ShouldDispatch(in.Message) {
		// Independent follow-up task: its latency never delays the echo
		// above, and its broadcast is unordered with respect to chat
		// events arriving in the interim.
		go h.dispatcher.Dispatch(c.RoomID, in.Message, h.Broadcast)
	}
}
