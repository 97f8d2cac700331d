package ws

import (
	"encoding/json"
	"testing"
	"time"

	"devforge/backend/ai"
	"devforge/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(store MessageStore, dispatcher *Dispatcher) *Hub {
	hub := NewHub(store, dispatcher, testLogger())
	go hub.Run()
	return hub
}

func joinedClient(t *testing.T, hub *Hub, roomID, userID uint, name string) *Client {
	t.Helper()
	c := &Client{
		Send:     make(chan []byte, 16),
		done:     make(chan struct{}),
		Hub:      hub,
		RoomID:   roomID,
		UserID:   userID,
		UserName: name,
	}
	hub.register <- c
	waitForSessions(t, hub, nil)
	return c
}

// waitForSessions blocks until the hub has drained its register queue.
func waitForSessions(t *testing.T, hub *Hub, want *int64) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if want == nil || hub.ActiveSessions() == *want {
			if want == nil {
				// Give the Run loop a beat to process the channel send.
				time.Sleep(10 * time.Millisecond)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("hub never reached %d sessions (have %d)", *want, hub.ActiveSessions())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func receiveEnvelope(t *testing.T, c *Client) (string, models.MessageResponse) {
	t.Helper()
	select {
	case data := <-c.Send:
		var env struct {
			Event string                 `json:"event"`
			Data  models.MessageResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &env))
		return env.Event, env.Data
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return "", models.MessageResponse{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected frame: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubEchoesToEveryRoomMemberIncludingSender(t *testing.T) {
	store := &fakeStore{}
	hub := newTestHub(store, nil)

	sender := joinedClient(t, hub, 1, 10, "Alice")
	peer := joinedClient(t, hub, 1, 11, "Bob")
	outsider := joinedClient(t, hub, 2, 12, "Carol")

	hub.handleProjectMessage(sender, ProjectMessageIn{ProjectID: 1, UserID: 10, Message: "hello room"})

	for _, c := range []*Client{sender, peer} {
		event, payload := receiveEnvelope(t, c)
		assert.Equal(t, EventProjectMessage, event)
		assert.Equal(t, "hello room", payload.Content)
		assert.Equal(t, uint(10), payload.SenderID.ID)
		assert.Equal(t, "Alice", payload.SenderID.Name)
	}

	assertNoFrame(t, outsider)
}

func TestHubPersistsBeforeBroadcast(t *testing.T) {
	store := &fakeStore{}
	hub := newTestHub(store, nil)

	sender := joinedClient(t, hub, 1, 10, "Alice")

	hub.handleProjectMessage(sender, ProjectMessageIn{ProjectID: 1, UserID: 10, Message: "durable first"})

	_, payload := receiveEnvelope(t, sender)

	stored := store.messages()
	require.Len(t, stored, 1)
	assert.Equal(t, stored[0].ID, payload.ID)
	assert.Equal(t, "durable first", stored[0].Content)
}

func TestHubDropsEventWhenPersistenceFails(t *testing.T) {
	store := &fakeStore{err: assert.AnError}
	hub := newTestHub(store, nil)

	sender := joinedClient(t, hub, 1, 10, "Alice")

	hub.handleProjectMessage(sender, ProjectMessageIn{ProjectID: 1, UserID: 10, Message: "lost"})

	// The event is dropped; the session stays joined.
	assertNoFrame(t, sender)
	assert.Equal(t, int64(1), hub.ActiveSessions())
}

func TestHubAIRoundTrip(t *testing.T) {
	store := &fakeStore{}
	completer := &fakeCompleter{result: &ai.Result{Text: "Channels carry values between goroutines."}}
	dispatcher := newTestDispatcher(completer, store)
	hub := newTestHub(store, dispatcher)

	sender := joinedClient(t, hub, 1, 10, "Alice")
	peer := joinedClient(t, hub, 1, 11, "Bob")

	hub.handleProjectMessage(sender, ProjectMessageIn{ProjectID: 1, UserID: 10, Message: "@ai explain channels"})

	// First broadcast: the user's message, persisted in full with the
	// marker intact.
	_, first := receiveEnvelope(t, sender)
	assert.Equal(t, "@ai explain channels", first.Content)
	assert.Equal(t, uint(10), first.SenderID.ID)

	// Second broadcast: the assistant's reply under the reserved identity.
	_, second := receiveEnvelope(t, sender)
	assert.Equal(t, "Channels carry values between goroutines.", second.Content)
	assert.Equal(t, "AI Assistant", second.SenderID.Name)

	// The peer sees both in the same order.
	_, peerFirst := receiveEnvelope(t, peer)
	_, peerSecond := receiveEnvelope(t, peer)
	assert.Equal(t, first.Content, peerFirst.Content)
	assert.Equal(t, second.Content, peerSecond.Content)

	// Both messages are durable.
	stored := store.messages()
	require.Len(t, stored, 2)
	assert.Equal(t, uint(10), stored[0].SenderID)
	assert.Equal(t, uint(0), stored[1].SenderID)
}

func TestHubSlowConsumerDropped(t *testing.T) {
	store := &fakeStore{}
	hub := newTestHub(store, nil)

	slow := &Client{
		Send:   make(chan []byte, 1),
		done:   make(chan struct{}),
		Hub:    hub,
		RoomID: 1,
		UserID: 10,
	}
	hub.register <- slow
	want := int64(1)
	waitForSessions(t, hub, &want)

	// Fill the buffer, then force one more fanout.
	hub.Broadcast(1, models.MessageResponse{Content: "one"})
	hub.Broadcast(1, models.MessageResponse{Content: "two"})

	want = 0
	waitForSessions(t, hub, &want)

	// Eviction is signalled on done; Send stays open for the read side.
	select {
	case <-slow.done:
	default:
		t.Fatal("done not closed after eviction")
	}
}

func TestHubEvictionKeepsReadSideSendSafe(t *testing.T) {
	store := &fakeStore{}
	hub := newTestHub(store, nil)

	slow := &Client{
		Send:   make(chan []byte, 1),
		done:   make(chan struct{}),
		Hub:    hub,
		RoomID: 1,
		UserID: 10,
	}
	hub.register <- slow
	want := int64(1)
	waitForSessions(t, hub, &want)

	hub.Broadcast(1, models.MessageResponse{Content: "one"})
	hub.Broadcast(1, models.MessageResponse{Content: "two"})

	want = 0
	waitForSessions(t, hub, &want)

	// A ping reply queued between eviction and connection teardown must
	// neither panic nor block, even with the buffer still full.
	data, err := encodeEnvelope("pong", nil)
	require.NoError(t, err)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		slow.trySend(data)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("send after eviction blocked")
	}
	assert.Equal(t, int64(0), hub.ActiveSessions())
}
