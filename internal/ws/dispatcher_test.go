package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"devforge/backend/ai"
	"devforge/backend/internal/models"
	"devforge/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	gotPrompt string
	result    *ai.Result
	err       error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (*ai.Result, error) {
	f.gotPrompt = prompt
	return f.result, f.err
}

type fakeStore struct {
	mu       sync.Mutex
	appended []models.Message
	err      error
	nextID   uint
}

func (f *fakeStore) Append(ctx context.Context, projectID, senderID uint, content string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	m := models.Message{
		ID:        f.nextID,
		ProjectID: projectID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.appended = append(f.appended, m)
	return &m, nil
}

func (f *fakeStore) messages() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Message(nil), f.appended...)
}

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	return logger.New(cfg)
}

func newTestDispatcher(completer ai.Completer, store MessageStore) *Dispatcher {
	return NewDispatcher(completer, store, DispatcherConfig{
		Marker:   "@ai",
		Fallback: "Sorry, I couldn't process your request.",
		Identity: models.MessageSender{ID: 0, Name: "AI Assistant", Email: "ai@devforge.local"},
	}, testLogger())
}

func TestShouldDispatch(t *testing.T) {
	d := newTestDispatcher(&fakeCompleter{}, &fakeStore{})

	assert.True(t, d.ShouldDispatch("@ai what is a mutex"))
	assert.True(t, d.ShouldDispatch("hey @ai, help"))
	assert.False(t, d.ShouldDispatch("plain chat message"))
	// The marker is case sensitive.
	assert.False(t, d.ShouldDispatch("@AI help"))
}

func TestPromptStripsMarker(t *testing.T) {
	d := newTestDispatcher(&fakeCompleter{}, &fakeStore{})

	assert.Equal(t, "what is a mutex", d.Prompt("@ai what is a mutex"))
	assert.Equal(t, "help me out", d.Prompt("help me @ai out"))
}

func TestDispatchPersistsThenEmits(t *testing.T) {
	completer := &fakeCompleter{result: &ai.Result{Text: "A mutex is a lock."}}
	store := &fakeStore{}
	d := newTestDispatcher(completer, store)

	var emitted []models.MessageResponse
	d.Dispatch(5, "@ai what is a mutex", func(roomID uint, payload models.MessageResponse) {
		assert.Equal(t, uint(5), roomID)
		// Persistence happens before emission.
		assert.NotEmpty(t, store.messages())
		emitted = append(emitted, payload)
	})

	require.Len(t, emitted, 1)
	assert.Equal(t, "A mutex is a lock.", emitted[0].Content)
	assert.Equal(t, "AI Assistant", emitted[0].SenderID.Name)
	assert.Equal(t, uint(0), emitted[0].SenderID.ID)

	// The marker was stripped before the prompt went out.
	assert.Equal(t, "what is a mutex", completer.gotPrompt)

	stored := store.messages()
	require.Len(t, stored, 1)
	assert.Equal(t, uint(0), stored[0].SenderID)
	assert.Equal(t, "A mutex is a lock.", stored[0].Content)
}

func TestDispatchFallbackOnCompletionFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("upstream timeout")}
	store := &fakeStore{}
	d := newTestDispatcher(completer, store)

	var emitted []models.MessageResponse
	d.Dispatch(5, "@ai hello", func(roomID uint, payload models.MessageResponse) {
		emitted = append(emitted, payload)
	})

	require.Len(t, emitted, 1)
	assert.Equal(t, "Sorry, I couldn't process your request.", emitted[0].Content)

	stored := store.messages()
	require.Len(t, stored, 1)
	assert.Equal(t, "Sorry, I couldn't process your request.", stored[0].Content)
}

func TestDispatchFallbackOnEmptyReply(t *testing.T) {
	completer := &fakeCompleter{result: &ai.Result{Text: ""}}
	store := &fakeStore{}
	d := newTestDispatcher(completer, store)

	var emitted []models.MessageResponse
	d.Dispatch(5, "@ai hello", func(_ uint, payload models.MessageResponse) {
		emitted = append(emitted, payload)
	})

	require.Len(t, emitted, 1)
	assert.Equal(t, "Sorry, I couldn't process your request.", emitted[0].Content)
}

func TestDispatchDroppedWhenPersistenceFails(t *testing.T) {
	completer := &fakeCompleter{result: &ai.Result{Text: "reply"}}
	store := &fakeStore{err: errors.New("db down")}
	d := newTestDispatcher(completer, store)

	emitCalled := false
	d.Dispatch(5, "@ai hello", func(uint, models.MessageResponse) {
		emitCalled = true
	})

	// No broadcast without durable persistence.
	assert.False(t, emitCalled)
}
