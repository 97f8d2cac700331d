package ws

import (
	"context"
	"strings"

	"devforge/backend/ai"
	"devforge/backend/internal/models"
	"devforge/backend/pkg/logger"
)

// DispatcherConfig configures AI turn handling
type DispatcherConfig struct {
	// Marker is the literal, case-sensitive invocation substring
	Marker string
	// Fallback is broadcast verbatim when the completion service fails
	Fallback string
	// Identity is the reserved sender used for assistant-authored messages
	Identity models.MessageSender
}

// Dispatcher turns AI-directed chat messages into assistant replies. It
// runs strictly after the triggering message has been persisted and
// broadcast, and its failures never surface to the room as errors.
type Dispatcher struct {
	completer ai.Completer
	store     MessageStore
	config    DispatcherConfig
	log       *logger.Logger
}

// NewDispatcher creates an AI turn dispatcher
func NewDispatcher(completer ai.Completer, store MessageStore, config DispatcherConfig, log *logger.Logger) *Dispatcher {
	if config.Marker == "" {
		config.Marker = "@ai"
	}
	if config.Fallback == "" {
		config.Fallback = "Sorry, I couldn't process your request."
	}
	return &Dispatcher{
		completer: completer,
		store:     store,
		config:    config,
		log:       log,
	}
}

// ShouldDispatch reports whether the content contains the invocation marker
func (d *Dispatcher) ShouldDispatch(content string) bool {
	return strings.Contains(content, d.config.Marker)
}

// Prompt strips the invocation marker from the content before it is sent
// onward. Only the prompt is stripped; the user's message is persisted in
// full by the caller.
func (d *Dispatcher) Prompt(content string) string {
	return strings.TrimSpace(strings.ReplaceAll(content, d.config.Marker, ""))
}

// Identity returns the reserved assistant sender
func (d *Dispatcher) Identity() models.MessageSender {
	return d.config.Identity
}

// Dispatch calls the completion service, persists the reply under the
// reserved assistant identity and emits it to the room. Both persistence
// steps complete before emit runs. Completion failures are masked by the
// fixed fallback reply.
func (d *Dispatcher) Dispatch(projectID uint, content string, emit func(roomID uint, payload models.MessageResponse)) {
	aiTurns.Inc()

	reply := d.config.Fallback
	result, err := d.completer.Complete(context.Background(), d.Prompt(content))
	if err != nil {
		aiFailures.Inc()
		d.log.LogError(err, "completion service failed, substituting fallback", "project_id", projectID)
	} else if result != nil && result.Text != "" {
		reply = result.Text
	}

	message, err := d.store.Append(context.Background(), projectID, d.config.Identity.ID, reply)
	if err != nil {
		d.log.LogError(err, "failed to persist assistant reply", "project_id", projectID)
		return
	}

	emit(projectID, models.MessageResponse{
		ID:        message.ID,
		Content:   message.Content,
		SenderID:  d.config.Identity,
		CreatedAt: message.CreatedAt,
	})
}
