package service

import (
	"context"
	"testing"
	"time"

	"devforge/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aiSender = models.MessageSender{ID: 0, Name: "AI Assistant", Email: "ai@devforge.local"}

func TestAppendStoresMessageAndBumpsProject(t *testing.T) {
	db := testDB(t)
	user := createUser(t, db, "Alice", "alice@example.com")
	project := createProject(t, db, "payments-api", user)
	svc := NewMessageService(db)

	message, err := svc.Append(context.Background(), project.ID, user.ID, "first message")
	require.NoError(t, err)
	assert.NotZero(t, message.ID)
	assert.Equal(t, project.ID, message.ProjectID)
	assert.Equal(t, user.ID, message.SenderID)

	var reloaded models.Project
	require.NoError(t, db.First(&reloaded, project.ID).Error)
	assert.WithinDuration(t, message.CreatedAt, reloaded.LastMessageAt, time.Second)
}

func TestAppendUnknownProject(t *testing.T) {
	db := testDB(t)
	svc := NewMessageService(db)

	_, err := svc.Append(context.Background(), 999, 1, "into the void")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestHistoryOldestFirstWithSenders(t *testing.T) {
	db := testDB(t)
	alice := createUser(t, db, "Alice", "alice@example.com")
	bob := createUser(t, db, "Bob", "bob@example.com")
	project := createProject(t, db, "payments-api", alice, bob)
	svc := NewMessageService(db)

	ctx := context.Background()
	_, err := svc.Append(ctx, project.ID, alice.ID, "one")
	require.NoError(t, err)
	_, err = svc.Append(ctx, project.ID, bob.ID, "two")
	require.NoError(t, err)
	_, err = svc.Append(ctx, project.ID, alice.ID, "three")
	require.NoError(t, err)

	history, err := svc.History(ctx, project.ID, aiSender)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, "two", history[1].Content)
	assert.Equal(t, "three", history[2].Content)

	assert.Equal(t, "Alice", history[0].SenderID.Name)
	assert.Equal(t, "Bob", history[1].SenderID.Name)
	assert.Equal(t, alice.Email, history[2].SenderID.Email)
}

func TestHistoryRepeatedFetchIsIdentical(t *testing.T) {
	db := testDB(t)
	alice := createUser(t, db, "Alice", "alice@example.com")
	project := createProject(t, db, "payments-api", alice)
	svc := NewMessageService(db)

	ctx := context.Background()
	// Same-timestamp rows are the interesting case; the id tiebreak keeps
	// their order stable.
	for _, content := range []string{"one", "two", "three"} {
		_, err := svc.Append(ctx, project.ID, alice.ID, content)
		require.NoError(t, err)
	}

	first, err := svc.History(ctx, project.ID, aiSender)
	require.NoError(t, err)
	second, err := svc.History(ctx, project.ID, aiSender)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHistorySubstitutesAssistantIdentity(t *testing.T) {
	db := testDB(t)
	alice := createUser(t, db, "Alice", "alice@example.com")
	project := createProject(t, db, "payments-api", alice)
	svc := NewMessageService(db)

	ctx := context.Background()
	_, err := svc.Append(ctx, project.ID, alice.ID, "@ai hello")
	require.NoError(t, err)
	_, err = svc.Append(ctx, project.ID, aiSender.ID, "Hello! How can I help?")
	require.NoError(t, err)

	history, err := svc.History(ctx, project.ID, aiSender)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// The assistant row has no user record; its identity is the reserved one.
	assert.Equal(t, aiSender, history[1].SenderID)
}

func TestHistoryScopedToProject(t *testing.T) {
	db := testDB(t)
	alice := createUser(t, db, "Alice", "alice@example.com")
	p1 := createProject(t, db, "payments-api", alice)
	p2 := createProject(t, db, "billing-ui", alice)
	svc := NewMessageService(db)

	ctx := context.Background()
	_, err := svc.Append(ctx, p1.ID, alice.ID, "in p1")
	require.NoError(t, err)
	_, err = svc.Append(ctx, p2.ID, alice.ID, "in p2")
	require.NoError(t, err)

	history, err := svc.History(ctx, p1.ID, aiSender)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "in p1", history[0].Content)
}
