package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"devforge/backend/internal/models"
	"devforge/backend/internal/service"
	"devforge/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGuard struct {
	err     error
	project *models.Project
}

func (f *fakeGuard) AuthorizeJoin(ctx context.Context, projectID, userID uint) (*models.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.project, nil
}

func handshakeServer(t *testing.T, hub *Hub, jwtService *jwt.Service, guard MembershipGuard) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, jwtService, guard, c)
	})
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour, nil)
	server := handshakeServer(t, newTestHub(&fakeStore{}, nil), jwtService, &fakeGuard{})

	resp, err := http.Get(server.URL + "/ws?projectId=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRejectsInvalidToken(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour, nil)
	server := handshakeServer(t, newTestHub(&fakeStore{}, nil), jwtService, &fakeGuard{})

	resp, err := http.Get(server.URL + "/ws?projectId=1&token=not-a-token")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRejectsMissingProject(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour, nil)
	token, err := jwtService.GenerateToken(10, "Alice", "alice@example.com")
	require.NoError(t, err)

	server := handshakeServer(t, newTestHub(&fakeStore{}, nil), jwtService, &fakeGuard{})

	resp, err := http.Get(server.URL + "/ws?token=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandshakeMembershipFailures(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour, nil)
	token, err := jwtService.GenerateToken(10, "Alice", "alice@example.com")
	require.NoError(t, err)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown project", service.ErrProjectNotFound, http.StatusNotFound},
		{"non-member", service.ErrNotProjectMember, http.StatusForbidden},
		{"store failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := handshakeServer(t, newTestHub(&fakeStore{}, nil), jwtService, &fakeGuard{err: tc.err})

			resp, err := http.Get(server.URL + "/ws?projectId=1&token=" + token)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestHandshakeAndEchoOverLiveSocket(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour, nil)
	token, err := jwtService.GenerateToken(10, "Alice", "alice@example.com")
	require.NoError(t, err)

	store := &fakeStore{}
	hub := newTestHub(store, nil)
	guard := &fakeGuard{project: &models.Project{ID: 1, Name: "payments-api"}}
	server := handshakeServer(t, hub, jwtService, guard)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?projectId=1&token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	frame, err := json.Marshal(Envelope{
		Event: EventProjectMessage,
		Data:  ProjectMessageIn{UserID: 10, ProjectID: 1, Message: "hello over the wire"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Event string                 `json:"event"`
		Data  models.MessageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, EventProjectMessage, env.Event)
	assert.Equal(t, "hello over the wire", env.Data.Content)
	assert.Equal(t, uint(10), env.Data.SenderID.ID)
	assert.Equal(t, "Alice", env.Data.SenderID.Name)

	stored := store.messages()
	require.Len(t, stored, 1)
	assert.Equal(t, "hello over the wire", stored[0].Content)
}
