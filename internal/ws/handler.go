package ws

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"devforge/backend/internal/service"
	"devforge/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced at the router layer
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// ServeWs performs the authenticated session handshake and, on success,
// binds the connection to its project room. Every failure happens before
// the protocol upgrade, so clients see a refused connection rather than an
// application message. A rejected handshake creates no room state.
func ServeWs(hub *Hub, jwtService *jwt.Service, guard MembershipGuard, c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return
	}

	projectIDRaw := c.Query("projectId")
	projectID, err := strconv.ParseUint(projectIDRaw, 10, 64)
	if err != nil || projectID == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid projectId"})
		return
	}

	// connecting -> authenticated: revocation check first, then signature.
	claims, err := jwtService.Verify(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	// authenticated -> joined: membership is checked once, here.
	_, err = guard.AuthorizeJoin(c.Request.Context(), uint(projectID), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "project not found"})
		case errors.Is(err, service.ErrNotProjectMember):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a member of this project"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to authorize join"})
		}
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.LogError(err, "websocket upgrade failed", "user_id", claims.UserID)
		return
	}

	client := &Client{
		Conn:      conn,
		Send:      make(chan []byte, 256),
		done:      make(chan struct{}),
		Hub:       hub,
		RoomID:    uint(projectID),
		UserID:    claims.UserID,
		UserName:  claims.Name,
		UserEmail: claims.Email,
	}

	hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// bearerToken pulls the credential from the Authorization header or the
// equivalent out-of-band query field.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
