package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devforge/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authTestEngine(jwtService *jwt.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/protected", JWTAuthMiddleware(jwtService, nil), func(c *gin.Context) {
		claims := Claims(c)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID, "name": claims.Name})
	})
	return engine
}

func TestJWTAuthMiddlewareAcceptsHeaderToken(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour, nil)
	token, err := jwtService.GenerateToken(7, "Alice", "alice@example.com")
	require.NoError(t, err)

	engine := authTestEngine(jwtService)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":7`)
}

func TestJWTAuthMiddlewareAcceptsQueryToken(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour, nil)
	token, err := jwtService.GenerateToken(7, "Alice", "alice@example.com")
	require.NoError(t, err)

	engine := authTestEngine(jwtService)

	req, _ := http.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddlewareRejects(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour, nil)
	engine := authTestEngine(jwtService)

	cases := []struct {
		name   string
		header string
	}{
		{"missing token", ""},
		{"malformed token", "Bearer not-a-jwt"},
		{"wrong scheme", "Basic abc123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
