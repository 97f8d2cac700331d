package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"devforge/backend/internal/models"
	"devforge/backend/pkg/config"
	"devforge/backend/pkg/di"
	"devforge/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Project{}, &models.Message{}, &models.Payment{}))

	logCfg := logger.DefaultConfig()
	logCfg.Level = "error"
	log := logger.New(logCfg)

	container, err := di.New(db, config.New(), log)
	require.NoError(t, err)

	r := New(container)
	r.SetupRoutes()
	return r
}

func TestMetricsEndpoint(t *testing.T) {
	r := testRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestProtectedRoutesRequireCredential(t *testing.T) {
	r := testRouter(t)

	for _, path := range []string{"/api/projects", "/api/users", "/api/projects/1/messages"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.Engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestWebSocketHandshakeRequiresCredential(t *testing.T) {
	r := testRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/ws?projectId=1", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPreflightRequestShortCircuits(t *testing.T) {
	r := testRouter(t)

	req, _ := http.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestSignupAndLoginFlow(t *testing.T) {
	r := testRouter(t)

	signup := `{"name":"Alice","email":"alice@example.com","password":"hunter2"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(signup))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	login := `{"email":"alice@example.com","password":"hunter2"}`
	req, _ = http.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(login))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
