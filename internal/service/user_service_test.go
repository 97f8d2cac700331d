package service

import (
	"context"
	"testing"
	"time"

	"devforge/backend/internal/models"
	"devforge/backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T) (*UserService, *jwt.Service) {
	t.Helper()
	jwtService := jwt.NewService("test-secret", time.Hour, nil)
	return NewUserService(testDB(t), jwtService), jwtService
}

func TestRegisterIssuesCredential(t *testing.T) {
	svc, jwtService := newTestUserService(t)

	user, token, err := svc.Register(context.Background(), &models.CreateUserRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)

	// Stored password is hashed, never the plaintext.
	assert.NotEqual(t, "hunter2", user.Password)
	assert.True(t, models.CheckPasswordHash("hunter2", user.Password))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService(t)

	req := &models.CreateUserRequest{Name: "Alice", Email: "alice@example.com", Password: "hunter2"}
	_, _, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterSurfacesQueryError(t *testing.T) {
	db := testDB(t)
	svc := NewUserService(db, jwt.NewService("test-secret", time.Hour, nil))

	require.NoError(t, db.Migrator().DropTable(&models.User{}))

	// A broken duplicate-email lookup must fail loudly, not read as
	// "email is free".
	_, _, err := svc.Register(context.Background(), &models.CreateUserRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter2",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, _, err := svc.Register(context.Background(), &models.CreateUserRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)

	user, token, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(context.Background(), &models.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), &models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "hunter2",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFindOrCreateOAuthUser(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	created, token, err := svc.FindOrCreateOAuthUser(ctx, "Alice", "alice@example.com", "google", "g-123")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, token)
	assert.Equal(t, "g-123", created.GoogleID)

	// Second login with the same email resolves to the same account.
	again, _, err := svc.FindOrCreateOAuthUser(ctx, "Alice G", "alice@example.com", "google", "g-123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}

func TestListOtherUsersExcludesCaller(t *testing.T) {
	svc, _ := newTestUserService(t)
	db := svc.db

	alice := createUser(t, db, "Alice", "alice@example.com")
	createUser(t, db, "Bob", "bob@example.com")
	createUser(t, db, "Carol", "carol@example.com")

	users, err := svc.ListOtherUsers(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, alice.ID, u.ID)
	}
}
