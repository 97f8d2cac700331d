package service

import (
	"context"
	"errors"

	"devforge/backend/internal/models"
	"devforge/backend/pkg/jwt"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserService handles user-related operations
type UserService struct {
	db  *gorm.DB
	jwt *jwt.Service
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, jwtService *jwt.Service) *UserService {
	return &UserService{db: db, jwt: jwtService}
}

// Register creates a new user and issues a credential
func (s *UserService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, string, error) {
	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, "", ErrUserAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password, // hashed by the BeforeCreate hook
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// Login authenticates a user and returns a fresh credential
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	var user models.User
	result := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", result.Error
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// FindOrCreateOAuthUser looks a user up by email and creates one on first
// OAuth login. The provider id is recorded so repeat logins match.
func (s *UserService) FindOrCreateOAuthUser(ctx context.Context, name, email, provider, providerID string) (*models.User, string, error) {
	var user models.User
	result := s.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, "", result.Error
		}

		user = models.User{Name: name, Email: email}
		switch provider {
		case "google":
			user.GoogleID = providerID
		case "github":
			user.GithubID = providerID
		}

		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, "", err
		}
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// GetUser fetches a single user by id
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListOtherUsers returns every user except the caller, for the invite picker
func (s *UserService) ListOtherUsers(ctx context.Context, callerID uint) ([]models.UserResponse, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id <> ?", callerID).Find(&users).Error; err != nil {
		return nil, err
	}

	out := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out, nil
}
