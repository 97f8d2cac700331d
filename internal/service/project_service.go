package service

import (
	"context"
	"errors"
	"fmt"

	"devforge/backend/internal/models"
	"devforge/backend/pkg/cache"

	"gorm.io/gorm"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectAlreadyExists = errors.New("project already exists")
	ErrNotProjectMember     = errors.New("user is not a member of this project")
	ErrAlreadyMember        = errors.New("user is already a member of this project")
)

// ProjectService handles project CRUD and membership authorization
type ProjectService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewProjectService creates a new project service. The cache is optional
// and only consulted by AuthorizeJoin.
func NewProjectService(db *gorm.DB, c *cache.Cache) *ProjectService {
	return &ProjectService{db: db, cache: c}
}

// Create creates a project with the creator as its first member
func (s *ProjectService) Create(ctx context.Context, name string, creatorID uint) (*models.Project, error) {
	var existing models.Project
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, ErrProjectAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var creator models.User
	if err := s.db.WithContext(ctx).First(&creator, creatorID).Error; err != nil {
		return nil, err
	}

	project := models.Project{
		Name:  name,
		Users: []models.User{creator},
	}

	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// ListForUser returns every project the user belongs to, members populated
func (s *ProjectService) ListForUser(ctx context.Context, userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Preload("Users").
		Joins("JOIN project_users ON project_users.project_id = projects.id").
		Where("project_users.user_id = ?", userID).
		Find(&projects).Error
	return projects, err
}

// Get fetches a project with its members. Returns ErrProjectNotFound when
// the id does not resolve and ErrNotProjectMember when the caller does not
// belong to it.
func (s *ProjectService) Get(ctx context.Context, projectID, userID uint) (*models.Project, error) {
	project, err := s.find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !project.HasMember(userID) {
		return nil, ErrNotProjectMember
	}

	return project, nil
}

// AuthorizeJoin confirms the project exists and the user belongs to it.
// Runs once per socket handshake; results are cached briefly so reconnect
// storms do not hammer the store.
func (s *ProjectService) AuthorizeJoin(ctx context.Context, projectID, userID uint) (*models.Project, error) {
	key := fmt.Sprintf("project:%d", projectID)

	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if project, ok := v.(*models.Project); ok {
				if !project.HasMember(userID) {
					return nil, ErrNotProjectMember
				}
				return project, nil
			}
		}
	}

	project, err := s.find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, project)
	}

	if !project.HasMember(userID) {
		return nil, ErrNotProjectMember
	}

	return project, nil
}

// AddUsers invites users into a project. The caller must be a member, and
// every target must not already be one.
func (s *ProjectService) AddUsers(ctx context.Context, projectID, callerID uint, userIDs []uint) (*models.Project, error) {
	project, err := s.find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !project.HasMember(callerID) {
		return nil, ErrNotProjectMember
	}

	var invitees []models.User
	if err := s.db.WithContext(ctx).Find(&invitees, userIDs).Error; err != nil {
		return nil, err
	}
	if len(invitees) != len(userIDs) {
		return nil, ErrUserNotFound
	}

	for _, u := range invitees {
		if project.HasMember(u.ID) {
			return nil, ErrAlreadyMember
		}
	}

	if err := s.db.WithContext(ctx).Model(project).Association("Users").Append(invitees); err != nil {
		return nil, err
	}

	s.invalidate(projectID)
	return s.find(ctx, projectID)
}

// Delete removes a project. Member-only.
func (s *ProjectService) Delete(ctx context.Context, projectID, callerID uint) error {
	project, err := s.find(ctx, projectID)
	if err != nil {
		return err
	}

	if !project.HasMember(callerID) {
		return ErrNotProjectMember
	}

	if err := s.db.WithContext(ctx).Select("Users").Delete(project).Error; err != nil {
		return err
	}

	s.invalidate(projectID)
	return nil
}

func (s *ProjectService) find(ctx context.Context, projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Preload("Users").First(&project, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) invalidate(projectID uint) {
	if s.cache != nil {
		s.cache.Delete(fmt.Sprintf("project:%d", projectID))
	}
}
