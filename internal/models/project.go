package models

import (
	"time"
)

// Project represents a collaborative project and its chat room
type Project struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"uniqueIndex" json:"name"`
	Users         []User    `gorm:"many2many:project_users" json:"users,omitempty"`
	Messages      []Message `gorm:"foreignKey:ProjectID" json:"-"`
	LastMessageAt time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateProjectRequest is the request structure for creating a project
type CreateProjectRequest struct {
	Name string `json:"name" binding:"required,min=3,max=50"`
}

// AddUsersRequest is the request structure for inviting users to a project
type AddUsersRequest struct {
	Users []uint `json:"users" binding:"required,min=1"`
}

// ProjectResponse is the response structure for project data
type ProjectResponse struct {
	ID        uint           `json:"id"`
	Name      string         `json:"name"`
	Users     []UserResponse `json:"users"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ToResponse converts a Project model to a ProjectResponse
func (p *Project) ToResponse() ProjectResponse {
	users := make([]UserResponse, 0, len(p.Users))
	for _, u := range p.Users {
		users = append(users, u.ToResponse())
	}

	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Users:     users,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// HasMember reports whether the given user belongs to the project
func (p *Project) HasMember(userID uint) bool {
	for _, u := range p.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}
