package service

import (
	"context"
	"time"

	"devforge/backend/internal/models"

	"gorm.io/gorm"
)

// MessageService persists chat messages and serves project history
type MessageService struct {
	db *gorm.DB
}

// NewMessageService creates a new message service
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// Append durably stores a message and links it into its owning project.
// The message row is written first; the project's bookkeeping is a second,
// independent write. A crash between the two leaves a message reachable by
// id but not reflected in the project row, which is an accepted
// inconsistency window rather than a guaranteed invariant.
func (s *MessageService) Append(ctx context.Context, projectID, senderID uint, content string) (*models.Message, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	message := models.Message{
		ProjectID: projectID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&project).
		Update("last_message_at", message.CreatedAt).Error; err != nil {
		return nil, err
	}

	return &message, nil
}

// History returns a project's messages oldest-first, each with the sender
// sub-object populated in the same shape the realtime broadcast uses.
// AI-authored messages carry the reserved assistant identity.
func (s *MessageService) History(ctx context.Context, projectID uint, aiSender models.MessageSender) ([]models.MessageResponse, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Resolve sender display fields in one query instead of per message.
	senderIDs := make([]uint, 0, len(messages))
	seen := make(map[uint]bool)
	for _, m := range messages {
		if m.SenderID != aiSender.ID && !seen[m.SenderID] {
			seen[m.SenderID] = true
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	senders := make(map[uint]models.MessageSender, len(senderIDs))
	if len(senderIDs) > 0 {
		var users []models.User
		if err := s.db.WithContext(ctx).Find(&users, senderIDs).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			senders[u.ID] = models.MessageSender{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}

	out := make([]models.MessageResponse, 0, len(messages))
	for _, m := range messages {
		sender := aiSender
		if m.SenderID != aiSender.ID {
			sender = senders[m.SenderID]
			sender.ID = m.SenderID
		}
		out = append(out, models.MessageResponse{
			ID:        m.ID,
			Content:   m.Content,
			SenderID:  sender,
			CreatedAt: m.CreatedAt,
		})
	}

	return out, nil
}
