package models

import (
	"time"
)

// Message represents a persisted chat entry. Messages are append-only:
// there is no update or delete path.
type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProjectID uint      `json:"project_id" gorm:"index"`
	SenderID  uint      `json:"sender_id" gorm:"index"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// MessageSender is the sender sub-object shared by the live broadcast
// payload and the history endpoint so clients render both uniformly.
type MessageSender struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MessageResponse is the wire shape of a chat message, identical for
// history fetches and realtime broadcasts.
type MessageResponse struct {
	ID        uint          `json:"id"`
	Content   string        `json:"content"`
	SenderID  MessageSender `json:"senderId"`
	CreatedAt time.Time     `json:"createdAt"`
}
