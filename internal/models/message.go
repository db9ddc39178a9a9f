package models

import "time"

// ChatMessage is an append-only project chat line.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	SenderID  uint      `gorm:"index;not null" json:"sender_id"`
	Sender    *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// DirectMessage is an append-only user-to-user message. Only IsRead changes.
type DirectMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"index:idx_dm_sender_receiver;not null" json:"sender_id"`
	Sender     *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID uint      `gorm:"index:idx_dm_sender_receiver;not null" json:"receiver_id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (DirectMessage) TableName() string { return "direct_messages" }
