package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxMessageLen = 4000

type Message struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	ThreadID  string    `gorm:"column:thread_id;type:varchar(36);not null;uniqueIndex:idx_thread_seq"`
	Seq       int64     `gorm:"column:seq;not null;uniqueIndex:idx_thread_seq"`
	SenderUID string    `gorm:"column:sender_uid;size:128;index;not null"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// NewMessage validates content. Seq and CreatedAt are assigned by the store.
func NewMessage(threadID, senderUID, content string) (*Message, error) {
	if threadID == "" || senderUID == "" {
		return nil, errors.New("thread and sender are required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLen {
		return nil, errors.New("content is too long")
	}
	return &Message{ThreadID: threadID, SenderUID: senderUID, Content: content}, nil
}
