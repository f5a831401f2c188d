package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatThread is bound to exactly one quote. NextSeq is the last sequence
// number handed out to a message in the thread.
type ChatThread struct {
	ID            string     `gorm:"type:varchar(36);primaryKey"`
	QuoteID       string     `gorm:"column:quote_id;type:varchar(36);uniqueIndex;not null"`
	PostID        string     `gorm:"column:post_id;type:varchar(36);index;not null"`
	CustomerUID   string     `gorm:"column:customer_uid;size:128;index;not null"`
	VendorUID     string     `gorm:"column:vendor_uid;size:128;index;not null"`
	NextSeq       int64      `gorm:"column:next_seq;not null;default:0"`
	LastMessageAt *time.Time `gorm:"column:last_message_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
}

func (ChatThread) TableName() string {
	return "chat_threads"
}

func (t *ChatThread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *ChatThread) IsParticipant(uid string) bool {
	return uid != "" && (uid == t.CustomerUID || uid == t.VendorUID)
}

// Counterpart returns the other participant.
func (t *ChatThread) Counterpart(uid string) string {
	if uid == t.CustomerUID {
		return t.VendorUID
	}
	return t.CustomerUID
}

func NewChatThread(q *Quote) *ChatThread {
	return &ChatThread{
		QuoteID:     q.ID,
		PostID:      q.PostID,
		CustomerUID: q.CustomerUID,
		VendorUID:   q.VendorUID,
	}
}
