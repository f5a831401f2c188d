package model

import "time"

const (
	NotificationQuoteReceived = "quote_received"
	NotificationQuoteAccepted = "quote_accepted"
	NotificationQuoteRejected = "quote_rejected"
	NotificationNewMessage    = "new_message"
)

type Notification struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement"`
	UserUID   string     `gorm:"column:user_uid;size:128;index;not null"`
	Type      string     `gorm:"column:type;size:64;not null"`
	Title     string     `gorm:"column:title;size:255"`
	Body      string     `gorm:"column:body;type:text"`
	PostID    *string    `gorm:"column:post_id;type:varchar(36);index"`
	QuoteID   *string    `gorm:"column:quote_id;type:varchar(36);index"`
	ThreadID  *string    `gorm:"column:thread_id;type:varchar(36);index"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
