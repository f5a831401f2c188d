package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// Quote is a vendor's offer on a post. Price is in the smallest currency unit.
type Quote struct {
	ID           string      `gorm:"type:varchar(36);primaryKey"`
	PostID       string      `gorm:"column:post_id;type:varchar(36);index;not null"`
	VendorUID    string      `gorm:"column:vendor_uid;size:128;index;not null"`
	CustomerUID  string      `gorm:"column:customer_uid;size:128;index;not null"`
	Price        int64       `gorm:"column:price;not null"`
	DeliveryDays int         `gorm:"column:delivery_days;not null"`
	Message      string      `gorm:"column:message;type:text;not null"`
	Status       QuoteStatus `gorm:"column:status;size:16;index;not null"`
	CreatedAt    time.Time   `gorm:"autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime"`
}

func (Quote) TableName() string {
	return "quotes"
}

func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

func NewQuote(post *Post, vendorUID string, price int64, deliveryDays int, message string) (*Quote, error) {
	if vendorUID == "" {
		return nil, errors.New("vendor is required")
	}
	if price <= 0 {
		return nil, errors.New("price must be positive")
	}
	if deliveryDays <= 0 {
		return nil, errors.New("delivery_days must be positive")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("message is required")
	}
	if post.OwnerUID == vendorUID {
		return nil, errors.New("cannot quote on your own post")
	}
	return &Quote{
		PostID:       post.ID,
		VendorUID:    vendorUID,
		CustomerUID:  post.OwnerUID,
		Price:        price,
		DeliveryDays: deliveryDays,
		Message:      message,
		Status:       QuoteStatusPending,
	}, nil
}
