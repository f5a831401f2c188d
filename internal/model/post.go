package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostStatus string

const (
	PostStatusOpen   PostStatus = "open"
	PostStatusClosed PostStatus = "closed"
)

const (
	maxTitleLen   = 120
	maxPostImages = 10
)

// Post is a customer's requirement post. Vendors quote against it.
type Post struct {
	ID          string     `gorm:"type:varchar(36);primaryKey"`
	OwnerUID    string     `gorm:"column:owner_uid;size:128;index;not null"`
	Title       string     `gorm:"size:120;not null"`
	Description string     `gorm:"type:text;not null"`
	Category    string     `gorm:"size:64;index"`
	BudgetMin   *int64     `gorm:"column:budget_min"`
	BudgetMax   *int64     `gorm:"column:budget_max"`
	Images      []string   `gorm:"column:images;type:text;serializer:json"`
	Status      PostStatus `gorm:"column:status;size:16;index;not null"`
	QuoteCount  int64      `gorm:"column:quote_count;not null;default:0"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type PostInput struct {
	Title       string
	Description string
	Category    string
	BudgetMin   *int64
	BudgetMax   *int64
	Images      []string
}

func (in PostInput) Validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return errors.New("title is too long")
	}
	if strings.TrimSpace(in.Description) == "" {
		return errors.New("description is required")
	}
	if in.BudgetMin != nil && *in.BudgetMin < 0 {
		return errors.New("budget_min must not be negative")
	}
	if in.BudgetMax != nil && *in.BudgetMax < 0 {
		return errors.New("budget_max must not be negative")
	}
	if in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMin > *in.BudgetMax {
		return errors.New("budget_min exceeds budget_max")
	}
	if len(in.Images) > maxPostImages {
		return errors.New("too many images")
	}
	for _, u := range in.Images {
		u = strings.TrimSpace(u)
		if u == "" {
			return errors.New("image url is empty")
		}
		if strings.HasPrefix(u, "data:") {
			return errors.New("images must be URLs, not data URIs")
		}
	}
	return nil
}

// NewPost validates in and returns an open post owned by ownerUID.
func NewPost(ownerUID string, in PostInput) (*Post, error) {
	if ownerUID == "" {
		return nil, errors.New("owner is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := &Post{OwnerUID: ownerUID, Status: PostStatusOpen}
	p.apply(in)
	return p, nil
}

// Apply replaces the editable fields after validating them.
func (p *Post) Apply(in PostInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	p.apply(in)
	return nil
}

func (p *Post) apply(in PostInput) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.Category = strings.TrimSpace(in.Category)
	p.BudgetMin = in.BudgetMin
	p.BudgetMax = in.BudgetMax
	p.Images = append([]string{}, in.Images...)
}
