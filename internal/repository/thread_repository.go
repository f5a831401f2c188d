package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"gorm.io/gorm"
)

type ThreadRepository interface {
	GetOrCreate(ctx context.Context, thread *model.ChatThread) (*model.ChatThread, error)
	FindByID(ctx context.Context, id string) (*model.ChatThread, error)
	FindByQuoteID(ctx context.Context, quoteID string) (*model.ChatThread, error)
	ListByUser(ctx context.Context, uid string) ([]model.ChatThread, error)
	SetDB(db *gorm.DB)
}

type threadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) SetDB(db *gorm.DB) {
	r.db = db
}

// GetOrCreate returns the thread bound to thread.QuoteID, inserting it when
// missing. A concurrent insert trips the unique index on quote_id; the loser
// re-reads and returns the winner's row.
func (r *threadRepository) GetOrCreate(ctx context.Context, thread *model.ChatThread) (*model.ChatThread, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	existing, err := r.FindByQuoteID(ctx, thread.QuoteID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	createErr := r.db.WithContext(ctx).Create(thread).Error
	if createErr == nil {
		return thread, nil
	}
	existing, err = r.FindByQuoteID(ctx, thread.QuoteID)
	if err == nil {
		return existing, nil
	}
	return nil, createErr
}

func (r *threadRepository) FindByID(ctx context.Context, id string) (*model.ChatThread, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var t model.ChatThread
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *threadRepository) FindByQuoteID(ctx context.Context, quoteID string) (*model.ChatThread, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var t model.ChatThread
	if err := r.db.WithContext(ctx).Where("quote_id = ?", quoteID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *threadRepository) ListByUser(ctx context.Context, uid string) ([]model.ChatThread, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.ChatThread
	if err := r.db.WithContext(ctx).
		Where("customer_uid = ? OR vendor_uid = ?", uid, uid).
		Order("COALESCE(last_message_at, created_at) DESC").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
