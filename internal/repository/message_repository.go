package repository

import (
	"context"
	"time"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Append(ctx context.Context, msg *model.Message, now time.Time) error
	List(ctx context.Context, threadID string, afterSeq int64, limit int) ([]model.Message, error)
	SetDB(db *gorm.DB)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) SetDB(db *gorm.DB) {
	r.db = db
}

// Append assigns the next per-thread seq and a created_at no earlier than the
// thread's previous message, then inserts msg. The seq bump holds the thread
// row lock until commit.
func (r *messageRepository) Append(ctx context.Context, msg *model.Message, now time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ChatThread{}).
			Where("id = ?", msg.ThreadID).
			Update("next_seq", gorm.Expr("next_seq + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		var thread model.ChatThread
		if err := tx.Where("id = ?", msg.ThreadID).First(&thread).Error; err != nil {
			return err
		}
		createdAt := now
		if thread.LastMessageAt != nil && createdAt.Before(*thread.LastMessageAt) {
			createdAt = *thread.LastMessageAt
		}
		msg.Seq = thread.NextSeq
		msg.CreatedAt = createdAt
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.ChatThread{}).
			Where("id = ?", msg.ThreadID).
			Update("last_message_at", createdAt).Error
	})
}

func (r *messageRepository) List(ctx context.Context, threadID string, afterSeq int64, limit int) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.Message
	q := r.db.WithContext(ctx).
		Where("thread_id = ? AND seq > ?", threadID, afterSeq).
		Order("created_at ASC").
		Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
