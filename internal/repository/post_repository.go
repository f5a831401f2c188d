package repository

import (
	"context"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	ListOpen(ctx context.Context, category string, limit, offset int) ([]model.Post, int64, error)
	ListByOwner(ctx context.Context, ownerUID string) ([]model.Post, error)
	UpdateIfOpen(ctx context.Context, post *model.Post) error
	DeleteIfOpen(ctx context.Context, id string) error
	SetDB(db *gorm.DB)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var post model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListOpen(ctx context.Context, category string, limit, offset int) ([]model.Post, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		posts []model.Post
		total int64
	)
	filter := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("status = ?", model.PostStatusOpen)
		if category != "" {
			tx = tx.Where("category = ?", category)
		}
		return tx
	}
	if err := r.db.WithContext(ctx).Model(&model.Post{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Scopes(filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) ListByOwner(ctx context.Context, ownerUID string) ([]model.Post, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var posts []model.Post
	if err := r.db.WithContext(ctx).
		Where("owner_uid = ?", ownerUID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateIfOpen writes the editable columns only while the post is still open.
func (r *postRepository) UpdateIfOpen(ctx context.Context, post *model.Post) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(post).
		Where("status = ?", model.PostStatusOpen).
		Select("title", "description", "category", "budget_min", "budget_max", "images", "updated_at").
		Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotOpen
	}
	return nil
}

// DeleteIfOpen removes an open post and its quotes. Posts that already have a
// chat thread are kept so the conversation history survives.
func (r *postRepository) DeleteIfOpen(ctx context.Context, id string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", id, model.PostStatusOpen).Delete(&model.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotOpen
		}
		var threads int64
		if err := tx.Model(&model.ChatThread{}).Where("post_id = ?", id).Count(&threads).Error; err != nil {
			return err
		}
		if threads > 0 {
			return ErrPostHasThreads
		}
		return tx.Where("post_id = ?", id).Delete(&model.Quote{}).Error
	})
}
