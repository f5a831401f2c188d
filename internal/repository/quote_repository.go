package repository

import (
	"context"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"gorm.io/gorm"
)

type QuoteRepository interface {
	CreateIfOpen(ctx context.Context, quote *model.Quote) error
	FindByID(ctx context.Context, id string) (*model.Quote, error)
	ListByPost(ctx context.Context, postID string) ([]model.Quote, error)
	ListByVendor(ctx context.Context, vendorUID string) ([]model.Quote, error)
	ListByCustomer(ctx context.Context, customerUID string) ([]model.Quote, error)
	Accept(ctx context.Context, quote *model.Quote) error
	RejectIfPending(ctx context.Context, id string) (int64, error)
	SetDB(db *gorm.DB)
}

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) SetDB(db *gorm.DB) {
	r.db = db
}

// CreateIfOpen inserts a pending quote. Bumping quote_count locks the post row
// for the rest of the transaction, so submissions on one post serialize with
// each other and with Accept.
func (r *quoteRepository) CreateIfOpen(ctx context.Context, quote *model.Quote) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Post{}).
			Where("id = ? AND status = ?", quote.PostID, model.PostStatusOpen).
			Update("quote_count", gorm.Expr("quote_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotOpen
		}
		var existing int64
		if err := tx.Model(&model.Quote{}).
			Where("post_id = ? AND vendor_uid = ? AND status <> ?", quote.PostID, quote.VendorUID, model.QuoteStatusRejected).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateQuote
		}
		return tx.Create(quote).Error
	})
}

func (r *quoteRepository) FindByID(ctx context.Context, id string) (*model.Quote, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var q model.Quote
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quoteRepository) ListByPost(ctx context.Context, postID string) ([]model.Quote, error) {
	return r.list(ctx, "post_id = ?", postID)
}

func (r *quoteRepository) ListByVendor(ctx context.Context, vendorUID string) ([]model.Quote, error) {
	return r.list(ctx, "vendor_uid = ?", vendorUID)
}

func (r *quoteRepository) ListByCustomer(ctx context.Context, customerUID string) ([]model.Quote, error) {
	return r.list(ctx, "customer_uid = ?", customerUID)
}

func (r *quoteRepository) list(ctx context.Context, cond string, arg string) ([]model.Quote, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Quote
	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Accept closes the post and marks the quote accepted in one transaction.
// Both writes are conditional; whichever loses a race sees zero affected rows
// and the whole transaction rolls back.
func (r *quoteRepository) Accept(ctx context.Context, quote *model.Quote) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Post{}).
			Where("id = ? AND status = ?", quote.PostID, model.PostStatusOpen).
			Update("status", model.PostStatusClosed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotOpen
		}
		res = tx.Model(&model.Quote{}).
			Where("id = ? AND status = ?", quote.ID, model.QuoteStatusPending).
			Update("status", model.QuoteStatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQuoteNotPending
		}
		return nil
	})
}

func (r *quoteRepository) RejectIfPending(ctx context.Context, id string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Quote{}).
		Where("id = ? AND status = ?", id, model.QuoteStatusPending).
		Update("status", model.QuoteStatusRejected)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
