package repository

import (
	"context"
	"testing"

	"github.com/shinyyama/bidboard-backend/internal/db/dbtest"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := NewPostRepository(db)
	lo, hi := int64(1000), int64(5000)
	post, err := model.NewPost("customer", model.PostInput{
		Title:       "Oak dining table",
		Description: "Seats six",
		Category:    "furniture",
		BudgetMin:   &lo,
		BudgetMax:   &hi,
		Images:      []string{"https://example.com/a.jpg", "https://example.com/b.jpg"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, post))
	require.NotEmpty(t, post.ID)

	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Images, got.Images)
	assert.Equal(t, model.PostStatusOpen, got.Status)
	require.NotNil(t, got.BudgetMax)
	assert.EqualValues(t, 5000, *got.BudgetMax)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPostRepository_ListOpen(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := NewPostRepository(db)
	open := seedPost(t, db, "customer")
	closed := seedPost(t, db, "customer")
	q := seedQuote(t, db, closed, "vendor")
	require.NoError(t, NewQuoteRepository(db).Accept(ctx, q))

	list, total, err := repo.ListOpen(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, open.ID, list[0].ID)

	_, total, err = repo.ListOpen(ctx, "no-such-category", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	mine, err := repo.ListByOwner(ctx, "customer")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestPostRepository_UpdateIfOpen(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := NewPostRepository(db)
	post := seedPost(t, db, "customer")

	require.NoError(t, post.Apply(model.PostInput{Title: "Updated", Description: "New text"}))
	require.NoError(t, repo.UpdateIfOpen(ctx, post))
	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)

	q := seedQuote(t, db, post, "vendor")
	require.NoError(t, NewQuoteRepository(db).Accept(ctx, q))
	post.Title = "Too late"
	assert.ErrorIs(t, repo.UpdateIfOpen(ctx, post), ErrPostNotOpen)
}

func TestPostRepository_DeleteIfOpen(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := NewPostRepository(db)

	post := seedPost(t, db, "customer")
	seedQuote(t, db, post, "vendor")
	require.NoError(t, repo.DeleteIfOpen(ctx, post.ID))
	var quotes int64
	require.NoError(t, db.Model(&model.Quote{}).Where("post_id = ?", post.ID).Count(&quotes).Error)
	assert.Zero(t, quotes)

	chatty := seedPost(t, db, "customer")
	q := seedQuote(t, db, chatty, "vendor")
	_, err := NewThreadRepository(db).GetOrCreate(ctx, model.NewChatThread(q))
	require.NoError(t, err)
	assert.ErrorIs(t, repo.DeleteIfOpen(ctx, chatty.ID), ErrPostHasThreads)
	_, err = repo.FindByID(ctx, chatty.ID)
	assert.NoError(t, err, "delete must roll back")

	assert.ErrorIs(t, repo.DeleteIfOpen(ctx, "missing"), ErrPostNotOpen)
}

func TestRepositories_DBNotReady(t *testing.T) {
	ctx := context.Background()
	_, err := NewPostRepository(nil).FindByID(ctx, "x")
	assert.ErrorIs(t, err, ErrDBNotReady)
	assert.ErrorIs(t, NewQuoteRepository(nil).Accept(ctx, &model.Quote{}), ErrDBNotReady)
	_, err = NewThreadRepository(nil).GetOrCreate(ctx, &model.ChatThread{})
	assert.ErrorIs(t, err, ErrDBNotReady)
	_, err = NewMessageRepository(nil).List(ctx, "x", 0, 0)
	assert.ErrorIs(t, err, ErrDBNotReady)
}
