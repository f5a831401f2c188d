package repository

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPost(t *testing.T, db *gorm.DB, ownerUID string) *model.Post {
	t.Helper()
	post, err := model.NewPost(ownerUID, model.PostInput{
		Title:       gofakeit.BS() + " " + gofakeit.BuzzWord(),
		Description: gofakeit.Blurb(),
		Category:    gofakeit.BuzzWord(),
	})
	require.NoError(t, err)
	require.NoError(t, NewPostRepository(db).Create(context.Background(), post))
	return post
}

func seedQuote(t *testing.T, db *gorm.DB, post *model.Post, vendorUID string) *model.Quote {
	t.Helper()
	q, err := model.NewQuote(post, vendorUID, int64(gofakeit.IntRange(100, 100000)), gofakeit.IntRange(1, 30), gofakeit.Blurb())
	require.NoError(t, err)
	require.NoError(t, NewQuoteRepository(db).CreateIfOpen(context.Background(), q))
	return q
}
