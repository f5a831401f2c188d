package service

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shinyyama/bidboard-backend/internal/db/dbtest"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/realtime"
	"github.com/shinyyama/bidboard-backend/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	hub      *realtime.Hub
	posts    PostService
	quotes   QuoteService
	threads  ThreadService
	messages MessageService
	notices  NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	hub := realtime.NewHub(16)
	t.Cleanup(hub.Close)

	postRepo := repository.NewPostRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	notices := NewNotificationService(repository.NewNotificationRepository(db))
	threads := NewThreadService(threadRepo, quoteRepo)
	return &fixture{
		db:       db,
		hub:      hub,
		posts:    NewPostService(postRepo),
		quotes:   NewQuoteService(quoteRepo, postRepo, threads, notices),
		threads:  threads,
		messages: NewMessageService(repository.NewMessageRepository(db), threads, hub, notices),
		notices:  notices,
	}
}

func (f *fixture) post(t *testing.T, ownerUID string) *model.Post {
	t.Helper()
	p, err := f.posts.Create(context.Background(), ownerUID, model.PostInput{
		Title:       gofakeit.BS() + " " + gofakeit.BuzzWord(),
		Description: gofakeit.Blurb(),
		Category:    "furniture",
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) quote(t *testing.T, post *model.Post, vendorUID string) *model.Quote {
	t.Helper()
	q, err := f.quotes.Submit(context.Background(), post.ID, vendorUID, int64(gofakeit.IntRange(100, 9999)), gofakeit.IntRange(1, 14), gofakeit.Blurb())
	require.NoError(t, err)
	return q
}

func (f *fixture) acceptedThread(t *testing.T) (*model.ChatThread, *model.Quote) {
	t.Helper()
	post := f.post(t, "customer")
	q := f.quote(t, post, "vendor")
	th, err := f.quotes.Accept(context.Background(), q.ID, "customer")
	require.NoError(t, err)
	return th, q
}
