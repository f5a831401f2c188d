package service

import (
	"context"
	"log"
	"time"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/repository"
)

type NotificationService interface {
	Notify(ctx context.Context, userUID, typ, title, body string, postID, quoteID, threadID *string)
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
	MarkByThread(ctx context.Context, userUID, threadID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// Notify is best-effort. Failures are logged, never returned.
func (s *notificationService) Notify(ctx context.Context, userUID, typ, title, body string, postID, quoteID, threadID *string) {
	if userUID == "" || typ == "" {
		return
	}
	ctx, cancel := withShortDeadline(context.WithoutCancel(ctx))
	defer cancel()
	n := &model.Notification{
		UserUID:  userUID,
		Type:     typ,
		Title:    title,
		Body:     body,
		PostID:   postID,
		QuoteID:  quoteID,
		ThreadID: threadID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("[notify] type=%s user=%s err=%v", typ, userUID, err)
	}
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, storageErr("list notifications", err)
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, storageErr("count notifications", err)
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	if err := s.repo.MarkAllRead(ctx, userUID); err != nil {
		return storageErr("mark notifications read", err)
	}
	return nil
}

func (s *notificationService) MarkByThread(ctx context.Context, userUID, threadID string) error {
	if userUID == "" || threadID == "" {
		return nil
	}
	if err := s.repo.MarkByThread(ctx, userUID, threadID); err != nil {
		return storageErr("mark thread notifications read", err)
	}
	return nil
}

func strPtr(v string) *string {
	return &v
}

// withShortDeadline bounds side-channel writes so they cannot hold up the caller.
func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Second)
}
