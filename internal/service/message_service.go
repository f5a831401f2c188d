package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/realtime"
	"github.com/shinyyama/bidboard-backend/internal/repository"
	"gorm.io/gorm"
)

const (
	defaultMessageLimit = 100
	maxMessageLimit     = 500
	previewLen          = 80
)

type MessageService interface {
	Append(ctx context.Context, threadID, senderUID, content string) (*model.Message, error)
	// SendToQuote appends to the quote's thread, creating the thread first if needed.
	SendToQuote(ctx context.Context, quoteID, senderUID, content string) (*model.Message, *model.ChatThread, error)
	List(ctx context.Context, threadID, uid string, afterSeq int64, limit int) ([]model.Message, error)
	Subscribe(ctx context.Context, threadID, uid string) (*realtime.Subscription, error)
}

type messageService struct {
	msgRepo  repository.MessageRepository
	threads  ThreadService
	hub      *realtime.Hub
	notifier NotificationService
	locks    stripedLock
	now      func() time.Time
}

func NewMessageService(msgRepo repository.MessageRepository, threads ThreadService, hub *realtime.Hub, notifier NotificationService) MessageService {
	return &messageService{
		msgRepo:  msgRepo,
		threads:  threads,
		hub:      hub,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *messageService) Append(ctx context.Context, threadID, senderUID, content string) (*model.Message, error) {
	msg, err := model.NewMessage(threadID, senderUID, content)
	if err != nil {
		return nil, invalid(err)
	}
	th, err := s.threads.Get(ctx, threadID, senderUID)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, msg); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, th.Counterpart(senderUID), model.NotificationNewMessage,
		"New message", preview(msg.Content),
		strPtr(th.PostID), strPtr(th.QuoteID), strPtr(th.ID))
	return msg, nil
}

// store commits msg and publishes it while holding the thread's stripe, so
// subscribers see messages in seq order.
func (s *messageService) store(ctx context.Context, msg *model.Message) error {
	unlock := s.locks.Lock(msg.ThreadID)
	defer unlock()
	// Millisecond precision survives every supported store unchanged.
	if err := s.msgRepo.Append(ctx, msg, s.now().Truncate(time.Millisecond)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: thread", ErrNotFound)
		}
		return storageErr("append message", err)
	}
	if s.hub != nil {
		s.hub.Publish(*msg)
	}
	return nil
}

func (s *messageService) SendToQuote(ctx context.Context, quoteID, senderUID, content string) (*model.Message, *model.ChatThread, error) {
	if _, err := model.NewMessage(quoteID, senderUID, content); err != nil {
		return nil, nil, invalid(err)
	}
	th, err := s.threads.ForQuote(ctx, quoteID, senderUID)
	if err != nil {
		return nil, nil, err
	}
	msg, err := s.Append(ctx, th.ID, senderUID, content)
	if err != nil {
		return nil, nil, err
	}
	return msg, th, nil
}

func (s *messageService) List(ctx context.Context, threadID, uid string, afterSeq int64, limit int) ([]model.Message, error) {
	if _, err := s.threads.Get(ctx, threadID, uid); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	if afterSeq < 0 {
		afterSeq = 0
	}
	msgs, err := s.msgRepo.List(ctx, threadID, afterSeq, limit)
	if err != nil {
		return nil, storageErr("list messages", err)
	}
	_ = s.notifier.MarkByThread(ctx, uid, threadID)
	return msgs, nil
}

func (s *messageService) Subscribe(ctx context.Context, threadID, uid string) (*realtime.Subscription, error) {
	if _, err := s.threads.Get(ctx, threadID, uid); err != nil {
		return nil, err
	}
	if s.hub == nil {
		return nil, fmt.Errorf("%w: realtime disabled", ErrStorage)
	}
	return s.hub.Subscribe(threadID), nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLen {
		return content
	}
	r := []rune(content)
	return string(r[:previewLen]) + "…"
}
