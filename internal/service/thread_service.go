package service

import (
	"context"
	"fmt"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/repository"
)

type ThreadService interface {
	// GetOrCreate returns the single thread bound to quote. Safe to call
	// concurrently and repeatedly.
	GetOrCreate(ctx context.Context, quote *model.Quote) (*model.ChatThread, error)
	Get(ctx context.Context, threadID, uid string) (*model.ChatThread, error)
	ListForUser(ctx context.Context, uid string) ([]model.ChatThread, error)
	// ForQuote opens the thread for a quote on behalf of one of its parties.
	ForQuote(ctx context.Context, quoteID, uid string) (*model.ChatThread, error)
}

type threadService struct {
	threadRepo repository.ThreadRepository
	quoteRepo  repository.QuoteRepository
}

func NewThreadService(threadRepo repository.ThreadRepository, quoteRepo repository.QuoteRepository) ThreadService {
	return &threadService{threadRepo: threadRepo, quoteRepo: quoteRepo}
}

func (s *threadService) GetOrCreate(ctx context.Context, quote *model.Quote) (*model.ChatThread, error) {
	th, err := s.threadRepo.GetOrCreate(ctx, model.NewChatThread(quote))
	if err != nil {
		return nil, storageErr("get or create thread", err)
	}
	return th, nil
}

func (s *threadService) Get(ctx context.Context, threadID, uid string) (*model.ChatThread, error) {
	th, err := s.threadRepo.FindByID(ctx, threadID)
	if err != nil {
		return nil, lookupErr("thread", "find thread", err)
	}
	if !th.IsParticipant(uid) {
		return nil, ErrForbidden
	}
	return th, nil
}

func (s *threadService) ListForUser(ctx context.Context, uid string) ([]model.ChatThread, error) {
	list, err := s.threadRepo.ListByUser(ctx, uid)
	if err != nil {
		return nil, storageErr("list threads", err)
	}
	return list, nil
}

func (s *threadService) ForQuote(ctx context.Context, quoteID, uid string) (*model.ChatThread, error) {
	q, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, lookupErr("quote", "find quote", err)
	}
	if uid == "" || (uid != q.VendorUID && uid != q.CustomerUID) {
		return nil, ErrForbidden
	}
	if q.Status == model.QuoteStatusRejected {
		return nil, fmt.Errorf("%w: quote was rejected", ErrConflict)
	}
	return s.GetOrCreate(ctx, q)
}
