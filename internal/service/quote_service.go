package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/repository"
)

type QuoteService interface {
	Submit(ctx context.Context, postID, vendorUID string, price int64, deliveryDays int, message string) (*model.Quote, error)
	Accept(ctx context.Context, quoteID, callerUID string) (*model.ChatThread, error)
	Reject(ctx context.Context, quoteID, callerUID string) (*model.Quote, error)
	ListForPost(ctx context.Context, postID, callerUID string) ([]model.Quote, error)
	ListForVendor(ctx context.Context, vendorUID string) ([]model.Quote, error)
	ListForCustomer(ctx context.Context, customerUID string) ([]model.Quote, error)
}

type quoteService struct {
	quoteRepo repository.QuoteRepository
	postRepo  repository.PostRepository
	threads   ThreadService
	notifier  NotificationService
}

func NewQuoteService(quoteRepo repository.QuoteRepository, postRepo repository.PostRepository, threads ThreadService, notifier NotificationService) QuoteService {
	return &quoteService{quoteRepo: quoteRepo, postRepo: postRepo, threads: threads, notifier: notifier}
}

func (s *quoteService) Submit(ctx context.Context, postID, vendorUID string, price int64, deliveryDays int, message string) (*model.Quote, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, lookupErr("post", "find post", err)
	}
	q, err := model.NewQuote(post, vendorUID, price, deliveryDays, message)
	if err != nil {
		return nil, invalid(err)
	}
	if post.Status != model.PostStatusOpen {
		return nil, fmt.Errorf("%w: post is closed", ErrConflict)
	}
	if err := s.quoteRepo.CreateIfOpen(ctx, q); err != nil {
		switch {
		case errors.Is(err, repository.ErrPostNotOpen):
			return nil, fmt.Errorf("%w: post is closed", ErrConflict)
		case errors.Is(err, repository.ErrDuplicateQuote):
			return nil, fmt.Errorf("%w: you already quoted on this post", ErrDuplicate)
		}
		return nil, storageErr("create quote", err)
	}
	log.Printf("[quote] submitted id=%s post=%s vendor=%s", q.ID, post.ID, vendorUID)
	s.notifier.Notify(ctx, post.OwnerUID, model.NotificationQuoteReceived,
		"New quote received", fmt.Sprintf("A vendor quoted on \"%s\"", post.Title),
		strPtr(post.ID), strPtr(q.ID), nil)
	return q, nil
}

// ownedQuote loads a quote together with its post and checks that callerUID
// owns the post. Ownership is read from the post row, never from the request.
func (s *quoteService) ownedQuote(ctx context.Context, quoteID, callerUID string) (*model.Quote, *model.Post, error) {
	q, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, nil, lookupErr("quote", "find quote", err)
	}
	post, err := s.postRepo.FindByID(ctx, q.PostID)
	if err != nil {
		return nil, nil, lookupErr("post", "find post", err)
	}
	if callerUID == "" || post.OwnerUID != callerUID {
		return nil, nil, ErrForbidden
	}
	return q, post, nil
}

func (s *quoteService) Accept(ctx context.Context, quoteID, callerUID string) (*model.ChatThread, error) {
	q, post, err := s.ownedQuote(ctx, quoteID, callerUID)
	if err != nil {
		return nil, err
	}
	switch q.Status {
	case model.QuoteStatusAccepted:
		return s.threads.GetOrCreate(ctx, q)
	case model.QuoteStatusRejected:
		return nil, fmt.Errorf("%w: quote was rejected", ErrConflict)
	}

	if err := s.quoteRepo.Accept(ctx, q); err != nil {
		if !errors.Is(err, repository.ErrPostNotOpen) && !errors.Is(err, repository.ErrQuoteNotPending) {
			return nil, storageErr("accept quote", err)
		}
		// Lost a race. A concurrent accept of this same quote still counts.
		cur, ferr := s.quoteRepo.FindByID(ctx, q.ID)
		if ferr != nil {
			return nil, storageErr("find quote", ferr)
		}
		if cur.Status != model.QuoteStatusAccepted {
			return nil, fmt.Errorf("%w: post already has an accepted quote", ErrConflict)
		}
		return s.threads.GetOrCreate(ctx, cur)
	}
	q.Status = model.QuoteStatusAccepted

	th, err := s.threads.GetOrCreate(ctx, q)
	if err != nil {
		return nil, err
	}
	log.Printf("[quote] accepted id=%s post=%s thread=%s", q.ID, post.ID, th.ID)
	s.notifier.Notify(ctx, q.VendorUID, model.NotificationQuoteAccepted,
		"Your quote was accepted", fmt.Sprintf("Your quote on \"%s\" was accepted", post.Title),
		strPtr(post.ID), strPtr(q.ID), strPtr(th.ID))
	return th, nil
}

func (s *quoteService) Reject(ctx context.Context, quoteID, callerUID string) (*model.Quote, error) {
	q, post, err := s.ownedQuote(ctx, quoteID, callerUID)
	if err != nil {
		return nil, err
	}
	n, err := s.quoteRepo.RejectIfPending(ctx, q.ID)
	if err != nil {
		return nil, storageErr("reject quote", err)
	}
	if n == 0 {
		cur, err := s.quoteRepo.FindByID(ctx, q.ID)
		if err != nil {
			return nil, lookupErr("quote", "find quote", err)
		}
		if cur.Status == model.QuoteStatusRejected {
			return cur, nil
		}
		return nil, fmt.Errorf("%w: quote is %s", ErrConflict, cur.Status)
	}
	q.Status = model.QuoteStatusRejected
	log.Printf("[quote] rejected id=%s post=%s", q.ID, post.ID)
	s.notifier.Notify(ctx, q.VendorUID, model.NotificationQuoteRejected,
		"Your quote was declined", fmt.Sprintf("Your quote on \"%s\" was declined", post.Title),
		strPtr(post.ID), strPtr(q.ID), nil)
	return q, nil
}

func (s *quoteService) ListForPost(ctx context.Context, postID, callerUID string) ([]model.Quote, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, lookupErr("post", "find post", err)
	}
	if post.OwnerUID != callerUID {
		return nil, ErrForbidden
	}
	list, err := s.quoteRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, storageErr("list quotes", err)
	}
	return list, nil
}

func (s *quoteService) ListForVendor(ctx context.Context, vendorUID string) ([]model.Quote, error) {
	list, err := s.quoteRepo.ListByVendor(ctx, vendorUID)
	if err != nil {
		return nil, storageErr("list vendor quotes", err)
	}
	return list, nil
}

func (s *quoteService) ListForCustomer(ctx context.Context, customerUID string) ([]model.Quote, error) {
	list, err := s.quoteRepo.ListByCustomer(ctx, customerUID)
	if err != nil {
		return nil, storageErr("list customer quotes", err)
	}
	return list, nil
}
