package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/repository"
)

const (
	defaultPostLimit = 20
	maxPostLimit     = 100
)

type PostService interface {
	Create(ctx context.Context, ownerUID string, in model.PostInput) (*model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	ListOpen(ctx context.Context, category string, limit, offset int) ([]model.Post, int64, error)
	ListMine(ctx context.Context, ownerUID string) ([]model.Post, error)
	Update(ctx context.Context, id, uid string, in model.PostInput) (*model.Post, error)
	Delete(ctx context.Context, id, uid string) error
}

type postService struct {
	repo repository.PostRepository
}

func NewPostService(repo repository.PostRepository) PostService {
	return &postService{repo: repo}
}

func (s *postService) Create(ctx context.Context, ownerUID string, in model.PostInput) (*model.Post, error) {
	post, err := model.NewPost(ownerUID, in)
	if err != nil {
		return nil, invalid(err)
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, storageErr("create post", err)
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("post", "find post", err)
	}
	return post, nil
}

func (s *postService) ListOpen(ctx context.Context, category string, limit, offset int) ([]model.Post, int64, error) {
	if limit <= 0 {
		limit = defaultPostLimit
	}
	if limit > maxPostLimit {
		limit = maxPostLimit
	}
	if offset < 0 {
		offset = 0
	}
	posts, total, err := s.repo.ListOpen(ctx, category, limit, offset)
	if err != nil {
		return nil, 0, storageErr("list posts", err)
	}
	return posts, total, nil
}

func (s *postService) ListMine(ctx context.Context, ownerUID string) ([]model.Post, error) {
	posts, err := s.repo.ListByOwner(ctx, ownerUID)
	if err != nil {
		return nil, storageErr("list own posts", err)
	}
	return posts, nil
}

func (s *postService) owned(ctx context.Context, id, uid string) (*model.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.OwnerUID != uid {
		return nil, ErrForbidden
	}
	if post.Status != model.PostStatusOpen {
		return nil, fmt.Errorf("%w: post is closed", ErrConflict)
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, id, uid string, in model.PostInput) (*model.Post, error) {
	post, err := s.owned(ctx, id, uid)
	if err != nil {
		return nil, err
	}
	if err := post.Apply(in); err != nil {
		return nil, invalid(err)
	}
	if err := s.repo.UpdateIfOpen(ctx, post); err != nil {
		if errors.Is(err, repository.ErrPostNotOpen) {
			return nil, fmt.Errorf("%w: post is closed", ErrConflict)
		}
		return nil, storageErr("update post", err)
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, id, uid string) error {
	if _, err := s.owned(ctx, id, uid); err != nil {
		return err
	}
	err := s.repo.DeleteIfOpen(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrPostNotOpen):
		return fmt.Errorf("%w: post is closed", ErrConflict)
	case errors.Is(err, repository.ErrPostHasThreads):
		return fmt.Errorf("%w: post has conversations", ErrConflict)
	default:
		return storageErr("delete post", err)
	}
}
