package apiimpl

import (
	"context"
	"fmt"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
)

func (a *ApiImpl) CreatePost(ctx context.Context, s *domain.Session, input domain.CreatePostInput) (*domain.Post, error) {
	var out domain.Post
	if err := a.postJSON(ctx, s, "/posts", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) GetPost(ctx context.Context, s *domain.Session, postID int64) (*domain.Post, error) {
	var out domain.Post
	if err := a.getJSON(ctx, s, fmt.Sprintf("/posts/%d", postID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) UpdatePost(ctx context.Context, s *domain.Session, postID int64, input domain.UpdatePostInput) (*domain.Post, error) {
	var out domain.Post
	if err := a.putJSON(ctx, s, fmt.Sprintf("/posts/%d", postID), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) DeletePost(ctx context.Context, s *domain.Session, postID int64) error {
	return a.deleteJSON(ctx, s, fmt.Sprintf("/posts/%d", postID))
}

func (a *ApiImpl) LikePost(ctx context.Context, s *domain.Session, postID int64) error {
	return a.postJSON(ctx, s, fmt.Sprintf("/posts/%d/like", postID), nil, nil)
}

func (a *ApiImpl) UnlikePost(ctx context.Context, s *domain.Session, postID int64) error {
	return a.postJSON(ctx, s, fmt.Sprintf("/posts/%d/unlike", postID), nil, nil)
}
