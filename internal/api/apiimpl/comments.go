package apiimpl

import (
	"context"
	"fmt"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
)

type contentBody struct {
	Content string `json:"content"`
}

func (a *ApiImpl) GetComments(ctx context.Context, s *domain.Session, postID int64) ([]domain.Comment, error) {
	var out struct {
		Comments []domain.Comment `json:"comments"`
	}
	if err := a.getJSON(ctx, s, fmt.Sprintf("/post/%d/comments", postID), nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Comments {
		if err := out.Comments[i].Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid comment in listing")
		}
	}
	return out.Comments, nil
}

func (a *ApiImpl) CreateComment(ctx context.Context, s *domain.Session, postID int64, content string) (*domain.Comment, error) {
	var out domain.Comment
	if err := a.postJSON(ctx, s, fmt.Sprintf("/post/%d/comments", postID), contentBody{Content: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) UpdateComment(ctx context.Context, s *domain.Session, commentID int64, content string) (*domain.Comment, error) {
	var out domain.Comment
	if err := a.putJSON(ctx, s, fmt.Sprintf("/comments/%d", commentID), contentBody{Content: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) DeleteComment(ctx context.Context, s *domain.Session, commentID int64) error {
	return a.deleteJSON(ctx, s, fmt.Sprintf("/comments/%d", commentID))
}
