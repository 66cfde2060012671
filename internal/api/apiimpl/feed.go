package apiimpl

import (
	"context"
	"fmt"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
)

type postPage struct {
	Posts       []domain.Post `json:"posts"`
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
}

func (p *postPage) toPage() (*domain.Page[domain.Post], error) {
	for i := range p.Posts {
		if err := p.Posts[i].Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid post in listing")
		}
	}
	return &domain.Page[domain.Post]{
		Data:        p.Posts,
		Total:       p.Total,
		Pages:       p.Pages,
		CurrentPage: p.CurrentPage,
	}, nil
}

func (a *ApiImpl) GetFeed(ctx context.Context, s *domain.Session, p api.PageParams) (*domain.Page[domain.Post], error) {
	var out postPage
	if err := a.getJSON(ctx, s, "/feed", pageQuery(p), &out); err != nil {
		return nil, err
	}
	return out.toPage()
}

func (a *ApiImpl) GetExploreFeed(ctx context.Context, s *domain.Session, p api.PageParams) (*domain.Page[domain.Post], error) {
	var out postPage
	if err := a.getJSON(ctx, s, "/feed/explore", pageQuery(p), &out); err != nil {
		return nil, err
	}
	return out.toPage()
}

func (a *ApiImpl) GetUserFeed(ctx context.Context, s *domain.Session, userID int64, p api.PageParams) (*domain.Page[domain.Post], error) {
	var out postPage
	if err := a.getJSON(ctx, s, fmt.Sprintf("/feed/user/%d", userID), pageQuery(p), &out); err != nil {
		return nil, err
	}
	return out.toPage()
}

func (a *ApiImpl) SearchPosts(ctx context.Context, s *domain.Session, query string, p api.PageParams) (*domain.Page[domain.Post], error) {
	q := pageQuery(p)
	q.Set("q", query)

	var out postPage
	if err := a.getJSON(ctx, s, "/feed/search", q, &out); err != nil {
		return nil, err
	}
	return out.toPage()
}
