package apiimpl

import (
	"context"
	"fmt"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
)

func (a *ApiImpl) GetCurrentUser(ctx context.Context, s *domain.Session) (*domain.User, error) {
	var out domain.User
	if err := a.getJSON(ctx, s, "/users/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) UpdateProfile(ctx context.Context, s *domain.Session, input domain.UpdateProfileInput) (*domain.User, error) {
	var out domain.User
	if err := a.putJSON(ctx, s, "/users/profile", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) GetUser(ctx context.Context, s *domain.Session, userID int64) (*domain.User, error) {
	var out domain.User
	if err := a.getJSON(ctx, s, fmt.Sprintf("/users/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) FollowUser(ctx context.Context, s *domain.Session, userID int64) error {
	return a.postJSON(ctx, s, fmt.Sprintf("/follow/%d", userID), nil, nil)
}

func (a *ApiImpl) UnfollowUser(ctx context.Context, s *domain.Session, userID int64) error {
	return a.postJSON(ctx, s, fmt.Sprintf("/unfollow/%d", userID), nil, nil)
}

type userPage struct {
	Users       []domain.User `json:"users"`
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
}

func (p *userPage) toPage() (*domain.Page[domain.User], error) {
	for i := range p.Users {
		if err := p.Users[i].Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid user in listing")
		}
	}
	return &domain.Page[domain.User]{
		Data:        p.Users,
		Total:       p.Total,
		Pages:       p.Pages,
		CurrentPage: p.CurrentPage,
	}, nil
}

func (a *ApiImpl) GetFollowers(ctx context.Context, s *domain.Session, userID int64, p api.PageParams) (*domain.Page[domain.User], error) {
	var out userPage
	if err := a.getJSON(ctx, s, fmt.Sprintf("/followers/%d", userID), pageQuery(p), &out); err != nil {
		return nil, err
	}
	return out.toPage()
}

func (a *ApiImpl) GetFollowing(ctx context.Context, s *domain.Session, userID int64, p api.PageParams) (*domain.Page[domain.User], error) {
	var out userPage
	if err := a.getJSON(ctx, s, fmt.Sprintf("/following/%d", userID), pageQuery(p), &out); err != nil {
		return nil, err
	}
	return out.toPage()
}
