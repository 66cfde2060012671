package apiimpl

import (
	"context"
	"fmt"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
)

func (a *ApiImpl) GetNotifications(ctx context.Context, s *domain.Session, p api.PageParams) (*domain.Page[domain.Notification], error) {
	var out struct {
		Notifications []domain.Notification `json:"notifications"`
		Total         int                   `json:"total"`
		Pages         int                   `json:"pages"`
		CurrentPage   int                   `json:"current_page"`
	}
	if err := a.getJSON(ctx, s, "/notifications/", pageQuery(p), &out); err != nil {
		return nil, err
	}
	for i := range out.Notifications {
		if err := out.Notifications[i].Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid notification in listing")
		}
	}
	return &domain.Page[domain.Notification]{
		Data:        out.Notifications,
		Total:       out.Total,
		Pages:       out.Pages,
		CurrentPage: out.CurrentPage,
	}, nil
}

func (a *ApiImpl) GetUnreadCount(ctx context.Context, s *domain.Session) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := a.getJSON(ctx, s, "/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

func (a *ApiImpl) MarkNotificationRead(ctx context.Context, s *domain.Session, notificationID int64) error {
	return a.postJSON(ctx, s, fmt.Sprintf("/notifications/mark-read/%d", notificationID), nil, nil)
}

func (a *ApiImpl) MarkAllNotificationsRead(ctx context.Context, s *domain.Session) error {
	return a.postJSON(ctx, s, "/notifications/mark-all-read", nil, nil)
}

func (a *ApiImpl) DeleteNotification(ctx context.Context, s *domain.Session, notificationID int64) error {
	return a.deleteJSON(ctx, s, fmt.Sprintf("/notifications/delete/%d", notificationID))
}
