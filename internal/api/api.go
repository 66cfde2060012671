package api

import (
	"context"
	"errors"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
)

// ErrSessionExpired is returned when the access token was rejected and the
// refresh token could not obtain a new one. The persisted session has been
// cleared by the time a caller sees it; the only recovery is a fresh login.
var ErrSessionExpired = errors.New("session expired, login required")

// SessionStore is the slice of session persistence the transport needs: the
// 401 interceptor stores refreshed access tokens and tears the session down
// when the refresh token itself is rejected. No other component writes
// tokens.
type SessionStore interface {
	SaveTokens(ctx context.Context, chatID int64, accessToken, refreshToken string) error
	Clear(ctx context.Context, chatID int64) error
}

// PageParams selects a page of a list read. Zero values mean server defaults.
type PageParams struct {
	Page    int
	PerPage int
}

//go:generate go run go.uber.org/mock/mockgen -source=api.go -destination=mocks/mock.go -package=mocks
type Client interface {
	// Unified authentication. These run before any session exists.
	RequestCode(ctx context.Context, identifier string) (*domain.CodeRequest, error)
	VerifyCode(ctx context.Context, identifier, code string) (*domain.AuthResult, error)
	ResendCode(ctx context.Context, identifier string) error
	ForceSendCode(ctx context.Context, identifier string) error
	GoogleLoginURL(ctx context.Context) (string, error)

	// Users and follows.
	GetCurrentUser(ctx context.Context, s *domain.Session) (*domain.User, error)
	UpdateProfile(ctx context.Context, s *domain.Session, input domain.UpdateProfileInput) (*domain.User, error)
	GetUser(ctx context.Context, s *domain.Session, userID int64) (*domain.User, error)
	FollowUser(ctx context.Context, s *domain.Session, userID int64) error
	UnfollowUser(ctx context.Context, s *domain.Session, userID int64) error
	GetFollowers(ctx context.Context, s *domain.Session, userID int64, p PageParams) (*domain.Page[domain.User], error)
	GetFollowing(ctx context.Context, s *domain.Session, userID int64, p PageParams) (*domain.Page[domain.User], error)

	// Posts.
	CreatePost(ctx context.Context, s *domain.Session, input domain.CreatePostInput) (*domain.Post, error)
	GetPost(ctx context.Context, s *domain.Session, postID int64) (*domain.Post, error)
	UpdatePost(ctx context.Context, s *domain.Session, postID int64, input domain.UpdatePostInput) (*domain.Post, error)
	DeletePost(ctx context.Context, s *domain.Session, postID int64) error
	LikePost(ctx context.Context, s *domain.Session, postID int64) error
	UnlikePost(ctx context.Context, s *domain.Session, postID int64) error

	// Comments.
	GetComments(ctx context.Context, s *domain.Session, postID int64) ([]domain.Comment, error)
	CreateComment(ctx context.Context, s *domain.Session, postID int64, content string) (*domain.Comment, error)
	UpdateComment(ctx context.Context, s *domain.Session, commentID int64, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, s *domain.Session, commentID int64) error

	// Media.
	UploadMedia(ctx context.Context, s *domain.Session, postID int64, uploads []domain.Upload) ([]domain.Media, error)
	DeleteMedia(ctx context.Context, s *domain.Session, mediaID int64) error
	GetMediaURL(ctx context.Context, s *domain.Session, mediaID int64) (string, error)

	// Feeds.
	GetFeed(ctx context.Context, s *domain.Session, p PageParams) (*domain.Page[domain.Post], error)
	GetExploreFeed(ctx context.Context, s *domain.Session, p PageParams) (*domain.Page[domain.Post], error)
	GetUserFeed(ctx context.Context, s *domain.Session, userID int64, p PageParams) (*domain.Page[domain.Post], error)
	SearchPosts(ctx context.Context, s *domain.Session, query string, p PageParams) (*domain.Page[domain.Post], error)

	// Notifications.
	GetNotifications(ctx context.Context, s *domain.Session, p PageParams) (*domain.Page[domain.Notification], error)
	GetUnreadCount(ctx context.Context, s *domain.Session) (int, error)
	MarkNotificationRead(ctx context.Context, s *domain.Session, notificationID int64) error
	MarkAllNotificationsRead(ctx context.Context, s *domain.Session) error
	DeleteNotification(ctx context.Context, s *domain.Session, notificationID int64) error
}
