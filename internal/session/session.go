package session

import (
	"context"
	"errors"
	"time"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
)

var ErrNotFound = errors.New("session not found")

// Repository persists one session row per chat. It is the bot's analog of
// the browser's local storage: the token pair, the cached user snapshot and
// the chat's language preference survive restarts.
//
//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=mocks/mock.go -package=mocks
type Repository interface {
	Get(ctx context.Context, chatID int64) (*domain.Session, error)
	Save(ctx context.Context, sess *domain.Session) error
	SaveTokens(ctx context.Context, chatID int64, accessToken, refreshToken string) error
	SaveLanguage(ctx context.Context, chatID int64, language string) error
	Delete(ctx context.Context, chatID int64) error
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
