package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

// Manager holds the in-memory per-chat session state. The first access for
// a chat hydrates synchronously from the repository, so a chat that logged
// in before a restart is recognized without a network call. SetUser is the
// single mutator; Clear is the sole definition of "logged out".
type Manager struct {
	repo   Repository
	logger logger.Logger

	mu       sync.RWMutex
	sessions map[int64]*domain.Session
	hydrated map[int64]bool
}

type ManagerOpts struct {
	fx.In

	Repo   Repository
	Logger logger.Logger
}

func NewManager(opts ManagerOpts) *Manager {
	return &Manager{
		repo:     opts.Repo,
		logger:   opts.Logger.WithComponent("SessionManager"),
		sessions: make(map[int64]*domain.Session),
		hydrated: make(map[int64]bool),
	}
}

var _ api.SessionStore = (*Manager)(nil)

// Current returns the chat's live session, or nil when the chat is logged
// out. Hydration from storage happens at most once per chat.
func (m *Manager) Current(ctx context.Context, chatID int64) (*domain.Session, error) {
	m.mu.RLock()
	if m.hydrated[chatID] {
		sess := m.sessions[chatID]
		m.mu.RUnlock()
		return sess, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hydrated[chatID] {
		return m.sessions[chatID], nil
	}

	sess, err := m.repo.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.hydrated[chatID] = true
			return nil, nil
		}
		return nil, err
	}

	m.sessions[chatID] = sess
	m.hydrated[chatID] = true
	m.logger.Debug("Session hydrated from storage", "chat_id", chatID, "user_id", sess.User.ID)
	return sess, nil
}

// SetUser replaces the chat's session after a successful authentication.
// Storing the new token pair implicitly invalidates the previous one.
func (m *Manager) SetUser(ctx context.Context, chatID int64, result *domain.AuthResult) (*domain.Session, error) {
	language := "ru"
	if prev, _ := m.Current(ctx, chatID); prev != nil && prev.Language != "" {
		language = prev.Language
	}

	sess := domain.NewSession(chatID, result.AccessToken, result.RefreshToken, result.User)
	sess.Language = language
	sess.CreatedAt = time.Now()
	sess.UpdatedAt = time.Now()

	if err := m.repo.Save(ctx, sess); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[chatID] = sess
	m.hydrated[chatID] = true
	m.mu.Unlock()

	m.logger.Info("Session established", "chat_id", chatID, "user_id", result.User.ID)
	return sess, nil
}

// UpdateUser refreshes the cached user snapshot after a profile edit. The
// stored session is replaced rather than mutated, so goroutines holding the
// previous pointer keep a consistent snapshot.
func (m *Manager) UpdateUser(ctx context.Context, chatID int64, user *domain.User) error {
	m.mu.Lock()
	prev := m.sessions[chatID]
	if prev == nil {
		m.mu.Unlock()
		return ErrNotFound
	}
	sess := m.replaceLocked(chatID, prev, user, prev.Language)
	m.mu.Unlock()

	return m.repo.Save(ctx, sess)
}

// SetLanguage stores the chat's language preference alongside the session.
func (m *Manager) SetLanguage(ctx context.Context, chatID int64, language string) error {
	m.mu.Lock()
	if prev := m.sessions[chatID]; prev != nil {
		m.replaceLocked(chatID, prev, prev.User, language)
	}
	m.mu.Unlock()

	err := m.repo.SaveLanguage(ctx, chatID, language)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// replaceLocked swaps in a fresh session carrying the previous token pair.
// The caller holds m.mu.
func (m *Manager) replaceLocked(chatID int64, prev *domain.Session, user *domain.User, language string) *domain.Session {
	accessToken, refreshToken := prev.Tokens()
	sess := domain.NewSession(chatID, accessToken, refreshToken, user)
	sess.Language = language
	sess.CreatedAt = prev.CreatedAt
	sess.UpdatedAt = time.Now()
	m.sessions[chatID] = sess
	return sess
}

// SaveTokens persists a token pair refreshed by the API transport.
func (m *Manager) SaveTokens(ctx context.Context, chatID int64, accessToken, refreshToken string) error {
	m.mu.Lock()
	if sess := m.sessions[chatID]; sess != nil {
		sess.SetTokens(accessToken, refreshToken)
	}
	m.mu.Unlock()

	return m.repo.SaveTokens(ctx, chatID, accessToken, refreshToken)
}

// Clear tears the session down in memory and in storage.
func (m *Manager) Clear(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.hydrated[chatID] = true
	m.mu.Unlock()

	m.logger.Info("Session cleared", "chat_id", chatID)
	return m.repo.Delete(ctx, chatID)
}
