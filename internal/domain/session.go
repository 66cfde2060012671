package domain

import (
	"sync"
	"time"
)

// Session is the per-chat equivalent of the web client's local storage:
// the token pair plus a cached user snapshot, persisted across restarts.
// Exactly one session is live per chat; storing a new one replaces the
// previous token pair.
//
// One session pointer is shared by every goroutine handling this chat's
// updates, and the API transport rotates the access token on 401. The token
// pair is therefore guarded: read it with Tokens, write it with SetTokens.
// The remaining fields are fixed at construction.
type Session struct {
	ChatID    int64
	User      *User
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func NewSession(chatID int64, accessToken, refreshToken string, user *User) *Session {
	return &Session{
		ChatID:       chatID,
		User:         user,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// Tokens returns the current token pair.
func (s *Session) Tokens() (accessToken, refreshToken string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

// SetTokens replaces the token pair after a refresh.
func (s *Session) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.mu.Unlock()
}

// Authenticated reports whether the session carries a usable identity.
func (s *Session) Authenticated() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != "" && s.User != nil
}
