package domain

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Bio            string    `json:"bio,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	IsActive       bool      `json:"is_active"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	PostsCount     int       `json:"posts_count"`
	IsFollowing    bool      `json:"is_following,omitempty"`
}

// Validate rejects user records the rest of the client cannot work with.
// Divergent server payloads fail here, at the boundary, not deep in a
// rendering path.
func (u *User) Validate() error {
	if u.ID <= 0 {
		return fmt.Errorf("user: missing or invalid id")
	}
	if u.Username == "" && u.Email == "" && u.PhoneNumber == "" {
		return fmt.Errorf("user %d: no identity fields", u.ID)
	}
	return nil
}

// DisplayName returns the best human-readable name available.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return u.PhoneNumber
}

// UpdateProfileInput is the subset of profile fields the client has forms for.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
