package domain

import (
	"fmt"
	"time"
)

type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
	PrivacyFriends Privacy = "friends"
)

func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate, PrivacyFriends:
		return true
	}
	return false
}

type Post struct {
	ID            int64     `json:"id"`
	Content       string    `json:"content"`
	Privacy       Privacy   `json:"privacy"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Author        User      `json:"author"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	// Liked is the per-viewer flag; the like control is driven by it and
	// never by LikesCount.
	Liked         bool    `json:"liked"`
	Media         []Media `json:"media,omitempty"`
	IsEdited      bool    `json:"is_edited,omitempty"`
	EditCount     int     `json:"edit_count,omitempty"`
	AIDescription string  `json:"ai_description,omitempty"`
	AIHashtags    string  `json:"ai_hashtags,omitempty"`
}

func (p *Post) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("post: missing or invalid id")
	}
	if err := p.Author.Validate(); err != nil {
		return fmt.Errorf("post %d: %w", p.ID, err)
	}
	if p.Privacy != "" && !p.Privacy.Valid() {
		return fmt.Errorf("post %d: unknown privacy %q", p.ID, p.Privacy)
	}
	for i := range p.Media {
		if err := p.Media[i].Validate(); err != nil {
			return fmt.Errorf("post %d: %w", p.ID, err)
		}
	}
	return nil
}

// OwnedBy reports whether userID is the post's author. Edit and delete
// controls are rendered only when this holds.
func (p *Post) OwnedBy(userID int64) bool {
	return p.Author.ID == userID
}

type CreatePostInput struct {
	Content string  `json:"caption"`
	Privacy Privacy `json:"privacy"`
}

type UpdatePostInput struct {
	Content *string  `json:"content,omitempty"`
	Privacy *Privacy `json:"privacy,omitempty"`
}
