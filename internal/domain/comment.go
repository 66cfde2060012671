package domain

import (
	"fmt"
	"time"
)

type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("comment: missing or invalid id")
	}
	if c.PostID <= 0 {
		return fmt.Errorf("comment %d: missing post reference", c.ID)
	}
	return nil
}

// OwnedBy reports whether userID authored the comment.
func (c *Comment) OwnedBy(userID int64) bool {
	if c.AuthorID != 0 {
		return c.AuthorID == userID
	}
	return c.Author.ID == userID
}
