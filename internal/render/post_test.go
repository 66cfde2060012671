package render_test

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPost() *domain.Post {
	return &domain.Post{
		ID:      17,
		Content: "Hello from Almaty",
		Author:  domain.User{ID: 7, Username: "aruzhan", FirstName: "Aruzhan"},
	}
}

func TestPostKeyboardOwnershipGating(t *testing.T) {
	post := testPost()

	own := render.PostKeyboard(post, 7)
	require.Len(t, own.InlineKeyboard, 2, "owner gets the edit/delete row")
	assert.Equal(t, "post:edit:17", *own.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "post:delete:17", *own.InlineKeyboard[1][1].CallbackData)

	other := render.PostKeyboard(post, 99)
	assert.Len(t, other.InlineKeyboard, 1, "non-owner only gets like/comments")
}

func TestPostKeyboardLikeToggle(t *testing.T) {
	post := testPost()

	kb := render.PostKeyboard(post, 99)
	assert.Equal(t, "post:like:17", *kb.InlineKeyboard[0][0].CallbackData)

	post.Liked = true
	kb = render.PostKeyboard(post, 99)
	assert.Equal(t, "post:unlike:17", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestCommentKeyboardOnlyOwnComments(t *testing.T) {
	comments := []domain.Comment{
		{ID: 1, Content: "mine", AuthorID: 7},
		{ID: 2, Content: "theirs", AuthorID: 9},
	}

	kb := render.CommentKeyboard(comments, 7)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "comment:edit:1", *kb.InlineKeyboard[0][0].CallbackData)

	assert.Nil(t, render.CommentKeyboard(comments, 42), "no controls when nothing is owned")
}

func TestCommentKeyboardTruncatesLabelOnRunes(t *testing.T) {
	comments := []domain.Comment{
		{ID: 1, Content: "Сегодня гуляли по Кок-Тобе, отличный вид на город", AuthorID: 7},
	}

	kb := render.CommentKeyboard(comments, 7)
	require.NotNil(t, kb)

	label := kb.InlineKeyboard[0][0].Text
	assert.True(t, utf8.ValidString(label), "label must not split a rune")
	assert.Equal(t, "✏️ "+string([]rune("Сегодня гуляли по Кок-Тобе")[:20])+"…", label)
}

func TestProfileKeyboardFollowToggle(t *testing.T) {
	user := &domain.User{ID: 9, Username: "serik"}

	kb := render.ProfileKeyboard(user, 7)
	assert.Equal(t, "user:follow:9", *kb.InlineKeyboard[0][0].CallbackData)

	user.IsFollowing = true
	kb = render.ProfileKeyboard(user, 7)
	assert.Equal(t, "user:unfollow:9", *kb.InlineKeyboard[0][0].CallbackData)

	self := render.ProfileKeyboard(user, 9)
	assert.Equal(t, "profile:edit", *self.InlineKeyboard[0][0].CallbackData)
}

func TestPaginationRowBounds(t *testing.T) {
	assert.Empty(t, render.PaginationRow("feed", 1, 1))

	first := render.PaginationRow("feed", 1, 3)
	require.Len(t, first, 1)
	assert.Equal(t, "feed:page:2", *first[0].CallbackData)

	middle := render.PaginationRow("feed", 2, 3)
	require.Len(t, middle, 2)
	assert.Equal(t, "feed:page:1", *middle[0].CallbackData)
	assert.Equal(t, "feed:page:3", *middle[1].CallbackData)

	last := render.PaginationRow("feed", 3, 3)
	require.Len(t, last, 1)
	assert.Equal(t, "feed:page:2", *last[0].CallbackData)
}

func TestPostEscapesMarkdown(t *testing.T) {
	post := testPost()
	post.Content = "1+1=2 (really!)"

	text := render.Post(post, time.Now())
	assert.Contains(t, text, `1\+1\=2 \(really\!\)`)
}

func TestMediaGroupSkipsMissingURLs(t *testing.T) {
	media := []domain.Media{
		{ID: 1, URL: "https://cdn.example.com/a.jpg", MimeType: "image/jpeg"},
		{ID: 2, MimeType: "image/png"},
	}
	assert.Len(t, render.MediaGroup(media), 1)
}
