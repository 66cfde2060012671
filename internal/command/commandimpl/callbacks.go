package commandimpl

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
)

// handleCallback routes inline keyboard presses. Callback data is a colon
// tuple: "post:like:17", "feed:page:2", "notif:readall".
func (c *CommandImpl) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	parts := strings.Split(cb.Data, ":")

	ack := func(text string) { _ = c.Telegram.AnswerCallback(cb.ID, text) }

	switch parts[0] {
	case "cancel":
		ack("Cancelled")
		c.clearPending(chatID)

	case "auth":
		c.handleAuthCallback(ctx, chatID, cb, parts)

	case "post":
		if len(parts) < 3 {
			ack("")
			return
		}
		postID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			ack("")
			return
		}
		switch parts[1] {
		case "like":
			ack("Liked")
			c.handleLike(ctx, chatID, postID, true)
		case "unlike":
			ack("Unliked")
			c.handleLike(ctx, chatID, postID, false)
		case "comments":
			ack("")
			c.handleComments(ctx, chatID, postID)
		case "edit":
			ack("")
			c.handlePostEdit(ctx, chatID, postID)
		case "delete":
			ack("")
			c.handlePostDelete(ctx, chatID, postID)
		case "confirm":
			ack("Deleting")
			c.handlePostDeleteConfirmed(ctx, chatID, postID)
		case "media":
			ack("")
			c.handlePostMedia(ctx, chatID, postID)
		case "private":
			ack("Made private")
			c.handlePostPrivacy(ctx, chatID, postID, domain.PrivacyPrivate)
		}

	case "comment":
		if len(parts) < 3 {
			ack("")
			return
		}
		commentID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			ack("")
			return
		}
		switch parts[1] {
		case "edit":
			ack("")
			c.setPending(chatID, &pending{kind: pendingCommentEdit, targetID: commentID})
			c.Telegram.SendMessage(chatID, "Send the new comment text.")
		case "delete":
			ack("")
			c.handleCommentDelete(ctx, chatID, commentID)
		case "confirm":
			ack("Deleting")
			c.handleCommentDeleteConfirmed(ctx, chatID, commentID)
		}

	case "media":
		if len(parts) < 3 {
			ack("")
			return
		}
		mediaID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			ack("")
			return
		}
		switch parts[1] {
		case "delete":
			ack("")
			c.Telegram.SendMessage(chatID, "Delete this attachment?")
			kb := confirmMediaKeyboard(mediaID)
			c.Telegram.SendMarkdown(chatID, escText("This cannot be undone."), &kb)
		case "confirm":
			ack("Deleting")
			c.handleMediaDeleteConfirmed(ctx, chatID, mediaID)
		}

	case "user":
		if len(parts) < 3 {
			ack("")
			return
		}
		userID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			ack("")
			return
		}
		switch parts[1] {
		case "follow":
			ack("Following")
			c.handleFollow(ctx, chatID, userID, true)
		case "unfollow":
			ack("Unfollowed")
			c.handleFollow(ctx, chatID, userID, false)
		case "posts":
			ack("")
			c.handleUserPosts(ctx, chatID, userID, 1)
		case "followers":
			ack("")
			c.handleFollowers(ctx, chatID, userID, 1, 0, true)
		case "following":
			ack("")
			c.handleFollowers(ctx, chatID, userID, 1, 0, false)
		}

	case "profile":
		if len(parts) > 1 && parts[1] == "edit" {
			ack("")
			c.setPending(chatID, &pending{kind: pendingProfileBio})
			c.Telegram.SendMessage(chatID, "Send your new bio, or \"name: First Last\" to change your name.")
		}

	case "feed":
		ack("")
		if page, ok := parsePage(parts, 1); ok {
			c.handleFeed(ctx, chatID, page)
		}

	case "explore":
		ack("")
		if page, ok := parsePage(parts, 1); ok {
			c.handleExplore(ctx, chatID, page)
		}

	case "search":
		ack("")
		if page, ok := parsePage(parts, 1); ok {
			c.handleSearchPage(ctx, chatID, page)
		}

	case "uposts":
		ack("")
		if len(parts) == 4 && parts[2] == "page" {
			userID, err1 := strconv.ParseInt(parts[1], 10, 64)
			page, err2 := strconv.Atoi(parts[3])
			if err1 == nil && err2 == nil {
				c.handleUserPosts(ctx, chatID, userID, page)
			}
		}

	case "followers", "following":
		ack("")
		if len(parts) == 4 && parts[2] == "page" {
			userID, err1 := strconv.ParseInt(parts[1], 10, 64)
			page, err2 := strconv.Atoi(parts[3])
			if err1 == nil && err2 == nil {
				c.handleFollowers(ctx, chatID, userID, page, cb.Message.MessageID, parts[0] == "followers")
			}
		}

	case "notif":
		c.handleNotificationCallback(ctx, chatID, cb, parts)

	default:
		ack("")
	}
}

// parsePage extracts N from ["prefix", "page", "N"] shaped callback data.
func parsePage(parts []string, fallback int) (int, bool) {
	if len(parts) == 3 && parts[1] == "page" {
		if page, err := strconv.Atoi(parts[2]); err == nil && page > 0 {
			return page, true
		}
		return 0, false
	}
	return fallback, true
}
