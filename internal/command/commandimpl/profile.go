package commandimpl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/cache"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/render"
)

const listPageSize = 10

func (c *CommandImpl) handleOwnProfile(ctx context.Context, chatID int64) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	// Always refetch own profile: counters change behind our back and the
	// session snapshot may be stale.
	user, err := c.Api.GetCurrentUser(ctx, sess)
	if err != nil {
		c.reportError(chatID, "load your profile", err)
		return
	}

	if err := c.Sessions.UpdateUser(ctx, chatID, user); err != nil {
		c.Logger.Warn("Failed to persist profile snapshot", "chat_id", chatID, "error", err)
	}

	kb := render.ProfileKeyboard(user, user.ID)
	c.Telegram.SendMarkdown(chatID, render.Profile(user), &kb)
}

func (c *CommandImpl) handleUserArg(ctx context.Context, chatID int64, args string) {
	userID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || userID <= 0 {
		c.Telegram.SendMessage(chatID, "Usage: /user <id>")
		return
	}
	c.handleUserProfile(ctx, chatID, userID)
}

func (c *CommandImpl) handleUserProfile(ctx context.Context, chatID, userID int64) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	if userID == sess.User.ID {
		c.handleOwnProfile(ctx, chatID)
		return
	}

	key := cache.NewKey("user", chatID, userID)
	user, err := cache.Fetch(ctx, c.Cache, key, func(ctx context.Context) (*domain.User, error) {
		return c.Api.GetUser(ctx, sess, userID)
	})
	if err != nil {
		c.reportError(chatID, "load the profile", err)
		return
	}

	kb := render.ProfileKeyboard(user, sess.User.ID)
	c.Telegram.SendMarkdown(chatID, render.Profile(user), &kb)
}

func (c *CommandImpl) handleFollow(ctx context.Context, chatID, userID int64, follow bool) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	var err error
	if follow {
		err = c.Api.FollowUser(ctx, sess, userID)
	} else {
		err = c.Api.UnfollowUser(ctx, sess, userID)
	}
	if err != nil {
		c.reportError(chatID, "update the follow", err)
		return
	}

	// The relationship changed: the cached card, both follow listings and
	// the home feed are all stale now.
	c.Cache.Invalidate(cache.NewKey("user", chatID, userID))
	c.Cache.InvalidatePrefix("followers", chatID)
	c.Cache.InvalidatePrefix("following", chatID)
	c.Cache.InvalidatePrefix("feed", chatID)

	c.handleUserProfile(ctx, chatID, userID)
}

// handleFollowers serves both the followers and the following listings,
// selected by the followers flag. Page flips arrive with the message id of
// the listing they came from and re-render it in place.
func (c *CommandImpl) handleFollowers(ctx context.Context, chatID, userID int64, page, messageID int, followers bool) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	kind := "following"
	title := "Following"
	if followers {
		kind = "followers"
		title = "Followers"
	}

	key := cache.NewKey(kind, chatID, userID, page)
	result, err := cache.Fetch(ctx, c.Cache, key, func(ctx context.Context) (*domain.Page[domain.User], error) {
		p := api.PageParams{Page: page, PerPage: listPageSize}
		if followers {
			return c.Api.GetFollowers(ctx, sess, userID, p)
		}
		return c.Api.GetFollowing(ctx, sess, userID, p)
	})
	if err != nil {
		c.reportError(chatID, "load the list", err)
		return
	}

	var kb *tgbotapi.InlineKeyboardMarkup
	prefix := fmt.Sprintf("%s:%d", kind, userID)
	if row := render.PaginationRow(prefix, result.CurrentPage, result.Pages); len(row) > 0 {
		markup := newKeyboard(row)
		kb = &markup
	}
	c.respondMarkdown(chatID, messageID, render.UserList(title, result), kb)
}

// handleProfileBio applies a profile edit. Plain text replaces the bio;
// a "name: First Last" prefix updates the name fields instead.
func (c *CommandImpl) handleProfileBio(ctx context.Context, chatID int64, text string) {
	c.clearPending(chatID)

	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	input := domain.UpdateProfileInput{Bio: &text}
	if rest, isName := strings.CutPrefix(strings.TrimSpace(text), "name:"); isName {
		parts := strings.Fields(rest)
		if len(parts) == 0 {
			c.Telegram.SendMessage(chatID, "Send the name as: name: First Last")
			return
		}
		first := parts[0]
		last := strings.Join(parts[1:], " ")
		input = domain.UpdateProfileInput{FirstName: &first, LastName: &last}
	}

	user, err := c.Api.UpdateProfile(ctx, sess, input)
	if err != nil {
		c.reportError(chatID, "update your profile", err)
		return
	}

	if err := c.Sessions.UpdateUser(ctx, chatID, user); err != nil {
		c.Logger.Warn("Failed to persist profile snapshot", "chat_id", chatID, "error", err)
	}

	kb := render.ProfileKeyboard(user, user.ID)
	c.Telegram.SendMarkdown(chatID, render.Profile(user), &kb)
}
