package commandimpl

import (
	"context"
	"fmt"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/cache"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/render"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/formatter"
)

const feedPageSize = 5

func escText(s string) string { return formatter.EscapeMarkdownV2(s) }

func (c *CommandImpl) handleFeed(ctx context.Context, chatID int64, page int) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	key := cache.NewKey("feed", chatID, page)
	result, err := cache.Fetch(ctx, c.Cache, key, func(ctx context.Context) (*domain.Page[domain.Post], error) {
		return c.Api.GetFeed(ctx, sess, api.PageParams{Page: page, PerPage: feedPageSize})
	})
	if err != nil {
		c.reportError(chatID, "load your feed", err)
		return
	}

	c.sendFeedPage(chatID, sess.User.ID, "Your feed", "feed", result)
}

func (c *CommandImpl) handleExplore(ctx context.Context, chatID int64, page int) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	key := cache.NewKey("explore", chatID, page)
	result, err := cache.Fetch(ctx, c.Cache, key, func(ctx context.Context) (*domain.Page[domain.Post], error) {
		return c.Api.GetExploreFeed(ctx, sess, api.PageParams{Page: page, PerPage: feedPageSize})
	})
	if err != nil {
		c.reportError(chatID, "load explore", err)
		return
	}

	c.sendFeedPage(chatID, sess.User.ID, "Explore", "explore", result)
}

func (c *CommandImpl) handleSearch(ctx context.Context, chatID int64, query string) {
	if query == "" {
		c.setPending(chatID, &pending{kind: pendingSearchQuery})
		c.Telegram.SendMessage(chatID, "What should I search for?")
		return
	}

	c.mu.Lock()
	c.lastSearch[chatID] = query
	c.mu.Unlock()

	c.searchPage(ctx, chatID, query, 1)
}

// handleSearchPage serves pagination for the chat's most recent query.
func (c *CommandImpl) handleSearchPage(ctx context.Context, chatID int64, page int) {
	c.mu.Lock()
	query := c.lastSearch[chatID]
	c.mu.Unlock()
	if query == "" {
		c.Telegram.SendMessage(chatID, "Start a new search with /search <text>.")
		return
	}
	c.searchPage(ctx, chatID, query, page)
}

func (c *CommandImpl) searchPage(ctx context.Context, chatID int64, query string, page int) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	key := cache.NewKey("search", chatID, query, page)
	result, err := cache.Fetch(ctx, c.Cache, key, func(ctx context.Context) (*domain.Page[domain.Post], error) {
		return c.Api.SearchPosts(ctx, sess, query, api.PageParams{Page: page, PerPage: feedPageSize})
	})
	if err != nil {
		c.reportError(chatID, "search posts", err)
		return
	}

	c.sendFeedPage(chatID, sess.User.ID, fmt.Sprintf("Search: %s", query), "search", result)
}

func (c *CommandImpl) handleUserPosts(ctx context.Context, chatID, userID int64, page int) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	key := cache.NewKey("uposts", chatID, userID, page)
	result, err := cache.Fetch(ctx, c.Cache, key, func(ctx context.Context) (*domain.Page[domain.Post], error) {
		return c.Api.GetUserFeed(ctx, sess, userID, api.PageParams{Page: page, PerPage: feedPageSize})
	})
	if err != nil {
		c.reportError(chatID, "load posts", err)
		return
	}

	c.sendFeedPage(chatID, sess.User.ID, "Posts", fmt.Sprintf("uposts:%d", userID), result)
}

// sendFeedPage renders a page of posts: a header line, then one message per
// post with its action keyboard.
func (c *CommandImpl) sendFeedPage(chatID, viewerID int64, title, pagePrefix string, page *domain.Page[domain.Post]) {
	now := c.Clock.Now()

	c.Telegram.SendMarkdown(chatID, render.FeedHeader(title, page), nil)

	for i := range page.Data {
		post := &page.Data[i]
		kb := render.PostKeyboard(post, viewerID)
		c.Telegram.SendMarkdown(chatID, render.Post(post, now), &kb)

		if group := render.MediaGroup(post.Media); len(group) > 0 {
			if err := c.Telegram.SendMediaGroup(chatID, group); err != nil {
				c.Logger.Warn("Failed to send media group", "chat_id", chatID, "post_id", post.ID, "error", err)
			}
		}
	}

	if row := render.PaginationRow(pagePrefix, page.CurrentPage, page.Pages); len(row) > 0 {
		kb := newKeyboard(row)
		c.Telegram.SendMarkdown(chatID, escText("More:"), &kb)
	}
}
