package commandimpl

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/cache"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/render"
)

const notifPageSize = 10

func (c *CommandImpl) handleNotifications(ctx context.Context, chatID int64, page, messageID int) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	// The list and the unread badge come from separate endpoints; fetch the
	// badge first so the header and the page render together.
	unread, err := c.Api.GetUnreadCount(ctx, sess)
	if err != nil {
		c.reportError(chatID, "load notifications", err)
		return
	}

	key := cache.NewKey("notifications", chatID, page)
	result, err := cache.Fetch(ctx, c.Cache, key, func(ctx context.Context) (*domain.Page[domain.Notification], error) {
		return c.Api.GetNotifications(ctx, sess, api.PageParams{Page: page, PerPage: notifPageSize})
	})
	if err != nil {
		c.reportError(chatID, "load notifications", err)
		return
	}

	kb := render.NotificationsKeyboard(result)
	c.respondMarkdown(chatID, messageID, render.Notifications(result, unread, c.Clock.Now()), &kb)
}

func (c *CommandImpl) handleNotificationCallback(ctx context.Context, chatID int64, cb *tgbotapi.CallbackQuery, parts []string) {
	ack := func(text string) { _ = c.Telegram.AnswerCallback(cb.ID, text) }
	if len(parts) < 2 {
		ack("")
		return
	}

	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		ack("")
		return
	}

	switch parts[1] {
	case "readall":
		if err := c.Api.MarkAllNotificationsRead(ctx, sess); err != nil {
			ack("")
			c.reportError(chatID, "mark notifications read", err)
			return
		}
		ack("All read")
		c.Cache.InvalidatePrefix("notifications", chatID)
		c.handleNotifications(ctx, chatID, 1, cb.Message.MessageID)

	case "read":
		if len(parts) < 3 {
			ack("")
			return
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			ack("")
			return
		}
		if err := c.Api.MarkNotificationRead(ctx, sess, id); err != nil {
			ack("")
			c.reportError(chatID, "mark the notification read", err)
			return
		}
		ack("Read")
		c.Cache.InvalidatePrefix("notifications", chatID)

	case "delete":
		if len(parts) < 3 {
			ack("")
			return
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			ack("")
			return
		}
		if err := c.Api.DeleteNotification(ctx, sess, id); err != nil {
			ack("")
			c.reportError(chatID, "delete the notification", err)
			return
		}
		ack("Deleted")
		c.Cache.InvalidatePrefix("notifications", chatID)

	case "page":
		ack("")
		if page, pok := parsePage(parts, 1); pok {
			c.handleNotifications(ctx, chatID, page, cb.Message.MessageID)
		}

	default:
		ack("")
	}
}
