package render

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/formatter"
)

func notificationIcon(t domain.NotificationType) string {
	switch t {
	case domain.NotificationLike:
		return "❤️"
	case domain.NotificationComment:
		return "💬"
	case domain.NotificationFollow:
		return "➕"
	case domain.NotificationFriendRequest:
		return "🤝"
	default:
		return "🔔"
	}
}

// Notifications renders a notifications page with the unread badge.
func Notifications(page *domain.Page[domain.Notification], unread int, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*",
		esc(fmt.Sprintf("Notifications (%s unread)", formatter.FormatNumber(unread)))))
	sb.WriteString("\n\n")

	if len(page.Data) == 0 {
		sb.WriteString(esc("All caught up."))
		return sb.String()
	}

	for _, n := range page.Data {
		marker := "  "
		if !n.IsRead {
			marker = "🔵 "
		}
		sb.WriteString(fmt.Sprintf("%s%s %s\n%s\n\n",
			marker,
			notificationIcon(n.Type),
			esc(n.Message),
			esc(formatter.FormatTimeAgo(n.CreatedAt, now))))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// NotificationsKeyboard builds per-item mark-read/delete rows plus the
// mark-all control.
func NotificationsKeyboard(page *domain.Page[domain.Notification]) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, n := range page.Data {
		if n.IsRead {
			continue
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✓ Read #%d", n.ID), fmt.Sprintf("notif:read:%d", n.ID)),
			tgbotapi.NewInlineKeyboardButtonData(
				"🗑", fmt.Sprintf("notif:delete:%d", n.ID)),
		})
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("✓✓ Mark all read", "notif:readall"),
	})
	if row := PaginationRow("notif", page.CurrentPage, page.Pages); len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
