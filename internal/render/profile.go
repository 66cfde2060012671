package render

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/formatter"
)

// Profile renders a user card.
func Profile(u *domain.User) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s*", esc(u.DisplayName())))
	if u.Username != "" {
		sb.WriteString(fmt.Sprintf(" \\(@%s\\)", esc(u.Username)))
	}
	if u.IsVerified {
		sb.WriteString(" ✅")
	}
	sb.WriteString("\n\n")

	if u.Bio != "" {
		sb.WriteString(esc(u.Bio))
		sb.WriteString("\n\n")
	}

	sb.WriteString(esc(fmt.Sprintf("Posts: %s · Followers: %s · Following: %s",
		formatter.FormatNumber(u.PostsCount),
		formatter.FormatNumber(u.FollowersCount),
		formatter.FormatNumber(u.FollowingCount))))

	return sb.String()
}

// ProfileKeyboard builds the controls under a user card. The viewer's own
// profile gets the edit control; anyone else gets follow/unfollow driven by
// the relationship flag.
func ProfileKeyboard(u *domain.User, viewerID int64) tgbotapi.InlineKeyboardMarkup {
	if u.ID == viewerID {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Edit profile", "profile:edit"),
				tgbotapi.NewInlineKeyboardButtonData("📝 My posts", fmt.Sprintf("user:posts:%d", u.ID)),
			),
		)
	}

	followBtn := tgbotapi.NewInlineKeyboardButtonData("➕ Follow", fmt.Sprintf("user:follow:%d", u.ID))
	if u.IsFollowing {
		followBtn = tgbotapi.NewInlineKeyboardButtonData("➖ Unfollow", fmt.Sprintf("user:unfollow:%d", u.ID))
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			followBtn,
			tgbotapi.NewInlineKeyboardButtonData("📝 Posts", fmt.Sprintf("user:posts:%d", u.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Followers", fmt.Sprintf("user:followers:%d", u.ID)),
			tgbotapi.NewInlineKeyboardButtonData("👤 Following", fmt.Sprintf("user:following:%d", u.ID)),
		),
	)
}

// UserList renders a followers/following page.
func UserList(title string, page *domain.Page[domain.User]) string {
	if len(page.Data) == 0 {
		return fmt.Sprintf("*%s*\n\n%s", esc(title), esc("Nobody here yet."))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s* — %s\n\n", esc(title),
		esc(fmt.Sprintf("%s total", formatter.FormatNumber(page.Total)))))
	for i, u := range page.Data {
		sb.WriteString(esc(fmt.Sprintf("%d. %s", i+1, u.DisplayName())))
		if u.Username != "" {
			sb.WriteString(fmt.Sprintf(" \\(@%s\\)", esc(u.Username)))
		}
		sb.WriteString(fmt.Sprintf(" — /user\\_%d\n", u.ID))
	}
	return strings.TrimRight(sb.String(), "\n")
}
