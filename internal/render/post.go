// Package render formats domain records into Telegram MarkdownV2 messages
// and builds the inline keyboards that carry per-item actions. Controls that
// mutate an item (edit, delete) are only rendered for its owner; the like
// control is driven by the per-viewer Liked flag.
package render

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/formatter"
	"github.com/samber/lo"
)

func esc(s string) string { return formatter.EscapeMarkdownV2(s) }

// Post renders a single post card.
func Post(p *domain.Post, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s*", esc(p.Author.DisplayName())))
	if p.Author.Username != "" {
		sb.WriteString(fmt.Sprintf(" \\(@%s\\)", esc(p.Author.Username)))
	}
	sb.WriteString("\n")
	sb.WriteString(esc(formatter.FormatTimeAgo(p.CreatedAt, now)))
	if p.IsEdited {
		sb.WriteString(esc(" · edited"))
	}
	if p.Privacy == domain.PrivacyPrivate {
		sb.WriteString(esc(" · private"))
	}
	sb.WriteString("\n\n")

	if p.Content != "" {
		sb.WriteString(esc(p.Content))
		sb.WriteString("\n\n")
	}

	if len(p.Media) > 0 {
		sb.WriteString(esc(fmt.Sprintf("📎 %d attachment(s)", len(p.Media))))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("❤️ %s   💬 %s",
		esc(formatter.FormatNumber(p.LikesCount)),
		esc(formatter.FormatNumber(p.CommentsCount))))

	return sb.String()
}

// PostKeyboard builds the action row(s) for a post. Edit/delete appear only
// when the viewer owns the post.
func PostKeyboard(p *domain.Post, viewerID int64) tgbotapi.InlineKeyboardMarkup {
	likeBtn := tgbotapi.NewInlineKeyboardButtonData("❤️ Like", fmt.Sprintf("post:like:%d", p.ID))
	if p.Liked {
		likeBtn = tgbotapi.NewInlineKeyboardButtonData("💔 Unlike", fmt.Sprintf("post:unlike:%d", p.ID))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			likeBtn,
			tgbotapi.NewInlineKeyboardButtonData("💬 Comments", fmt.Sprintf("post:comments:%d", p.ID)),
		},
	}

	if p.OwnedBy(viewerID) {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", fmt.Sprintf("post:edit:%d", p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("post:delete:%d", p.ID)),
		})
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// MediaGroup converts a post's media list into a Telegram album.
func MediaGroup(media []domain.Media) []interface{} {
	withURL := lo.Filter(media, func(m domain.Media, _ int) bool { return m.URL != "" })
	return lo.Map(withURL, func(m domain.Media, i int) interface{} {
		if strings.HasPrefix(m.MimeType, "video/") {
			return tgbotapi.NewInputMediaVideo(tgbotapi.FileURL(m.URL))
		}
		return tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(m.URL))
	})
}

// FeedHeader renders the title line for a feed page.
func FeedHeader(title string, page *domain.Page[domain.Post]) string {
	if page.Total == 0 {
		return fmt.Sprintf("*%s*\n\n%s", esc(title), esc("Nothing here yet."))
	}
	return fmt.Sprintf("*%s* — %s",
		esc(title),
		esc(fmt.Sprintf("page %d of %d, %s posts", page.CurrentPage, max(page.Pages, 1), formatter.FormatNumber(page.Total))))
}

// PaginationRow builds prev/next buttons for a paginated listing. The
// callback data is "<prefix>:page:<n>".
func PaginationRow(prefix string, currentPage, pages int) []tgbotapi.InlineKeyboardButton {
	var row []tgbotapi.InlineKeyboardButton
	if currentPage > 1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("%s:page:%d", prefix, currentPage-1)))
	}
	if currentPage < pages {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s:page:%d", prefix, currentPage+1)))
	}
	return row
}

// Comments renders a post's comment thread.
func Comments(comments []domain.Comment, now time.Time) string {
	if len(comments) == 0 {
		return esc("No comments yet. Reply to this message to add one.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*\n\n", esc(fmt.Sprintf("Comments (%d)", len(comments)))))
	for _, c := range comments {
		sb.WriteString(fmt.Sprintf("*%s* %s\n%s\n\n",
			esc(c.Author.DisplayName()),
			esc(formatter.FormatTimeAgo(c.CreatedAt, now)),
			esc(c.Content)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// CommentKeyboard builds per-comment controls for comments the viewer owns.
func CommentKeyboard(comments []domain.Comment, viewerID int64) *tgbotapi.InlineKeyboardMarkup {
	own := lo.Filter(comments, func(c domain.Comment, _ int) bool { return c.OwnedBy(viewerID) })
	if len(own) == 0 {
		return nil
	}

	rows := lo.Map(own, func(c domain.Comment, _ int) []tgbotapi.InlineKeyboardButton {
		// Truncate on runes: byte slicing can split multibyte text.
		label := c.Content
		if r := []rune(label); len(r) > 20 {
			label = string(r[:20]) + "…"
		}
		return []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✏️ "+label, fmt.Sprintf("comment:edit:%d", c.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("comment:delete:%d", c.ID)),
		}
	})

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// ConfirmKeyboard asks for explicit confirmation before a destructive
// mutation is issued.
func ConfirmKeyboard(action string, id int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, delete", fmt.Sprintf("%s:confirm:%d", action, id)),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "cancel"),
		),
	)
}
