package commandimpl

import (
	"context"
	"strings"
)

var supportedLanguages = map[string]string{
	"en": "English",
	"ru": "Русский",
	"kk": "Қазақша",
}

const helpText = `Ozimiz bot commands:

/login - sign in with phone, email or Google
/logout - sign out
/feed - posts from people you follow
/explore - discover posts
/search <text> - search posts
/post <id> - open a post
/newpost - create a post
/profile - your profile
/user <id> - someone's profile
/notifications - your notifications
/language <en|ru|kk> - interface language
/cancel - abort the current action`

func (c *CommandImpl) handleHelp(ctx context.Context, chatID int64) {
	c.Telegram.SendMessage(chatID, helpText)

	sess, err := c.Sessions.Current(ctx, chatID)
	if err == nil && !sess.Authenticated() {
		c.Telegram.SendMessage(chatID, "Start with /login to connect your account.")
	}
}

func (c *CommandImpl) handleLanguage(ctx context.Context, chatID int64, args string) {
	lang := strings.ToLower(strings.TrimSpace(args))
	if _, ok := supportedLanguages[lang]; !ok {
		c.Telegram.SendMessage(chatID, "Usage: /language <en|ru|kk>")
		return
	}

	if err := c.Sessions.SetLanguage(ctx, chatID, lang); err != nil {
		c.reportError(chatID, "change the language", err)
		return
	}
	c.Telegram.SendMessage(chatID, "Language set to "+supportedLanguages[lang]+".")
}
