package commandimpl

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/auth"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/render"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
)

func (c *CommandImpl) handleLogin(ctx context.Context, chatID int64) {
	sess, err := c.Sessions.Current(ctx, chatID)
	if err == nil && sess.Authenticated() {
		c.Telegram.SendMessage(chatID, "You are already signed in as "+sess.User.DisplayName()+". Use /logout to switch accounts.")
		return
	}

	c.Auth.Begin(chatID)
	text, kb := render.LoginPrompt()
	c.Telegram.SendMarkdown(chatID, text, &kb)
}

func (c *CommandImpl) handleLogout(ctx context.Context, chatID int64) {
	sess, _ := c.Sessions.Current(ctx, chatID)
	if !sess.Authenticated() {
		c.Telegram.SendMessage(chatID, "You are not signed in.")
		return
	}

	if err := c.Sessions.Clear(ctx, chatID); err != nil {
		c.reportError(chatID, "log out", err)
		return
	}
	c.Cache.InvalidatePrefix("feed", chatID)
	c.Cache.InvalidatePrefix("notifications", chatID)
	c.Telegram.SendMessage(chatID, "Signed out. Use /login to sign in again.")
}

// handleAuthInput feeds free-form text into the login flow: an identifier
// while in the input step, a verification code while verifying.
func (c *CommandImpl) handleAuthInput(ctx context.Context, chatID int64, st auth.State, text string) {
	switch st.Step {
	case auth.StepInput:
		next, err := c.Auth.SubmitIdentifier(ctx, chatID, text)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidIdentifier) {
				c.Telegram.SendMessage(chatID, "Enter a valid phone number (10-11 digits) or email address.")
				return
			}
			c.reportError(chatID, "request a code", err)
			return
		}
		kb := render.VerificationKeyboard(next)
		c.Telegram.SendMarkdown(chatID, render.VerificationPrompt(next), &kb)

	case auth.StepVerification:
		sess, err := c.Auth.SubmitCode(ctx, chatID, text)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCode) {
				c.Telegram.SendMessage(chatID,
					fmt.Sprintf("The code must be exactly %d digits.", c.Config.Auth.CodeLength))
				return
			}
			c.reportError(chatID, "verify the code", err)
			// The flow may have dropped to fresh-code mode; re-render it.
			if st, ok := c.Auth.State(chatID); ok {
				kb := render.VerificationKeyboard(st)
				c.Telegram.SendMarkdown(chatID, render.VerificationPrompt(st), &kb)
			}
			return
		}

		c.Telegram.SendMessage(chatID, "Welcome, "+sess.User.DisplayName()+"! Try /feed to get started.")
	}
}

func (c *CommandImpl) handleAuthCallback(ctx context.Context, chatID int64, cb *tgbotapi.CallbackQuery, parts []string) {
	ack := func(text string) { _ = c.Telegram.AnswerCallback(cb.ID, text) }
	if len(parts) < 2 {
		ack("")
		return
	}

	switch parts[1] {
	case "wait":
		if st, ok := c.Auth.State(chatID); ok && st.ResendIn > 0 {
			ack("Please wait " + st.ResendIn.Round(time.Second).String())
			return
		}
		ack("")

	case "resend":
		st, err := c.Auth.Resend(ctx, chatID)
		if err != nil {
			var countdown *auth.CountdownActiveError
			if errors.As(err, &countdown) {
				ack(countdown.Error())
				return
			}
			ack("")
			c.reportError(chatID, "resend the code", err)
			return
		}
		ack("Code sent")
		kb := render.VerificationKeyboard(st)
		c.Telegram.SendMarkdown(chatID, render.VerificationPrompt(st), &kb)

	case "change":
		ack("")
		c.Auth.ChangeIdentifier(chatID)
		text, kb := render.LoginPrompt()
		c.Telegram.SendMarkdown(chatID, text, &kb)

	case "google":
		ack("")
		authURL, err := c.Auth.GoogleLogin(ctx, chatID)
		if err != nil {
			c.reportError(chatID, "start Google sign-in", err)
			return
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Open Google sign-in", authURL),
			),
		)
		c.Telegram.SendMarkdown(chatID,
			escText("Sign in with Google in your browser, then come back here."), &kb)
	}
}
