package render

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/auth"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
)

// VerificationPrompt renders the message shown when the flow enters or
// re-renders the verification step. The wording follows the active mode.
func VerificationPrompt(st auth.State) string {
	channel := "SMS"
	if st.Type == domain.IdentifierEmail {
		channel = "email"
	}

	switch {
	case st.IsNewUser:
		return esc(fmt.Sprintf(
			"New account for %s. Enter the %d-digit code from the %s we just sent.",
			st.Identifier, st.CodeLength, channel))
	case st.Mode == auth.ModeManualRequest:
		return esc(fmt.Sprintf(
			"%s is already registered. Enter the code sent earlier, or request a new one.",
			st.Identifier))
	case st.Mode == auth.ModeExistingCode:
		return esc(fmt.Sprintf(
			"Enter the code from the previous %s sent to %s.", channel, st.Identifier))
	default:
		return esc(fmt.Sprintf(
			"Enter the %d-digit code from the %s sent to %s.", st.CodeLength, channel, st.Identifier))
	}
}

// VerificationKeyboard builds the resend/change-identifier controls. The
// resend button is shown as a countdown while one is running, and routes to
// force-send in manual-request mode.
func VerificationKeyboard(st auth.State) tgbotapi.InlineKeyboardMarkup {
	var resend tgbotapi.InlineKeyboardButton
	switch {
	case st.ResendIn > 0:
		resend = tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("🔄 Resend in %ds", int(st.ResendIn.Seconds())), "auth:wait")
	case st.Mode == auth.ModeManualRequest:
		resend = tgbotapi.NewInlineKeyboardButtonData("🔄 Send new code", "auth:resend")
	default:
		resend = tgbotapi.NewInlineKeyboardButtonData("🔄 Request new code", "auth:resend")
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(resend),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("← Change phone/email", "auth:change"),
		),
	)
}

// LoginPrompt renders the identifier-input step.
func LoginPrompt() (string, tgbotapi.InlineKeyboardMarkup) {
	text := esc("Send your phone number or email to sign in or register.\n\n" +
		"Examples: +7 777 777 77 77 or user@example.com")
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌐 Sign in with Google", "auth:google"),
		),
	)
	return text, kb
}
