package telegramimpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/retry"
)

// SendMessage sends a plain text message to a specific chat ID
func (tg *TelegramImpl) SendMessage(chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	sentMsg, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending message",
			"chatID", chatID,
			"error", err)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	return sentMsg.MessageID, nil
}

// SendMarkdown sends a MarkdownV2 message, optionally with an inline keyboard
func (tg *TelegramImpl) SendMarkdown(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}

	sentMsg, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending markdown message",
			"chatID", chatID,
			"error", err)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	return sentMsg.MessageID, nil
}

// EditMessageText replaces the text of a previously sent message
func (tg *TelegramImpl) EditMessageText(chatID int64, messageID int, newText string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, newText)
	if _, err := tg.TgBot.Send(edit); err != nil {
		tg.Logger.Error("Error editing message",
			"chatID", chatID,
			"messageID", messageID,
			"error", err)
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// EditMarkdown replaces the text and keyboard of a previously sent message
func (tg *TelegramImpl) EditMarkdown(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	if keyboard != nil {
		edit.ReplyMarkup = keyboard
	}

	if _, err := tg.TgBot.Send(edit); err != nil {
		tg.Logger.Error("Error editing markdown message",
			"chatID", chatID,
			"messageID", messageID,
			"error", err)
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges an inline keyboard press
func (tg *TelegramImpl) AnswerCallback(callbackID string, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := tg.TgBot.Request(callback); err != nil {
		tg.Logger.Error("Error answering callback", "error", err)
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// SendMediaGroup sends an album of photos/videos to a chat
func (tg *TelegramImpl) SendMediaGroup(chatID int64, media []interface{}) error {
	group := tgbotapi.NewMediaGroup(chatID, media)
	if _, err := tg.TgBot.SendMediaGroup(group); err != nil {
		tg.Logger.Error("Error sending media group",
			"chatID", chatID,
			"count", len(media),
			"error", err)
		return fmt.Errorf("failed to send media group: %w", err)
	}
	return nil
}

// DownloadFile fetches a Telegram-hosted file by ID. Transfers from the
// Telegram CDN are retried with backoff; the API proper is never retried
// here.
func (tg *TelegramImpl) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := tg.TgBot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file URL: %w", err)
	}

	var data []byte
	err = retry.Do(ctx, tg.Logger, "telegram file download", func() error {
		reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, fileURL, nil)
		if err != nil {
			return err
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer safeClose(resp.Body, tg.Logger)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		return err
	}, retry.DefaultConfig())
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("received empty file data")
	}
	return data, nil
}

// GetUpdatesChan wraps the bot's GetUpdatesChan method
func (tg *TelegramImpl) GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return tg.TgBot.GetUpdatesChan(u)
}

// StopReceivingUpdates stops the long-polling loop
func (tg *TelegramImpl) StopReceivingUpdates() {
	tg.TgBot.StopReceivingUpdates()
}

// safeClose safely closes an io.ReadCloser and logs any errors
func safeClose(closer io.ReadCloser, logger logger.Logger) {
	if err := closer.Close(); err != nil {
		logger.Error("Error closing response body", "error", err)
	}
}
