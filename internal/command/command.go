package command

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Client interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}
