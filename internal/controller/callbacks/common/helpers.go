package common

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/learnifyr/internal/controller/callbacks/common/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// API методы telegram, которые нужны callback handlers. Реализуется *bot.Bot.
type API interface {
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	EditMessageReplyMarkup(ctx context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error)
}

// AnswerCallback отвечает на callback query (без alert)
func AnswerCallback(ctx context.Context, b API, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert отвечает на callback query с alert (всплывающее окно)
func AnswerCallbackAlert(ctx context.Context, b API, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// GetMessageFromCallback извлекает сообщение из callback query
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}

// ParseIDFromCallback извлекает ID из callback data
// Например: "review_publish:123" -> 123
func ParseIDFromCallback(data string) (int64, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%q: %w", data, ErrInvalidFormat)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", data, ErrInvalidFormat)
	}
	return id, nil
}

// StripKeyboard убирает inline кнопки с сообщения callback
func StripKeyboard(ctx context.Context, b API, callback *models.CallbackQuery) error {
	msg := GetMessageFromCallback(callback)
	if msg == nil {
		return ErrNoMessage
	}

	_, err := b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		ReplyMarkup: keyboard.Empty(),
	})
	if IsMessageNotModifiedError(err) {
		return nil
	}
	return err
}

// IsMessageNotModifiedError telegram отвечает так на повторное редактирование
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
