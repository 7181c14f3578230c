package handlers

import (
	"context"

	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"/start - Начать работу с ботом\n" +
	"/help - Показать эту справку\n\n" +
	"Зарегистрируйтесь на сайте и перейдите в бота по ссылке из личного кабинета. " +
	"Бот присылает коды входа, новые заявки, отклики и отзывы на модерацию."

// HandleStart обрабатывает /start и /start <token>
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.start(ctx, b, update)
}

func (h *Handlers) start(ctx context.Context, b Sender, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	token, ok := startArgs(update.Message.Text)
	if !ok {
		return
	}

	from := update.Message.From

	var event bus.Event
	if token != "" {
		event = bus.RegistrationStartEvent{UserID: from.ID, Username: from.Username, Token: token}
	} else {
		event = bus.CommonStartEvent{UserID: from.ID, Username: from.Username}
	}

	if err := h.publisher.Publish(ctx, h.stream, event); err != nil {
		h.logger.Error("Failed to publish start event",
			zap.Int64("telegram_id", from.ID),
			zap.String("event_type", string(event.EventType())),
			zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	h.logger.Info("Start event published",
		zap.Int64("telegram_id", from.ID),
		zap.String("event_type", string(event.EventType())))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.help(ctx, b, update)
}

func (h *Handlers) help(ctx context.Context, b Sender, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}
