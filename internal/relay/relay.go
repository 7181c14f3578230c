package relay

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/learnifyr/internal/metrics"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Messenger отправка сообщений в telegram, реализуется *bot.Bot
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Relay доставляет события backend в telegram чаты
type Relay struct {
	messenger Messenger
	logger    *zap.Logger
}

func New(messenger Messenger, logger *zap.Logger) *Relay {
	return &Relay{
		messenger: messenger,
		logger:    logger,
	}
}

// Register подписывает обработчики на consumer потока backend→bot
func (r *Relay) Register(c *bus.Consumer) {
	c.Handle(bus.EventRegistrationFinish, r.HandleRegistrationFinish)
	c.Handle(bus.EventAuth, r.HandleAuth)
	c.Handle(bus.EventNotification, r.HandleNotification)
	c.Handle(bus.EventReview, r.HandleReview)
}

func (r *Relay) HandleRegistrationFinish(ctx context.Context, msg bus.Message) error {
	var event bus.RegistrationFinishEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}
	return r.send(ctx, msg.Type, &bot.SendMessageParams{
		ChatID:    event.UserID,
		Text:      event.Message,
		ParseMode: models.ParseModeHTML,
	})
}

// HandleAuth код подтверждения входа
func (r *Relay) HandleAuth(ctx context.Context, msg bus.Message) error {
	var event bus.AuthEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}
	return r.send(ctx, msg.Type, &bot.SendMessageParams{
		ChatID:    event.UserID,
		Text:      AuthText(event.Code),
		ParseMode: models.ParseModeHTML,
	})
}

func (r *Relay) HandleNotification(ctx context.Context, msg bus.Message) error {
	var event bus.NotificationEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}
	return r.send(ctx, msg.Type, &bot.SendMessageParams{
		ChatID:    event.UserID,
		Text:      event.Message,
		ParseMode: models.ParseModeHTML,
	})
}

// HandleReview отзыв на модерацию с кнопками решения
func (r *Relay) HandleReview(ctx context.Context, msg bus.Message) error {
	var event bus.ReviewEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}
	return r.send(ctx, msg.Type, &bot.SendMessageParams{
		ChatID:      event.UserID,
		Text:        event.Message,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard.ReviewModeration(event.ReviewID),
	})
}

func (r *Relay) send(ctx context.Context, eventType bus.EventType, params *bot.SendMessageParams) error {
	_, err := r.messenger.SendMessage(ctx, params)
	metrics.BotMessagesTotal.WithLabelValues(string(eventType), metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("send %s to %v: %w", eventType, params.ChatID, err)
	}

	r.logger.Debug("Message delivered",
		zap.String("event_type", string(eventType)),
		zap.Any("chat_id", params.ChatID))
	return nil
}

func AuthText(code string) string {
	return fmt.Sprintf("Ваш код подтверждения:\n<pre>%s</pre>", code)
}
