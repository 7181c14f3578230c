package botevents

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/service"
	"go.uber.org/zap"
)

const (
	TextAlreadyRegistered = "Вы уже зарегистрированы. Для входа в систему перейдите на сайт."
	TextRegistered        = "Регистрация успешно завершена"
	TextGoRegister        = "Для регистрации в системе перейдите на сайт"
)

// Registrar привязка telegram аккаунтов
type Registrar interface {
	IsRegistered(ctx context.Context, telegramID int64, username string) (bool, error)
	LinkTelegram(ctx context.Context, rawToken string, telegramID int64, username string) (*model.User, error)
}

// Moderator решения репетиторов по отзывам
type Moderator interface {
	Resolve(ctx context.Context, reviewID, actorChatID int64, action model.ReviewAction) error
}

// Replier ставит ответ боту в очередь
type Replier interface {
	Enqueue(ctx context.Context, e bus.Event) error
}

// Listener обрабатывает события, пришедшие от бота
type Listener struct {
	registrar Registrar
	moderator Moderator
	replies   Replier
	logger    *zap.Logger
}

func NewListener(registrar Registrar, moderator Moderator, replies Replier, logger *zap.Logger) *Listener {
	return &Listener{
		registrar: registrar,
		moderator: moderator,
		replies:   replies,
		logger:    logger,
	}
}

// Register подписывает обработчики на consumer
func (l *Listener) Register(c *bus.Consumer) {
	c.Handle(bus.EventRegistrationStart, l.HandleRegistrationStart)
	c.Handle(bus.EventCommonStart, l.HandleCommonStart)
	c.Handle(bus.EventReviewResponse, l.HandleReviewResponse)
}

// HandleRegistrationStart /start <token>: привязывает чат к пользователю
func (l *Listener) HandleRegistrationStart(ctx context.Context, msg bus.Message) error {
	var event bus.RegistrationStartEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}

	_, err := l.registrar.LinkTelegram(ctx, event.Token, event.UserID, event.Username)

	var text string
	switch {
	case err == nil:
		text = TextRegistered
	case errors.Is(err, service.ErrAlreadyRegistered):
		text = TextAlreadyRegistered
	default:
		l.logger.Warn("Registration failed",
			zap.Int64("telegram_id", event.UserID),
			zap.Error(err))
		text = fmt.Sprintf("Ошибка регистрации: %s", service.TokenErrorReason(err))
	}

	return l.reply(ctx, event.UserID, text)
}

// HandleCommonStart /start без токена
func (l *Listener) HandleCommonStart(ctx context.Context, msg bus.Message) error {
	var event bus.CommonStartEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}

	registered, err := l.registrar.IsRegistered(ctx, event.UserID, event.Username)
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}

	text := TextGoRegister
	if registered {
		text = TextAlreadyRegistered
	}
	return l.reply(ctx, event.UserID, text)
}

// HandleReviewResponse кнопка модерации отзыва. Ответа в чат нет.
func (l *Listener) HandleReviewResponse(ctx context.Context, msg bus.Message) error {
	var event bus.ReviewResponseEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}

	return l.moderator.Resolve(ctx, event.ReviewID, event.UserID, model.ReviewAction(event.Action))
}

func (l *Listener) reply(ctx context.Context, chatID int64, text string) error {
	return l.replies.Enqueue(ctx, bus.RegistrationFinishEvent{UserID: chatID, Message: text})
}
