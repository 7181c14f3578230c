package handlers

import (
	"context"

	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Publisher отправка событий в backend
type Publisher interface {
	Publish(ctx context.Context, stream string, e bus.Event) error
}

// Sender отправка сообщений пользователю, реализуется *bot.Bot
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	publisher Publisher
	stream    string
	logger    *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(publisher Publisher, stream string, logger *zap.Logger) *Handlers {
	return &Handlers{
		publisher: publisher,
		stream:    stream,
		logger:    logger,
	}
}
