package controller

import (
	"context"

	"github.com/Freeeeeet/learnifyr/internal/controller/callbacks"
	"github.com/Freeeeeet/learnifyr/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/learnifyr/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

// NewBotController собирает обработчики. События уходят в backend через publisher в поток stream.
func NewBotController(
	botInstance *bot.Bot,
	publisher handlers.Publisher,
	stream string,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:             botInstance,
		handlers:        handlers.NewHandlers(publisher, stream, logger),
		callbackHandler: callbacks.NewHandler(publisher, stream, logger),
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// /start и /start <token>
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)

	// Кнопки модерации отзывов
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, keyboard.ReviewPublish, bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, keyboard.ReviewReject, bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	c.logger.Info("Bot stopped")
}
