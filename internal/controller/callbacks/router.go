package callbacks

import (
	"context"
	"strings"

	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/controller/callbacks/common"
	"github.com/Freeeeeet/learnifyr/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Publisher отправка событий в backend
type Publisher interface {
	Publish(ctx context.Context, stream string, e bus.Event) error
}

// Handler обрабатывает нажатия на inline кнопки
type Handler struct {
	publisher Publisher
	stream    string
	logger    *zap.Logger
}

func NewHandler(publisher Publisher, stream string, logger *zap.Logger) *Handler {
	return &Handler{
		publisher: publisher,
		stream:    stream,
		logger:    logger,
	}
}

// HandleCallbackQuery точка входа для go-telegram
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	h.Route(ctx, b, update.CallbackQuery)
}

// Route распределяет callback query по обработчикам
func (h *Handler) Route(ctx context.Context, b common.API, callback *models.CallbackQuery) {
	data := callback.Data

	h.logger.Info("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	switch {
	case strings.HasPrefix(data, keyboard.ReviewPublish):
		h.handleReviewDecision(ctx, b, callback, model.ReviewActionPublish)
	case strings.HasPrefix(data, keyboard.ReviewReject):
		h.handleReviewDecision(ctx, b, callback, model.ReviewActionReject)
	default:
		h.logger.Warn("Unknown callback",
			zap.String("data", data),
			zap.Int64("user_id", callback.From.ID))
		common.AnswerCallback(ctx, b, callback.ID, "❌ Неизвестная команда")
	}
}

// handleReviewDecision передаёт решение по отзыву в backend и снимает кнопки
func (h *Handler) handleReviewDecision(ctx context.Context, b common.API, callback *models.CallbackQuery, action model.ReviewAction) {
	reviewID, err := common.ParseIDFromCallback(callback.Data)
	if err != nil {
		h.logger.Error("Failed to parse review ID", zap.String("data", callback.Data), zap.Error(err))
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	err = h.publisher.Publish(ctx, h.stream, bus.ReviewResponseEvent{
		UserID:   callback.From.ID,
		ReviewID: reviewID,
		Action:   string(action),
	})
	if err != nil {
		h.logger.Error("Failed to publish review response",
			zap.Int64("review_id", reviewID),
			zap.Error(err))
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Не удалось отправить решение, попробуйте позже")
		return
	}

	answer := "✅ Отзыв опубликован"
	if action == model.ReviewActionReject {
		answer = "Отзыв отклонён"
	}
	common.AnswerCallback(ctx, b, callback.ID, answer)

	if err := common.StripKeyboard(ctx, b, callback); err != nil {
		h.logger.Warn("Failed to strip keyboard",
			zap.Int64("review_id", reviewID),
			zap.Error(err))
	}
}
