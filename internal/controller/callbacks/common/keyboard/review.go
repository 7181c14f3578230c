package keyboard

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

// Callback data кнопок модерации отзыва
const (
	ReviewPublish = "review_publish:" // review_publish:review_id
	ReviewReject  = "review_reject:"  // review_reject:review_id
)

// ReviewModeration кнопки решения по отзыву
func ReviewModeration(reviewID int64) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(
			Button("Опубликовать", fmt.Sprintf("%s%d", ReviewPublish, reviewID)),
			Button("Отклонить", fmt.Sprintf("%s%d", ReviewReject, reviewID)),
		).
		Build()
}
