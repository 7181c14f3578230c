package notification

import (
	"fmt"
	"html"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/formatting"
	"github.com/Freeeeeet/learnifyr/internal/model"
)

// Тексты уходят в telegram с parse mode HTML: всё, что ввёл пользователь, экранируется.

// NewApplicationText текст рассылки о новой заявке
func NewApplicationText(subject string, price int, lessons model.LessonsCount, publishedAt time.Time) string {
	return fmt.Sprintf(
		"<b>Найдена новая заявка</b>\n"+
			"<b>Предмет:</b> %s\n"+
			"<b>Цена:</b> %s\n"+
			"<b>Количество уроков:</b> %s\n"+
			"<b>Опубликована:</b> %s",
		html.EscapeString(subject),
		formatting.FormatHourlyPrice(price),
		formatting.LessonsLabel(lessons),
		formatting.FormatDateTime(publishedAt),
	)
}

func MatchRequestedText(matchID int64) string {
	return fmt.Sprintf("На вашу заявку №%d откликнулся репетитор", matchID)
}

func MatchAcceptedText(matchID int64) string {
	return fmt.Sprintf("Ваш отклик на заявку №%d принят", matchID)
}

func MatchArchivedText(matchID int64) string {
	return fmt.Sprintf("Занятия по отклику №%d завершены", matchID)
}

func ReviewModerationText(text string) string {
	return "Новый отзыв:\n" + html.EscapeString(text)
}

func ReviewPublishedText(teacherName string) string {
	return fmt.Sprintf("Ваш отзыв о репетиторе %s опубликован", html.EscapeString(teacherName))
}
