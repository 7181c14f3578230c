package formatting

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/model"
)

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatHourlyPrice форматирует ставку в рублях за час
func FormatHourlyPrice(price int) string {
	return fmt.Sprintf("%d ₽/час", price)
}

// LessonsLabel возвращает диапазон количества занятий
func LessonsLabel(count model.LessonsCount) string {
	labels := map[model.LessonsCount]string{
		model.LessonsFew:    "1–3",
		model.LessonsMedium: "3–10",
		model.LessonsMany:   "10+",
	}

	if label, ok := labels[count]; ok {
		return label
	}
	return "?"
}

// FullName собирает "Фамилия Имя Отчество" без пустых частей
func FullName(surname, name string, patronymic *string) string {
	full := surname + " " + name
	if patronymic != nil && *patronymic != "" {
		full += " " + *patronymic
	}
	return full
}
