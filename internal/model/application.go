package model

import "time"

type LessonsCount string

const (
	LessonsFew    LessonsCount = "few"    // 1–3 занятия
	LessonsMedium LessonsCount = "medium" // 3–10 занятий
	LessonsMany   LessonsCount = "many"   // больше 10
)

func (l LessonsCount) Valid() bool {
	switch l {
	case LessonsFew, LessonsMedium, LessonsMany:
		return true
	}
	return false
}

type ApplicationStatus string

const (
	ApplicationStatusActive   ApplicationStatus = "active"   // Ищет репетитора
	ApplicationStatusAccepted ApplicationStatus = "accepted" // Отклик принят
	ApplicationStatusArchived ApplicationStatus = "archived" // Отклик отклонён или заявка закрыта
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusActive: {ApplicationStatusAccepted, ApplicationStatusArchived},
}

// CanTransitionTo проверяет допустимость перехода заявки
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const (
	ApplicationPriceMax       = 100000
	ApplicationDescriptionMax = 200
	ApplicationListLimit      = 100
)

type Application struct {
	ID           int64             `json:"id" db:"id"`
	StudentID    int64             `json:"student_id" db:"student_id"`
	SubjectID    int64             `json:"subject_id" db:"subject_id"`
	Price        int               `json:"price" db:"price"`
	LessonsCount LessonsCount      `json:"lessons_count" db:"lessons_count"`
	Description  *string           `json:"description,omitempty" db:"description"`
	Status       ApplicationStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

// ApplicationDetail заявка вместе с предметом и данными студента
type ApplicationDetail struct {
	Application
	SubjectName    string `json:"subject_name" db:"subject_name"`
	StudentName    string `json:"student_name" db:"student_name"`
	StudentSurname string `json:"student_surname" db:"student_surname"`
}

type CreateApplicationInput struct {
	StudentID    int64
	SubjectName  string
	Price        int
	LessonsCount LessonsCount
	Description  *string
}

type UpdateApplicationInput struct {
	SubjectName  *string
	Price        *int
	LessonsCount *LessonsCount
	Description  *string
}

// ApplicationFilter фильтры ленты заявок для репетитора
type ApplicationFilter struct {
	TeacherID     int64
	Subjects      []string
	PriceMin      *int
	PriceMax      *int
	StudentAgeMin *int
	StudentAgeMax *int
	LessonsCounts []LessonsCount
	Limit         int
	Offset        int
}
