package model

import "time"

type MatchStatus string

const (
	MatchStatusRequest  MatchStatus = "request"  // Репетитор откликнулся
	MatchStatusActive   MatchStatus = "active"   // Студент принял отклик
	MatchStatusArchived MatchStatus = "archived" // Занятия завершены
	MatchStatusRejected MatchStatus = "rejected" // Студент отклонил отклик
)

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusRequest: {MatchStatusActive, MatchStatusRejected},
	MatchStatusActive:  {MatchStatusArchived},
}

// CanTransitionTo проверяет допустимость перехода отклика
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Match struct {
	ID            int64       `json:"id" db:"id"`
	StudentID     int64       `json:"student_id" db:"student_id"`
	TeacherID     int64       `json:"teacher_id" db:"teacher_id"`
	ApplicationID int64       `json:"application_id" db:"application_id"`
	Status        MatchStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// HasParty проверяет что пользователь участник отклика
func (m *Match) HasParty(userID int64) bool {
	return m.StudentID == userID || m.TeacherID == userID
}

// MatchView отклик для списков с именами сторон
type MatchView struct {
	Match
	StudentName       string  `json:"student_name" db:"student_name"`
	StudentSurname    string  `json:"student_surname" db:"student_surname"`
	TeacherName       string  `json:"teacher_name" db:"teacher_name"`
	TeacherSurname    string  `json:"teacher_surname" db:"teacher_surname"`
	TeacherPatronymic *string `json:"teacher_patronymic,omitempty" db:"teacher_patronymic"`
	CanReview         *bool   `json:"can_review" db:"can_review"` // только для студента
}

type MatchFilter struct {
	UserID          int64
	Role            Role
	IncludeArchived bool
	IncludeRejected bool
}

// Statuses возвращает набор статусов для выборки
func (f MatchFilter) Statuses() []MatchStatus {
	statuses := []MatchStatus{MatchStatusRequest, MatchStatusActive}
	if f.IncludeArchived {
		statuses = append(statuses, MatchStatusArchived)
	}
	if f.IncludeRejected {
		statuses = append(statuses, MatchStatusRejected)
	}
	return statuses
}
