package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid проверяет что роль известна
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

type User struct {
	ID               int64     `json:"id" db:"id"`
	Role             Role      `json:"role" db:"role"`
	TelegramID       *int64    `json:"-" db:"telegram_id"`
	TelegramUsername *string   `json:"telegram_username,omitempty" db:"telegram_username"`
	Surname          string    `json:"surname" db:"surname"`
	Name             string    `json:"name" db:"name"`
	Patronymic       *string   `json:"patronymic,omitempty" db:"patronymic"`
	Age              *int      `json:"age,omitempty" db:"age"`
	Bio              *string   `json:"bio,omitempty" db:"bio"`
	RefreshID        *string   `json:"-" db:"refresh_id"` // jti действующего refresh токена
	IP               *string   `json:"-" db:"ip"`
	Active           bool      `json:"active" db:"active"`
	IsDeleted        bool      `json:"-" db:"is_deleted"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ChatID возвращает привязанный telegram чат
func (u *User) ChatID() (int64, bool) {
	if u == nil || u.TelegramID == nil {
		return 0, false
	}
	return *u.TelegramID, true
}

type StudentSettings struct {
	RequestNotification         bool `json:"request_notification" db:"request_notification"`                   // отклик на заявку
	ReviewPublishedNotification bool `json:"review_published_notification" db:"review_published_notification"` // публикация отзыва
	ArchiveLessonsNotification  bool `json:"archive_lessons_notification" db:"archive_lessons_notification"`   // завершение занятий
}

type TeacherSettings struct {
	AvatarKey                  *string `json:"-" db:"avatar_key"`
	Rate                       *int    `json:"rate,omitempty" db:"rate"` // ₽ в час
	Rating                     float64 `json:"rating" db:"rating"`
	ApplicationNotification    bool    `json:"application_notification" db:"application_notification"` // новые заявки
	ReviewNotification         bool    `json:"review_notification" db:"review_notification"`           // модерация отзывов
	ResponseNotification       bool    `json:"response_notification" db:"response_notification"`       // принятие отклика
	ArchiveLessonsNotification bool    `json:"archive_lessons_notification" db:"archive_lessons_notification"`
}

type Student struct {
	User
	StudentSettings
}

type Teacher struct {
	User
	TeacherSettings

	// Заполняются сервисом
	AvatarURL *string   `json:"avatar_url,omitempty" db:"-"`
	Subjects  []Subject `json:"subjects" db:"-"`
}

type RegisterInput struct {
	Role       Role
	Surname    string
	Name       string
	Patronymic *string
}

type UpdateProfileInput struct {
	Surname    *string
	Name       *string
	Patronymic *string
	Age        *int
	Bio        *string
	Rate       *int // только для репетитора
}

type StudentNotificationsInput struct {
	RequestNotification         *bool
	ReviewPublishedNotification *bool
	ArchiveLessonsNotification  *bool
}

type TeacherNotificationsInput struct {
	ApplicationNotification    *bool
	ReviewNotification         *bool
	ResponseNotification       *bool
	ArchiveLessonsNotification *bool
}

type TeacherFilter struct {
	StudentID int64
	Subject   *string
	RateMin   *int
	RateMax   *int
	Limit     int
	Offset    int
}

// ApplicationRecipient кандидат в рассылку о новой заявке
type ApplicationRecipient struct {
	TeacherID               int64  `db:"teacher_id"`
	TelegramID              *int64 `db:"telegram_id"`
	ApplicationNotification bool   `db:"application_notification"`
}
