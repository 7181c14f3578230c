package service

import (
	"context"
	"io"

	"github.com/Freeeeeet/learnifyr/internal/auth"
	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/notification"
)

// TxManager выполняет функцию в транзакции
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id int64) (*model.Application, error)
	GetDetail(ctx context.Context, id int64) (*model.ApplicationDetail, error)
	Update(ctx context.Context, id int64, subjectID *int64, in model.UpdateApplicationInput) (*model.Application, error)
	Transition(ctx context.Context, id int64, from, to model.ApplicationStatus) error
	ArchiveActiveByStudent(ctx context.Context, studentID int64) (int64, error)
	List(ctx context.Context, f model.ApplicationFilter) ([]model.ApplicationDetail, error)
	ListByStudent(ctx context.Context, studentID int64, archived bool) ([]model.ApplicationDetail, error)
	Hide(ctx context.Context, teacherID, applicationID int64) error
}

type MatchRepository interface {
	Create(ctx context.Context, match *model.Match) error
	GetByID(ctx context.Context, id int64) (*model.Match, error)
	Transition(ctx context.Context, id int64, from, to model.MatchStatus) error
	ArchiveOpenByStudent(ctx context.Context, studentID int64) (int64, error)
	ArchiveOpenByTeacher(ctx context.Context, teacherID int64) (int64, error)
	RejectRequestsByApplication(ctx context.Context, applicationID, exceptMatchID int64) (int64, error)
	HasArchived(ctx context.Context, studentID, teacherID int64) (bool, error)
	Shared(ctx context.Context, studentID, teacherID int64) (bool, error)
	List(ctx context.Context, f model.MatchFilter) ([]model.MatchView, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	Exists(ctx context.Context, studentID, teacherID int64) (bool, error)
	Resolve(ctx context.Context, id int64, publish bool) (bool, error)
	ListPublishedByTeacher(ctx context.Context, teacherID int64) ([]model.ReviewView, error)
	ListPublishedByStudent(ctx context.Context, studentID int64) ([]model.ReviewView, error)
}

type SubjectRepository interface {
	List(ctx context.Context) ([]model.Subject, error)
	GetByName(ctx context.Context, name string) (*model.Subject, error)
	GetByNames(ctx context.Context, names []string) ([]model.Subject, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]model.Subject, error)
	ReplaceTeacherSubjects(ctx context.Context, teacherID int64, subjectIDs []int64) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	LinkTelegram(ctx context.Context, userID, telegramID int64, username string) error
	SetSession(ctx context.Context, userID int64, refreshID, ip *string) error
	UpdateProfile(ctx context.Context, userID int64, in model.UpdateProfileInput) error
	SetActive(ctx context.Context, userID int64, active bool) error
	SoftDelete(ctx context.Context, userID int64) error
}

type StudentRepository interface {
	Get(ctx context.Context, id int64) (*model.Student, error)
	UpdateNotifications(ctx context.Context, id int64, in model.StudentNotificationsInput) error
	HideTeacher(ctx context.Context, studentID, teacherID int64) error
	ClearHiddenTeachers(ctx context.Context, studentID int64) error
}

type TeacherRepository interface {
	Get(ctx context.Context, id int64) (*model.Teacher, error)
	List(ctx context.Context, f model.TeacherFilter) ([]model.Teacher, error)
	ApplicationRecipients(ctx context.Context, subjectID int64, price int) ([]model.ApplicationRecipient, error)
	UpdateRate(ctx context.Context, id int64, rate int) error
	UpdateNotifications(ctx context.Context, id int64, in model.TeacherNotificationsInput) error
	SetAvatar(ctx context.Context, id int64, key *string) (*string, error)
	RecalculateRating(ctx context.Context, id int64) error
}

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	GetByValue(ctx context.Context, value string, tokenType model.TokenType) (*model.Token, error)
	GetForUser(ctx context.Context, userID int64, value string, tokenType model.TokenType) (*model.Token, error)
	MarkUsed(ctx context.Context, id int64) (bool, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

// Notifier ставит исходящие события в outbox текущей транзакции
type Notifier interface {
	Enqueue(ctx context.Context, e bus.Event) error
	NotifyIf(ctx context.Context, r notification.Recipient, message string) (bool, error)
	Newsletter(ctx context.Context, recipients []notification.Recipient, message string) (int, error)
}

// AvatarStorage объектное хранилище аватаров
type AvatarStorage interface {
	Upload(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// TokenIssuer выпуск JWT для сессии
type TokenIssuer interface {
	IssueAccess(userID int64, role model.Role) (string, error)
	IssueRefresh(userID int64, role model.Role) (string, string, error)
	Parse(raw, tokenType string) (*auth.Claims, error)
}
