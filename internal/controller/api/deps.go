package api

import (
	"context"
	"io"

	"github.com/Freeeeeet/learnifyr/internal/auth"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, in model.RegisterInput) (*model.User, string, error)
	RequestLoginCode(ctx context.Context, username string) error
	VerifyLogin(ctx context.Context, username, code, ip string) (*service.Session, error)
	Refresh(ctx context.Context, refreshToken, ip string) (string, error)
	Logout(ctx context.Context, userID int64) error
}

type ApplicationService interface {
	Create(ctx context.Context, in model.CreateApplicationInput) (int64, error)
	Update(ctx context.Context, applicationID, studentID int64, in model.UpdateApplicationInput) error
	List(ctx context.Context, f model.ApplicationFilter) ([]model.ApplicationDetail, error)
	ListMine(ctx context.Context, studentID int64, archived bool) ([]model.ApplicationDetail, error)
	Get(ctx context.Context, applicationID int64) (*model.ApplicationDetail, error)
	Hide(ctx context.Context, applicationID, teacherID int64) error
	Request(ctx context.Context, applicationID, teacherID int64) (int64, error)
	Accept(ctx context.Context, applicationID, matchID, studentID int64) error
	Reject(ctx context.Context, applicationID, matchID, studentID int64) error
}

type MatchService interface {
	Complete(ctx context.Context, matchID, callerID int64) error
	List(ctx context.Context, f model.MatchFilter) ([]model.MatchView, error)
}

type ReviewService interface {
	Create(ctx context.Context, in model.CreateReviewInput) (int64, error)
}

type ProfileService interface {
	GetStudent(ctx context.Context, studentID int64) (*model.StudentProfile, error)
	GetStudentForTeacher(ctx context.Context, studentID, teacherID int64) (*model.StudentProfile, error)
	UpdateStudentNotifications(ctx context.Context, studentID int64, in model.StudentNotificationsInput) error
	DeleteStudent(ctx context.Context, studentID int64) error
	HideTeacher(ctx context.Context, studentID, teacherID int64) error

	GetTeacher(ctx context.Context, teacherID int64) (*model.TeacherProfile, error)
	GetTeacherForStudent(ctx context.Context, teacherID, studentID int64) (*model.TeacherProfile, error)
	DeleteTeacher(ctx context.Context, teacherID int64) error
	ListTeachers(ctx context.Context, f model.TeacherFilter) ([]model.Teacher, error)
	UpdateTeacherNotifications(ctx context.Context, teacherID int64, in model.TeacherNotificationsInput) error
	ReplaceSubjects(ctx context.Context, teacherID int64, names []string) ([]model.Subject, error)
	UploadAvatar(ctx context.Context, teacherID int64, name string, body io.Reader, size int64, contentType string) (string, error)
	DeleteAvatar(ctx context.Context, teacherID int64) error

	UpdateProfile(ctx context.Context, p auth.Principal, in model.UpdateProfileInput) error
	SetActive(ctx context.Context, userID int64, active bool) error
}

type SubjectService interface {
	List(ctx context.Context) ([]model.Subject, error)
}

// Authenticator проверяет access токен из cookie
type Authenticator interface {
	Principal(raw string) (auth.Principal, error)
}

type Services struct {
	Auth         AuthService
	Applications ApplicationService
	Matches      MatchService
	Reviews      ReviewService
	Profiles     ProfileService
	Subjects     SubjectService
}
