package service

import (
	"context"
	"io"

	"github.com/Freeeeeet/learnifyr/internal/auth"
	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/notification"
	"github.com/stretchr/testify/mock"
)

type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func ptr[T any](v T) *T { return &v }

// ── Applications ───────────────────────────────────────────────

type MockApplicationRepo struct {
	mock.Mock
}

func (m *MockApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	return m.Called(ctx, app).Error(0)
}

func (m *MockApplicationRepo) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *MockApplicationRepo) GetDetail(ctx context.Context, id int64) (*model.ApplicationDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApplicationDetail), args.Error(1)
}

func (m *MockApplicationRepo) Update(ctx context.Context, id int64, subjectID *int64, in model.UpdateApplicationInput) (*model.Application, error) {
	args := m.Called(ctx, id, subjectID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *MockApplicationRepo) Transition(ctx context.Context, id int64, from, to model.ApplicationStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockApplicationRepo) ArchiveActiveByStudent(ctx context.Context, studentID int64) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApplicationRepo) List(ctx context.Context, f model.ApplicationFilter) ([]model.ApplicationDetail, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApplicationDetail), args.Error(1)
}

func (m *MockApplicationRepo) ListByStudent(ctx context.Context, studentID int64, archived bool) ([]model.ApplicationDetail, error) {
	args := m.Called(ctx, studentID, archived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApplicationDetail), args.Error(1)
}

func (m *MockApplicationRepo) Hide(ctx context.Context, teacherID, applicationID int64) error {
	return m.Called(ctx, teacherID, applicationID).Error(0)
}

// ── Matches ────────────────────────────────────────────────────

type MockMatchRepo struct {
	mock.Mock
}

func (m *MockMatchRepo) Create(ctx context.Context, match *model.Match) error {
	return m.Called(ctx, match).Error(0)
}

func (m *MockMatchRepo) GetByID(ctx context.Context, id int64) (*model.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Match), args.Error(1)
}

func (m *MockMatchRepo) Transition(ctx context.Context, id int64, from, to model.MatchStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockMatchRepo) ArchiveOpenByStudent(ctx context.Context, studentID int64) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMatchRepo) ArchiveOpenByTeacher(ctx context.Context, teacherID int64) (int64, error) {
	args := m.Called(ctx, teacherID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMatchRepo) RejectRequestsByApplication(ctx context.Context, applicationID, exceptMatchID int64) (int64, error) {
	args := m.Called(ctx, applicationID, exceptMatchID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMatchRepo) HasArchived(ctx context.Context, studentID, teacherID int64) (bool, error) {
	args := m.Called(ctx, studentID, teacherID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepo) Shared(ctx context.Context, studentID, teacherID int64) (bool, error) {
	args := m.Called(ctx, studentID, teacherID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepo) List(ctx context.Context, f model.MatchFilter) ([]model.MatchView, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MatchView), args.Error(1)
}

// ── Reviews ────────────────────────────────────────────────────

type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) Create(ctx context.Context, review *model.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewRepo) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepo) Exists(ctx context.Context, studentID, teacherID int64) (bool, error) {
	args := m.Called(ctx, studentID, teacherID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepo) Resolve(ctx context.Context, id int64, publish bool) (bool, error) {
	args := m.Called(ctx, id, publish)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepo) ListPublishedByTeacher(ctx context.Context, teacherID int64) ([]model.ReviewView, error) {
	args := m.Called(ctx, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReviewView), args.Error(1)
}

func (m *MockReviewRepo) ListPublishedByStudent(ctx context.Context, studentID int64) ([]model.ReviewView, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReviewView), args.Error(1)
}

// ── Subjects ───────────────────────────────────────────────────

type MockSubjectRepo struct {
	mock.Mock
}

func (m *MockSubjectRepo) List(ctx context.Context) ([]model.Subject, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subject), args.Error(1)
}

func (m *MockSubjectRepo) GetByName(ctx context.Context, name string) (*model.Subject, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subject), args.Error(1)
}

func (m *MockSubjectRepo) GetByNames(ctx context.Context, names []string) ([]model.Subject, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subject), args.Error(1)
}

func (m *MockSubjectRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]model.Subject, error) {
	args := m.Called(ctx, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subject), args.Error(1)
}

func (m *MockSubjectRepo) ReplaceTeacherSubjects(ctx context.Context, teacherID int64, subjectIDs []int64) error {
	return m.Called(ctx, teacherID, subjectIDs).Error(0)
}

// ── Users ──────────────────────────────────────────────────────

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) user(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *MockUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return m.user(m.Called(ctx, telegramID))
}

func (m *MockUserRepo) LinkTelegram(ctx context.Context, userID, telegramID int64, username string) error {
	return m.Called(ctx, userID, telegramID, username).Error(0)
}

func (m *MockUserRepo) SetSession(ctx context.Context, userID int64, refreshID, ip *string) error {
	return m.Called(ctx, userID, refreshID, ip).Error(0)
}

func (m *MockUserRepo) UpdateProfile(ctx context.Context, userID int64, in model.UpdateProfileInput) error {
	return m.Called(ctx, userID, in).Error(0)
}

func (m *MockUserRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	return m.Called(ctx, userID, active).Error(0)
}

func (m *MockUserRepo) SoftDelete(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

// ── Students / Teachers ────────────────────────────────────────

type MockStudentRepo struct {
	mock.Mock
}

func (m *MockStudentRepo) Get(ctx context.Context, id int64) (*model.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockStudentRepo) UpdateNotifications(ctx context.Context, id int64, in model.StudentNotificationsInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockStudentRepo) HideTeacher(ctx context.Context, studentID, teacherID int64) error {
	return m.Called(ctx, studentID, teacherID).Error(0)
}

func (m *MockStudentRepo) ClearHiddenTeachers(ctx context.Context, studentID int64) error {
	return m.Called(ctx, studentID).Error(0)
}

type MockTeacherRepo struct {
	mock.Mock
}

func (m *MockTeacherRepo) Get(ctx context.Context, id int64) (*model.Teacher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Teacher), args.Error(1)
}

func (m *MockTeacherRepo) List(ctx context.Context, f model.TeacherFilter) ([]model.Teacher, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Teacher), args.Error(1)
}

func (m *MockTeacherRepo) ApplicationRecipients(ctx context.Context, subjectID int64, price int) ([]model.ApplicationRecipient, error) {
	args := m.Called(ctx, subjectID, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApplicationRecipient), args.Error(1)
}

func (m *MockTeacherRepo) UpdateRate(ctx context.Context, id int64, rate int) error {
	return m.Called(ctx, id, rate).Error(0)
}

func (m *MockTeacherRepo) UpdateNotifications(ctx context.Context, id int64, in model.TeacherNotificationsInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockTeacherRepo) SetAvatar(ctx context.Context, id int64, key *string) (*string, error) {
	args := m.Called(ctx, id, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

func (m *MockTeacherRepo) RecalculateRating(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// ── Tokens ─────────────────────────────────────────────────────

type MockTokenRepo struct {
	mock.Mock
}

func (m *MockTokenRepo) Create(ctx context.Context, token *model.Token) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockTokenRepo) GetByValue(ctx context.Context, value string, tokenType model.TokenType) (*model.Token, error) {
	args := m.Called(ctx, value, tokenType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Token), args.Error(1)
}

func (m *MockTokenRepo) GetForUser(ctx context.Context, userID int64, value string, tokenType model.TokenType) (*model.Token, error) {
	args := m.Called(ctx, userID, value, tokenType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Token), args.Error(1)
}

func (m *MockTokenRepo) MarkUsed(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepo) DeleteByUser(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

// ── Notifier / Storage / Issuer ────────────────────────────────

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Enqueue(ctx context.Context, e bus.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockNotifier) NotifyIf(ctx context.Context, r notification.Recipient, message string) (bool, error) {
	args := m.Called(ctx, r, message)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotifier) Newsletter(ctx context.Context, recipients []notification.Recipient, message string) (int, error) {
	args := m.Called(ctx, recipients, message)
	return args.Int(0), args.Error(1)
}

type MockAvatarStorage struct {
	mock.Mock
}

func (m *MockAvatarStorage) Upload(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, name, body, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockAvatarStorage) PresignGet(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockAvatarStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) IssueAccess(userID int64, role model.Role) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func (m *MockIssuer) IssueRefresh(userID int64, role model.Role) (string, string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockIssuer) Parse(raw, tokenType string) (*auth.Claims, error) {
	args := m.Called(raw, tokenType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}
