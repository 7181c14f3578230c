package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type appFixture struct {
	apps     *MockApplicationRepo
	matches  *MockMatchRepo
	subjects *MockSubjectRepo
	students *MockStudentRepo
	teachers *MockTeacherRepo
	notifier *MockNotifier
	svc      *ApplicationService
}

func newAppFixture() *appFixture {
	f := &appFixture{
		apps:     new(MockApplicationRepo),
		matches:  new(MockMatchRepo),
		subjects: new(MockSubjectRepo),
		students: new(MockStudentRepo),
		teachers: new(MockTeacherRepo),
		notifier: new(MockNotifier),
	}
	f.svc = NewApplicationService(passTx{}, f.apps, f.matches, f.subjects, f.students, f.teachers, f.notifier, zap.NewNop())
	return f
}

func (f *appFixture) assertExpectations(t *testing.T) {
	f.apps.AssertExpectations(t)
	f.matches.AssertExpectations(t)
	f.subjects.AssertExpectations(t)
	f.students.AssertExpectations(t)
	f.teachers.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func activeApp() *model.Application {
	return &model.Application{
		ID:           10,
		StudentID:    1,
		SubjectID:    3,
		Price:        1000,
		LessonsCount: model.LessonsFew,
		Status:       model.ApplicationStatusActive,
		CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ── Create ─────────────────────────────────────────────────────

func TestApplicationService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAppFixture()

		f.subjects.On("GetByName", ctx, "Математика").Return(&model.Subject{ID: 3, Name: "Математика"}, nil)
		f.apps.On("Create", ctx, mock.AnythingOfType("*model.Application")).
			Run(func(args mock.Arguments) {
				app := args.Get(1).(*model.Application)
				assert.Equal(t, model.ApplicationStatusActive, app.Status)
				assert.Equal(t, int64(3), app.SubjectID)
				app.ID = 10
			}).
			Return(nil)
		f.teachers.On("ApplicationRecipients", ctx, int64(3), 1000).Return([]model.ApplicationRecipient{
			{TeacherID: 2, TelegramID: ptr(int64(200)), ApplicationNotification: true},
			{TeacherID: 4, TelegramID: nil, ApplicationNotification: true},
		}, nil)
		f.notifier.On("Newsletter", ctx, []notification.Recipient{
			{ChatID: ptr(int64(200)), Enabled: true},
			{ChatID: nil, Enabled: true},
		}, mock.MatchedBy(func(text string) bool {
			return assert.Contains(t, text, "Математика") && assert.Contains(t, text, "1000 ₽/час")
		})).Return(1, nil)

		id, err := f.svc.Create(ctx, model.CreateApplicationInput{
			StudentID:    1,
			SubjectName:  "Математика",
			Price:        1000,
			LessonsCount: model.LessonsFew,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(10), id)
		f.assertExpectations(t)
	})

	t.Run("Unknown subject", func(t *testing.T) {
		f := newAppFixture()
		f.subjects.On("GetByName", ctx, "Астрология").Return(nil, nil)

		_, err := f.svc.Create(ctx, model.CreateApplicationInput{
			StudentID:    1,
			SubjectName:  "Астрология",
			Price:        1000,
			LessonsCount: model.LessonsFew,
		})

		assert.ErrorIs(t, err, errdefs.ErrNotFound)
		f.apps.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Validation", func(t *testing.T) {
		cases := []struct {
			name string
			in   model.CreateApplicationInput
		}{
			{"zero price", model.CreateApplicationInput{Price: 0, LessonsCount: model.LessonsFew}},
			{"too expensive", model.CreateApplicationInput{Price: model.ApplicationPriceMax, LessonsCount: model.LessonsFew}},
			{"bad lessons", model.CreateApplicationInput{Price: 100, LessonsCount: "lots"}},
			{"long description", model.CreateApplicationInput{
				Price: 100, LessonsCount: model.LessonsFew,
				Description: ptr(string(make([]rune, model.ApplicationDescriptionMax+1))),
			}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				f := newAppFixture()
				_, err := f.svc.Create(ctx, tc.in)
				assert.ErrorIs(t, err, errdefs.ErrValidation)
			})
		}
	})
}

// ── Update ─────────────────────────────────────────────────────

func TestApplicationService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Bumps and re-sends newsletter", func(t *testing.T) {
		f := newAppFixture()
		in := model.UpdateApplicationInput{Price: ptr(1500)}

		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.apps.On("Update", ctx, int64(10), (*int64)(nil), in).Return(activeApp(), nil)

		updated := &model.ApplicationDetail{Application: *activeApp(), SubjectName: "Физика"}
		updated.Price = 1500
		f.apps.On("GetDetail", ctx, int64(10)).Return(updated, nil)
		f.teachers.On("ApplicationRecipients", ctx, int64(3), 1500).Return([]model.ApplicationRecipient{}, nil)
		f.notifier.On("Newsletter", ctx, []notification.Recipient{}, mock.AnythingOfType("string")).Return(0, nil)

		err := f.svc.Update(ctx, 10, 1, in)

		require.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("Not owner", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)

		err := f.svc.Update(ctx, 10, 99, model.UpdateApplicationInput{})

		assert.ErrorIs(t, err, errdefs.ErrForbidden)
	})

	t.Run("Not active", func(t *testing.T) {
		f := newAppFixture()
		app := activeApp()
		app.Status = model.ApplicationStatusAccepted
		f.apps.On("GetByID", ctx, int64(10)).Return(app, nil)

		err := f.svc.Update(ctx, 10, 1, model.UpdateApplicationInput{})

		assert.ErrorIs(t, err, errdefs.ErrConflict)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(nil, nil)

		err := f.svc.Update(ctx, 10, 1, model.UpdateApplicationInput{})

		assert.ErrorIs(t, err, errdefs.ErrNotFound)
	})
}

// ── List ───────────────────────────────────────────────────────

func TestApplicationService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Default limit", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("List", ctx, mock.MatchedBy(func(filter model.ApplicationFilter) bool {
			return filter.Limit == model.ApplicationListLimit && filter.TeacherID == 2
		})).Return([]model.ApplicationDetail{}, nil)

		_, err := f.svc.List(ctx, model.ApplicationFilter{TeacherID: 2, Limit: 1000})

		require.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("Inverted price range", func(t *testing.T) {
		f := newAppFixture()

		_, err := f.svc.List(ctx, model.ApplicationFilter{PriceMin: ptr(500), PriceMax: ptr(100)})

		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("Unknown lessons count", func(t *testing.T) {
		f := newAppFixture()

		_, err := f.svc.List(ctx, model.ApplicationFilter{LessonsCounts: []model.LessonsCount{"few", "some"}})

		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})
}

// ── Hide ───────────────────────────────────────────────────────

func TestApplicationService_Hide(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.apps.On("Hide", ctx, int64(2), int64(10)).Return(nil)

		require.NoError(t, f.svc.Hide(ctx, 10, 2))
		f.assertExpectations(t)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(nil, nil)

		assert.ErrorIs(t, f.svc.Hide(ctx, 10, 2), errdefs.ErrNotFound)
	})
}

// ── Request ────────────────────────────────────────────────────

func TestApplicationService_Request(t *testing.T) {
	ctx := context.Background()

	t.Run("Success notifies student", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("Create", ctx, mock.AnythingOfType("*model.Match")).
			Run(func(args mock.Arguments) {
				m := args.Get(1).(*model.Match)
				assert.Equal(t, model.MatchStatusRequest, m.Status)
				assert.Equal(t, int64(1), m.StudentID)
				m.ID = 77
			}).
			Return(nil)

		student := &model.Student{
			User:            model.User{ID: 1, TelegramID: ptr(int64(100))},
			StudentSettings: model.StudentSettings{RequestNotification: true},
		}
		f.students.On("Get", ctx, int64(1)).Return(student, nil)
		f.notifier.On("NotifyIf", ctx, notification.Recipient{ChatID: ptr(int64(100)), Enabled: true},
			"На вашу заявку №77 откликнулся репетитор").Return(true, nil)

		id, err := f.svc.Request(ctx, 10, 2)

		require.NoError(t, err)
		assert.Equal(t, int64(77), id)
		f.apps.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("Accepted application", func(t *testing.T) {
		f := newAppFixture()
		app := activeApp()
		app.Status = model.ApplicationStatusAccepted
		f.apps.On("GetByID", ctx, int64(10)).Return(app, nil)

		_, err := f.svc.Request(ctx, 10, 3)

		assert.ErrorIs(t, err, errdefs.ErrConflict)
		f.matches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Duplicate response", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("Create", ctx, mock.Anything).Return(errdefs.ErrConflict)

		_, err := f.svc.Request(ctx, 10, 2)

		assert.ErrorIs(t, err, errdefs.ErrConflict)
		f.notifier.AssertNotCalled(t, "NotifyIf", mock.Anything, mock.Anything, mock.Anything)
	})
}

// ── Accept / Reject ────────────────────────────────────────────

func requestMatch() *model.Match {
	return &model.Match{ID: 77, StudentID: 1, TeacherID: 2, ApplicationID: 10, Status: model.MatchStatusRequest}
}

func TestApplicationService_Accept(t *testing.T) {
	ctx := context.Background()

	t.Run("Success notifies teacher", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("GetByID", ctx, int64(77)).Return(requestMatch(), nil)
		f.apps.On("Transition", ctx, int64(10), model.ApplicationStatusActive, model.ApplicationStatusAccepted).Return(nil)
		f.matches.On("Transition", ctx, int64(77), model.MatchStatusRequest, model.MatchStatusActive).Return(nil)
		f.matches.On("RejectRequestsByApplication", ctx, int64(10), int64(77)).Return(int64(0), nil)

		teacher := &model.Teacher{
			User:            model.User{ID: 2, TelegramID: ptr(int64(200))},
			TeacherSettings: model.TeacherSettings{ResponseNotification: true},
		}
		f.teachers.On("Get", ctx, int64(2)).Return(teacher, nil)
		f.notifier.On("NotifyIf", ctx, notification.Recipient{ChatID: ptr(int64(200)), Enabled: true},
			"Ваш отклик на заявку №77 принят").Return(true, nil)

		require.NoError(t, f.svc.Accept(ctx, 10, 77, 1))
		f.assertExpectations(t)
	})

	t.Run("Pending siblings rejected", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("GetByID", ctx, int64(77)).Return(requestMatch(), nil)
		f.apps.On("Transition", ctx, int64(10), model.ApplicationStatusActive, model.ApplicationStatusAccepted).Return(nil)
		f.matches.On("Transition", ctx, int64(77), model.MatchStatusRequest, model.MatchStatusActive).Return(nil)
		f.matches.On("RejectRequestsByApplication", ctx, int64(10), int64(77)).Return(int64(2), nil)
		f.teachers.On("Get", ctx, int64(2)).Return(nil, nil)

		require.NoError(t, f.svc.Accept(ctx, 10, 77, 1))
		f.matches.AssertExpectations(t)
	})

	t.Run("Sibling rejection failure aborts accept", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("GetByID", ctx, int64(77)).Return(requestMatch(), nil)
		f.apps.On("Transition", ctx, int64(10), model.ApplicationStatusActive, model.ApplicationStatusAccepted).Return(nil)
		f.matches.On("Transition", ctx, int64(77), model.MatchStatusRequest, model.MatchStatusActive).Return(nil)
		f.matches.On("RejectRequestsByApplication", ctx, int64(10), int64(77)).Return(int64(0), errors.New("db down"))

		assert.Error(t, f.svc.Accept(ctx, 10, 77, 1))
		f.notifier.AssertNotCalled(t, "NotifyIf", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Match of another application", func(t *testing.T) {
		f := newAppFixture()
		m := requestMatch()
		m.ApplicationID = 11
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("GetByID", ctx, int64(77)).Return(m, nil)

		assert.ErrorIs(t, f.svc.Accept(ctx, 10, 77, 1), errdefs.ErrNotFound)
	})

	t.Run("Not owner", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("GetByID", ctx, int64(77)).Return(requestMatch(), nil)

		assert.ErrorIs(t, f.svc.Accept(ctx, 10, 77, 5), errdefs.ErrForbidden)
	})

	t.Run("Already accepted", func(t *testing.T) {
		f := newAppFixture()
		app := activeApp()
		app.Status = model.ApplicationStatusAccepted
		f.apps.On("GetByID", ctx, int64(10)).Return(app, nil)
		f.matches.On("GetByID", ctx, int64(77)).Return(requestMatch(), nil)

		assert.ErrorIs(t, f.svc.Accept(ctx, 10, 77, 1), errdefs.ErrConflict)
		f.apps.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Lost race", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("GetByID", ctx, int64(77)).Return(requestMatch(), nil)
		f.apps.On("Transition", ctx, int64(10), model.ApplicationStatusActive, model.ApplicationStatusAccepted).
			Return(errdefs.ErrConflict)

		assert.ErrorIs(t, f.svc.Accept(ctx, 10, 77, 1), errdefs.ErrConflict)
		f.notifier.AssertNotCalled(t, "NotifyIf", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestApplicationService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("Success without notification", func(t *testing.T) {
		f := newAppFixture()
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("GetByID", ctx, int64(77)).Return(requestMatch(), nil)
		f.apps.On("Transition", ctx, int64(10), model.ApplicationStatusActive, model.ApplicationStatusArchived).Return(nil)
		f.matches.On("Transition", ctx, int64(77), model.MatchStatusRequest, model.MatchStatusRejected).Return(nil)
		f.matches.On("RejectRequestsByApplication", ctx, int64(10), int64(77)).Return(int64(1), nil)

		require.NoError(t, f.svc.Reject(ctx, 10, 77, 1))
		f.assertExpectations(t)
		f.notifier.AssertNotCalled(t, "NotifyIf", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Active match", func(t *testing.T) {
		f := newAppFixture()
		m := requestMatch()
		m.Status = model.MatchStatusActive
		f.apps.On("GetByID", ctx, int64(10)).Return(activeApp(), nil)
		f.matches.On("GetByID", ctx, int64(77)).Return(m, nil)

		assert.ErrorIs(t, f.svc.Reject(ctx, 10, 77, 1), errdefs.ErrConflict)
	})
}
