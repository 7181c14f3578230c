package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/metrics"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/notification"
	"go.uber.org/zap"
)

// ApplicationService жизненный цикл заявок и откликов на них
type ApplicationService struct {
	tx       TxManager
	apps     ApplicationRepository
	matches  MatchRepository
	subjects SubjectRepository
	students StudentRepository
	teachers TeacherRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewApplicationService(
	tx TxManager,
	apps ApplicationRepository,
	matches MatchRepository,
	subjects SubjectRepository,
	students StudentRepository,
	teachers TeacherRepository,
	notifier Notifier,
	logger *zap.Logger,
) *ApplicationService {
	return &ApplicationService{
		tx:       tx,
		apps:     apps,
		matches:  matches,
		subjects: subjects,
		students: students,
		teachers: teachers,
		notifier: notifier,
		logger:   logger,
	}
}

// Create публикует заявку студента и рассылает её подходящим репетиторам
func (s *ApplicationService) Create(ctx context.Context, in model.CreateApplicationInput) (int64, error) {
	if err := validatePrice(in.Price); err != nil {
		return 0, err
	}
	if err := validateLessons(in.LessonsCount); err != nil {
		return 0, err
	}
	if err := validateDescription(in.Description); err != nil {
		return 0, err
	}

	app := &model.Application{
		StudentID:    in.StudentID,
		Price:        in.Price,
		LessonsCount: in.LessonsCount,
		Description:  in.Description,
		Status:       model.ApplicationStatusActive,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		subject, err := s.subjects.GetByName(ctx, in.SubjectName)
		if err != nil {
			return fmt.Errorf("get subject: %w", err)
		}
		if subject == nil {
			return notFound("subject %q", in.SubjectName)
		}
		app.SubjectID = subject.ID

		if err := s.apps.Create(ctx, app); err != nil {
			return err
		}

		return s.newsletter(ctx, app, subject.Name)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Application created",
		zap.Int64("application_id", app.ID),
		zap.Int64("student_id", app.StudentID),
		zap.String("subject", in.SubjectName),
		zap.Int("price", app.Price),
	)

	return app.ID, nil
}

// Update меняет переданные поля, поднимает заявку в ленте и повторяет рассылку
func (s *ApplicationService) Update(ctx context.Context, applicationID, studentID int64, in model.UpdateApplicationInput) error {
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return err
		}
	}
	if in.LessonsCount != nil {
		if err := validateLessons(*in.LessonsCount); err != nil {
			return err
		}
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		app, err := s.apps.GetByID(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("get application: %w", err)
		}
		if app == nil {
			return notFound("application %d", applicationID)
		}
		if app.StudentID != studentID {
			return forbidden("application %d belongs to another student", applicationID)
		}
		if app.Status != model.ApplicationStatusActive {
			return conflict("application %d is %s", applicationID, app.Status)
		}

		var subjectID *int64
		if in.SubjectName != nil {
			subject, err := s.subjects.GetByName(ctx, *in.SubjectName)
			if err != nil {
				return fmt.Errorf("get subject: %w", err)
			}
			if subject == nil {
				return notFound("subject %q", *in.SubjectName)
			}
			subjectID = &subject.ID
		}

		if _, err := s.apps.Update(ctx, applicationID, subjectID, in); err != nil {
			return err
		}

		detail, err := s.apps.GetDetail(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("get application detail: %w", err)
		}
		if detail == nil {
			return notFound("application %d", applicationID)
		}

		s.logger.Info("Application updated", zap.Int64("application_id", applicationID))

		return s.newsletter(ctx, &detail.Application, detail.SubjectName)
	})
}

func (s *ApplicationService) newsletter(ctx context.Context, app *model.Application, subjectName string) error {
	candidates, err := s.teachers.ApplicationRecipients(ctx, app.SubjectID, app.Price)
	if err != nil {
		return err
	}

	recipients := make([]notification.Recipient, 0, len(candidates))
	for _, c := range candidates {
		recipients = append(recipients, notification.Recipient{
			ChatID:  c.TelegramID,
			Enabled: c.ApplicationNotification,
		})
	}

	text := notification.NewApplicationText(subjectName, app.Price, app.LessonsCount, app.CreatedAt)
	if _, err := s.notifier.Newsletter(ctx, recipients, text); err != nil {
		return fmt.Errorf("newsletter: %w", err)
	}
	return nil
}

// List лента активных заявок для репетитора
func (s *ApplicationService) List(ctx context.Context, f model.ApplicationFilter) ([]model.ApplicationDetail, error) {
	if err := validateRange("price", f.PriceMin, f.PriceMax, 0, model.ApplicationPriceMax); err != nil {
		return nil, err
	}
	if err := validateRange("student_age", f.StudentAgeMin, f.StudentAgeMax, 0, 150); err != nil {
		return nil, err
	}
	for _, c := range f.LessonsCounts {
		if err := validateLessons(c); err != nil {
			return nil, err
		}
	}
	if f.Offset < 0 {
		return nil, invalid("offset must not be negative")
	}
	if f.Limit <= 0 || f.Limit > model.ApplicationListLimit {
		f.Limit = model.ApplicationListLimit
	}

	return s.apps.List(ctx, f)
}

// ListMine заявки студента: активные или закрытые
func (s *ApplicationService) ListMine(ctx context.Context, studentID int64, archived bool) ([]model.ApplicationDetail, error) {
	return s.apps.ListByStudent(ctx, studentID, archived)
}

// Get заявка с предметом и студентом
func (s *ApplicationService) Get(ctx context.Context, applicationID int64) (*model.ApplicationDetail, error) {
	detail, err := s.apps.GetDetail(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, notFound("application %d", applicationID)
	}
	return detail, nil
}

// Hide скрывает заявку из ленты репетитора навсегда
func (s *ApplicationService) Hide(ctx context.Context, applicationID, teacherID int64) error {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return notFound("application %d", applicationID)
	}

	return s.apps.Hide(ctx, teacherID, applicationID)
}

// Request создаёт отклик репетитора на активную заявку
func (s *ApplicationService) Request(ctx context.Context, applicationID, teacherID int64) (int64, error) {
	match := &model.Match{
		TeacherID:     teacherID,
		ApplicationID: applicationID,
		Status:        model.MatchStatusRequest,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		app, err := s.apps.GetByID(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("get application: %w", err)
		}
		if app == nil {
			return notFound("application %d", applicationID)
		}
		// Принятая или закрытая заявка не собирает новых откликов
		if app.Status != model.ApplicationStatusActive {
			return conflict("application %d is %s", applicationID, app.Status)
		}

		match.StudentID = app.StudentID
		if err := s.matches.Create(ctx, match); err != nil {
			return err
		}

		student, err := s.students.Get(ctx, app.StudentID)
		if err != nil {
			return fmt.Errorf("get student: %w", err)
		}
		if student == nil {
			return nil
		}

		_, err = s.notifier.NotifyIf(ctx, notification.Recipient{
			ChatID:  student.TelegramID,
			Enabled: student.RequestNotification,
		}, notification.MatchRequestedText(match.ID))
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Application requested",
		zap.Int64("application_id", applicationID),
		zap.Int64("match_id", match.ID),
		zap.Int64("teacher_id", teacherID),
	)

	return match.ID, nil
}

// Accept принимает конкретный отклик: заявка accepted, отклик active
func (s *ApplicationService) Accept(ctx context.Context, applicationID, matchID, studentID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		app, match, err := s.resolveMatch(ctx, applicationID, matchID, studentID)
		if err != nil {
			return err
		}

		if err := s.transition(ctx, app, match, model.ApplicationStatusAccepted, model.MatchStatusActive); err != nil {
			return err
		}

		teacher, err := s.teachers.Get(ctx, match.TeacherID)
		if err != nil {
			return fmt.Errorf("get teacher: %w", err)
		}
		if teacher == nil {
			return nil
		}

		_, err = s.notifier.NotifyIf(ctx, notification.Recipient{
			ChatID:  teacher.TelegramID,
			Enabled: teacher.ResponseNotification,
		}, notification.MatchAcceptedText(match.ID))
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Match accepted",
		zap.Int64("application_id", applicationID),
		zap.Int64("match_id", matchID),
	)
	return nil
}

// Reject отклоняет отклик: заявка archived, отклик rejected. Репетитор не уведомляется.
func (s *ApplicationService) Reject(ctx context.Context, applicationID, matchID, studentID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		app, match, err := s.resolveMatch(ctx, applicationID, matchID, studentID)
		if err != nil {
			return err
		}

		return s.transition(ctx, app, match, model.ApplicationStatusArchived, model.MatchStatusRejected)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Match rejected",
		zap.Int64("application_id", applicationID),
		zap.Int64("match_id", matchID),
	)
	return nil
}

// resolveMatch находит заявку и её отклик и проверяет владельца
func (s *ApplicationService) resolveMatch(ctx context.Context, applicationID, matchID, studentID int64) (*model.Application, *model.Match, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, nil, notFound("application %d", applicationID)
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, nil, fmt.Errorf("get match: %w", err)
	}
	if match == nil || match.ApplicationID != applicationID {
		return nil, nil, notFound("match %d for application %d", matchID, applicationID)
	}

	if app.StudentID != studentID {
		return nil, nil, forbidden("application %d belongs to another student", applicationID)
	}

	return app, match, nil
}

func (s *ApplicationService) transition(ctx context.Context, app *model.Application, match *model.Match, appTo model.ApplicationStatus, matchTo model.MatchStatus) error {
	if !app.Status.CanTransitionTo(appTo) {
		return conflict("application %d: %s -> %s", app.ID, app.Status, appTo)
	}
	if !match.Status.CanTransitionTo(matchTo) {
		return conflict("match %d: %s -> %s", match.ID, match.Status, matchTo)
	}

	// Условные UPDATE: конкурентный вызов, успевший первым, оставит здесь 0 строк
	if err := s.apps.Transition(ctx, app.ID, app.Status, appTo); err != nil {
		return err
	}
	if err := s.matches.Transition(ctx, match.ID, match.Status, matchTo); err != nil {
		return err
	}

	// Заявка закрыта: остальные отклики в request больше не могут быть приняты
	rejected, err := s.matches.RejectRequestsByApplication(ctx, app.ID, match.ID)
	if err != nil {
		return err
	}
	if rejected > 0 {
		metrics.TransitionsTotal.WithLabelValues("match", string(model.MatchStatusRejected)).Add(float64(rejected))
	}

	metrics.TransitionsTotal.WithLabelValues("application", string(appTo)).Inc()
	metrics.TransitionsTotal.WithLabelValues("match", string(matchTo)).Inc()
	return nil
}
