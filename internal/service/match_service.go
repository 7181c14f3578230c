package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/metrics"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/notification"
	"go.uber.org/zap"
)

type MatchService struct {
	tx       TxManager
	matches  MatchRepository
	students StudentRepository
	teachers TeacherRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewMatchService(
	tx TxManager,
	matches MatchRepository,
	students StudentRepository,
	teachers TeacherRepository,
	notifier Notifier,
	logger *zap.Logger,
) *MatchService {
	return &MatchService{
		tx:       tx,
		matches:  matches,
		students: students,
		teachers: teachers,
		notifier: notifier,
		logger:   logger,
	}
}

// Complete завершает занятия по активному отклику. Заявка не меняется.
func (s *MatchService) Complete(ctx context.Context, matchID, callerID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		match, err := s.matches.GetByID(ctx, matchID)
		if err != nil {
			return fmt.Errorf("get match: %w", err)
		}
		if match == nil {
			return notFound("match %d", matchID)
		}
		if !match.HasParty(callerID) {
			return forbidden("user %d is not a party of match %d", callerID, matchID)
		}
		if !match.Status.CanTransitionTo(model.MatchStatusArchived) {
			return conflict("match %d is %s", matchID, match.Status)
		}

		if err := s.matches.Transition(ctx, matchID, match.Status, model.MatchStatusArchived); err != nil {
			return err
		}
		metrics.TransitionsTotal.WithLabelValues("match", string(model.MatchStatusArchived)).Inc()

		recipient, err := s.otherParty(ctx, match, callerID)
		if err != nil {
			return err
		}

		_, err = s.notifier.NotifyIf(ctx, recipient, notification.MatchArchivedText(matchID))
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Match completed",
		zap.Int64("match_id", matchID),
		zap.Int64("caller_id", callerID),
	)
	return nil
}

func (s *MatchService) otherParty(ctx context.Context, match *model.Match, callerID int64) (notification.Recipient, error) {
	if callerID == match.StudentID {
		teacher, err := s.teachers.Get(ctx, match.TeacherID)
		if err != nil {
			return notification.Recipient{}, fmt.Errorf("get teacher: %w", err)
		}
		if teacher == nil {
			return notification.Recipient{}, nil
		}
		return notification.Recipient{
			ChatID:  teacher.TelegramID,
			Enabled: teacher.TeacherSettings.ArchiveLessonsNotification,
		}, nil
	}

	student, err := s.students.Get(ctx, match.StudentID)
	if err != nil {
		return notification.Recipient{}, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return notification.Recipient{}, nil
	}
	return notification.Recipient{
		ChatID:  student.TelegramID,
		Enabled: student.StudentSettings.ArchiveLessonsNotification,
	}, nil
}

// List отклики пользователя в его роли
func (s *MatchService) List(ctx context.Context, f model.MatchFilter) ([]model.MatchView, error) {
	if !f.Role.Valid() {
		return nil, invalid("unknown role %q", f.Role)
	}
	return s.matches.List(ctx, f)
}
