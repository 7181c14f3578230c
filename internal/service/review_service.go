package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/formatting"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/notification"
	"go.uber.org/zap"
)

// ReviewService отзывы студентов и их модерация репетитором
type ReviewService struct {
	tx       TxManager
	reviews  ReviewRepository
	matches  MatchRepository
	students StudentRepository
	teachers TeacherRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewReviewService(
	tx TxManager,
	reviews ReviewRepository,
	matches MatchRepository,
	students StudentRepository,
	teachers TeacherRepository,
	notifier Notifier,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		tx:       tx,
		reviews:  reviews,
		matches:  matches,
		students: students,
		teachers: teachers,
		notifier: notifier,
		logger:   logger,
	}
}

// Create сохраняет отзыв и отправляет его репетитору на модерацию.
// Если модерация выключена или чат не привязан, отзыв публикуется сразу.
func (s *ReviewService) Create(ctx context.Context, in model.CreateReviewInput) (int64, error) {
	if in.Rating < model.ReviewRatingMin || in.Rating > model.ReviewRatingMax {
		return 0, invalid("rating must be in [%d, %d]", model.ReviewRatingMin, model.ReviewRatingMax)
	}
	length := utf8.RuneCountInString(strings.TrimSpace(in.Text))
	if length < 1 || utf8.RuneCountInString(in.Text) > model.ReviewTextMax {
		return 0, invalid("text must be 1..%d characters", model.ReviewTextMax)
	}

	review := &model.Review{
		StudentID: in.StudentID,
		TeacherID: in.TeacherID,
		Rating:    in.Rating,
		Text:      in.Text,
	}
	moderated := false

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		teacher, err := s.teachers.Get(ctx, in.TeacherID)
		if err != nil {
			return fmt.Errorf("get teacher: %w", err)
		}
		if teacher == nil {
			return notFound("teacher %d", in.TeacherID)
		}

		exists, err := s.reviews.Exists(ctx, in.StudentID, in.TeacherID)
		if err != nil {
			return err
		}
		if exists {
			return conflict("review for teacher %d already exists", in.TeacherID)
		}

		archived, err := s.matches.HasArchived(ctx, in.StudentID, in.TeacherID)
		if err != nil {
			return err
		}
		if !archived {
			return conflict("no completed lessons with teacher %d", in.TeacherID)
		}

		if err := s.reviews.Create(ctx, review); err != nil {
			return err
		}

		chatID, linked := teacher.ChatID()
		if teacher.ReviewNotification && linked {
			moderated = true
			return s.notifier.Enqueue(ctx, bus.ReviewEvent{
				UserID:   chatID,
				ReviewID: review.ID,
				Message:  notification.ReviewModerationText(review.Text),
			})
		}

		return s.publish(ctx, review)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Review created",
		zap.Int64("review_id", review.ID),
		zap.Int64("teacher_id", review.TeacherID),
		zap.Bool("moderated", moderated),
	)
	return review.ID, nil
}

// Resolve применяет решение репетитора. Повторное решение ничего не меняет.
func (s *ReviewService) Resolve(ctx context.Context, reviewID, actorChatID int64, action model.ReviewAction) error {
	if !action.Valid() {
		return invalid("unknown review action %q", action)
	}

	applied := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		review, err := s.reviews.GetByID(ctx, reviewID)
		if err != nil {
			return fmt.Errorf("get review: %w", err)
		}
		if review == nil {
			return notFound("review %d", reviewID)
		}

		teacher, err := s.teachers.Get(ctx, review.TeacherID)
		if err != nil {
			return fmt.Errorf("get teacher: %w", err)
		}
		if teacher == nil {
			return forbidden("teacher of review %d not found", reviewID)
		}
		chatID, linked := teacher.ChatID()
		if !linked || chatID != actorChatID {
			return forbidden("chat %d cannot moderate review %d", actorChatID, reviewID)
		}

		applied, err = s.reviews.Resolve(ctx, reviewID, action == model.ReviewActionPublish)
		if err != nil {
			return err
		}
		if !applied || action != model.ReviewActionPublish {
			return nil
		}

		review.IsPublished = true
		return s.afterPublish(ctx, review, teacher)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Review resolved",
		zap.Int64("review_id", reviewID),
		zap.String("action", string(action)),
		zap.Bool("applied", applied),
	)
	return nil
}

// publish публикует отзыв без модерации
func (s *ReviewService) publish(ctx context.Context, review *model.Review) error {
	applied, err := s.reviews.Resolve(ctx, review.ID, true)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	teacher, err := s.teachers.Get(ctx, review.TeacherID)
	if err != nil {
		return fmt.Errorf("get teacher: %w", err)
	}
	review.IsPublished = true
	return s.afterPublish(ctx, review, teacher)
}

func (s *ReviewService) afterPublish(ctx context.Context, review *model.Review, teacher *model.Teacher) error {
	if err := s.teachers.RecalculateRating(ctx, review.TeacherID); err != nil {
		return err
	}

	student, err := s.students.Get(ctx, review.StudentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if student == nil || teacher == nil {
		return nil
	}

	name := formatting.FullName(teacher.Surname, teacher.Name, teacher.Patronymic)
	_, err = s.notifier.NotifyIf(ctx, notification.Recipient{
		ChatID:  student.TelegramID,
		Enabled: student.ReviewPublishedNotification,
	}, notification.ReviewPublishedText(name))
	return err
}
