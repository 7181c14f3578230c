package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/georgysavva/scany/v2/pgxscan"
)

type StudentRepository struct {
	db *base.Repository
}

func NewStudentRepository(db *base.Repository) *StudentRepository {
	return &StudentRepository{db: db}
}

// Get получает студента с настройками уведомлений
func (r *StudentRepository) Get(ctx context.Context, id int64) (*model.Student, error) {
	query := `
		SELECT ` + userColumns + `,
			s.request_notification, s.review_published_notification, s.archive_lessons_notification
		FROM users u
		JOIN students s ON s.user_id = u.id
		WHERE u.id = $1 AND NOT u.is_deleted
	`

	var student model.Student
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &student, query, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// UpdateNotifications обновляет переданные флаги уведомлений
func (r *StudentRepository) UpdateNotifications(ctx context.Context, id int64, in model.StudentNotificationsInput) error {
	var sb setBuilder
	if in.RequestNotification != nil {
		sb.set("request_notification", *in.RequestNotification)
	}
	if in.ReviewPublishedNotification != nil {
		sb.set("review_published_notification", *in.ReviewPublishedNotification)
	}
	if in.ArchiveLessonsNotification != nil {
		sb.set("archive_lessons_notification", *in.ArchiveLessonsNotification)
	}
	if sb.empty() {
		return nil
	}

	query := fmt.Sprintf(`UPDATE students %s WHERE user_id = %s`, sb.sql(), sb.next(id))
	if _, err := r.db.ExecAffected(ctx, query, sb.args...); err != nil {
		return fmt.Errorf("update student notifications: %w", err)
	}
	return nil
}

// HideTeacher скрывает репетитора из выдачи студента; повтор ничего не меняет
func (r *StudentRepository) HideTeacher(ctx context.Context, studentID, teacherID int64) error {
	_, err := r.db.ExecAffected(ctx, `
		INSERT INTO hidden_teachers (student_id, teacher_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, studentID, teacherID)
	if err != nil {
		return fmt.Errorf("hide teacher: %w", err)
	}
	return nil
}

// ClearHiddenTeachers удаляет список скрытых репетиторов студента
func (r *StudentRepository) ClearHiddenTeachers(ctx context.Context, studentID int64) error {
	if _, err := r.db.ExecAffected(ctx, `DELETE FROM hidden_teachers WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear hidden teachers: %w", err)
	}
	return nil
}
