package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const teacherSettingsColumns = `t.avatar_key, t.rate, t.rating, t.application_notification,
	t.review_notification, t.response_notification, t.archive_lessons_notification`

type TeacherRepository struct {
	db *base.Repository
}

func NewTeacherRepository(db *base.Repository) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// Get получает репетитора с настройками
func (r *TeacherRepository) Get(ctx context.Context, id int64) (*model.Teacher, error) {
	query := `
		SELECT ` + userColumns + `, ` + teacherSettingsColumns + `
		FROM users u
		JOIN teachers t ON t.user_id = u.id
		WHERE u.id = $1 AND NOT u.is_deleted
	`

	var teacher model.Teacher
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &teacher, query, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &teacher, nil
}

// List активные репетиторы, не скрытые студентом
func (r *TeacherRepository) List(ctx context.Context, f model.TeacherFilter) ([]model.Teacher, error) {
	var w whereBuilder
	w.raw("u.active AND NOT u.is_deleted")
	w.add("NOT EXISTS (SELECT 1 FROM hidden_teachers h WHERE h.teacher_id = u.id AND h.student_id = %s)", f.StudentID)
	if f.Subject != nil {
		w.add(`EXISTS (
			SELECT 1 FROM teacher_subjects ts JOIN subjects s ON s.id = ts.subject_id
			WHERE ts.teacher_id = u.id AND s.name = %s
		)`, *f.Subject)
	}
	if f.RateMin != nil {
		w.add("t.rate >= %s", *f.RateMin)
	}
	if f.RateMax != nil {
		w.add("t.rate <= %s", *f.RateMax)
	}

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM users u
		JOIN teachers t ON t.user_id = u.id
		%s
		ORDER BY t.rating DESC, u.id
		LIMIT %s OFFSET %s
	`, userColumns, teacherSettingsColumns, w.sql(), w.arg(f.Limit), w.arg(f.Offset))

	var teachers []model.Teacher
	if err := pgxscan.Select(ctx, r.db.Conn(ctx), &teachers, query, w.args...); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// ApplicationRecipients репетиторы по предмету со ставкой в пределах ±10% от цены
func (r *TeacherRepository) ApplicationRecipients(ctx context.Context, subjectID int64, price int) ([]model.ApplicationRecipient, error) {
	var recipients []model.ApplicationRecipient
	err := pgxscan.Select(ctx, r.db.Conn(ctx), &recipients, `
		SELECT u.id AS teacher_id, u.telegram_id, t.application_notification
		FROM teachers t
		JOIN users u ON u.id = t.user_id
		JOIN teacher_subjects ts ON ts.teacher_id = t.user_id
		WHERE ts.subject_id = $1
			AND u.active AND NOT u.is_deleted
			AND t.rate IS NOT NULL
			AND t.rate BETWEEN $2 * 0.9 AND $2 * 1.1
	`, subjectID, price)
	if err != nil {
		return nil, fmt.Errorf("application recipients: %w", err)
	}
	return recipients, nil
}

// UpdateRate меняет ставку репетитора
func (r *TeacherRepository) UpdateRate(ctx context.Context, id int64, rate int) error {
	if _, err := r.db.ExecAffected(ctx, `UPDATE teachers SET rate = $2 WHERE user_id = $1`, id, rate); err != nil {
		return fmt.Errorf("update rate: %w", err)
	}
	return nil
}

// UpdateNotifications обновляет переданные флаги уведомлений
func (r *TeacherRepository) UpdateNotifications(ctx context.Context, id int64, in model.TeacherNotificationsInput) error {
	var sb setBuilder
	if in.ApplicationNotification != nil {
		sb.set("application_notification", *in.ApplicationNotification)
	}
	if in.ReviewNotification != nil {
		sb.set("review_notification", *in.ReviewNotification)
	}
	if in.ResponseNotification != nil {
		sb.set("response_notification", *in.ResponseNotification)
	}
	if in.ArchiveLessonsNotification != nil {
		sb.set("archive_lessons_notification", *in.ArchiveLessonsNotification)
	}
	if sb.empty() {
		return nil
	}

	query := fmt.Sprintf(`UPDATE teachers %s WHERE user_id = %s`, sb.sql(), sb.next(id))
	if _, err := r.db.ExecAffected(ctx, query, sb.args...); err != nil {
		return fmt.Errorf("update teacher notifications: %w", err)
	}
	return nil
}

// SetAvatar сохраняет ключ аватара и возвращает предыдущий
func (r *TeacherRepository) SetAvatar(ctx context.Context, id int64, key *string) (*string, error) {
	var previous *string
	err := r.db.QueryRow(ctx, `
		UPDATE teachers t SET avatar_key = $2
		FROM (SELECT avatar_key FROM teachers WHERE user_id = $1 FOR UPDATE) old
		WHERE t.user_id = $1
		RETURNING old.avatar_key
	`, id, key).Scan(&previous)
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return previous, nil
}

// RecalculateRating пересчитывает рейтинг по опубликованным отзывам
func (r *TeacherRepository) RecalculateRating(ctx context.Context, id int64) error {
	_, err := r.db.ExecAffected(ctx, `
		UPDATE teachers
		SET rating = COALESCE((
			SELECT ROUND(AVG(rating)::numeric, 1) FROM reviews
			WHERE teacher_id = $1 AND is_published
		), 0)
		WHERE user_id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("recalculate rating: %w", err)
	}
	return nil
}
