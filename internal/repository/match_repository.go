package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const matchColumns = `m.id, m.student_id, m.teacher_id, m.application_id, m.status, m.created_at, m.updated_at`

type MatchRepository struct {
	db *base.Repository
}

func NewMatchRepository(db *base.Repository) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create создаёт отклик репетитора на заявку
func (r *MatchRepository) Create(ctx context.Context, match *model.Match) error {
	query := `
		INSERT INTO matches (student_id, teacher_id, application_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		match.StudentID,
		match.TeacherID,
		match.ApplicationID,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("teacher %d already responded to application %d: %w",
				match.TeacherID, match.ApplicationID, errdefs.ErrConflict)
		}
		return fmt.Errorf("create match: %w", err)
	}

	return nil
}

// GetByID получает отклик по ID
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*model.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches m WHERE m.id = $1`

	var match model.Match
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &match, query, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get match: %w", err)
	}

	return &match, nil
}

// Transition меняет статус отклика, только если текущий статус равен from
func (r *MatchRepository) Transition(ctx context.Context, id int64, from, to model.MatchStatus) error {
	affected, err := r.db.ExecAffected(ctx,
		`UPDATE matches SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("transition match: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("match %d is not %s: %w", id, from, errdefs.ErrConflict)
	}

	return nil
}

// ArchiveOpenByStudent архивирует незавершённые отклики студента
func (r *MatchRepository) ArchiveOpenByStudent(ctx context.Context, studentID int64) (int64, error) {
	affected, err := r.db.ExecAffected(ctx, `
		UPDATE matches SET status = $2, updated_at = NOW()
		WHERE student_id = $1 AND status = ANY($3)
	`, studentID, model.MatchStatusArchived,
		[]string{string(model.MatchStatusRequest), string(model.MatchStatusActive)},
	)
	if err != nil {
		return 0, fmt.Errorf("archive student matches: %w", err)
	}
	return affected, nil
}

// ArchiveOpenByTeacher архивирует незавершённые отклики репетитора
func (r *MatchRepository) ArchiveOpenByTeacher(ctx context.Context, teacherID int64) (int64, error) {
	affected, err := r.db.ExecAffected(ctx, `
		UPDATE matches SET status = $2, updated_at = NOW()
		WHERE teacher_id = $1 AND status = ANY($3)
	`, teacherID, model.MatchStatusArchived,
		[]string{string(model.MatchStatusRequest), string(model.MatchStatusActive)},
	)
	if err != nil {
		return 0, fmt.Errorf("archive teacher matches: %w", err)
	}
	return affected, nil
}

// RejectRequestsByApplication отклоняет остальные ожидающие отклики на заявку
func (r *MatchRepository) RejectRequestsByApplication(ctx context.Context, applicationID, exceptMatchID int64) (int64, error) {
	affected, err := r.db.ExecAffected(ctx, `
		UPDATE matches SET status = $3, updated_at = NOW()
		WHERE application_id = $1 AND id <> $2 AND status = $4
	`, applicationID, exceptMatchID, model.MatchStatusRejected, model.MatchStatusRequest)
	if err != nil {
		return 0, fmt.Errorf("reject application %d requests: %w", applicationID, err)
	}
	return affected, nil
}

// HasArchived проверяет что между студентом и репетитором есть завершённые занятия
func (r *MatchRepository) HasArchived(ctx context.Context, studentID, teacherID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM matches
			WHERE student_id = $1 AND teacher_id = $2 AND status = $3
		)
	`, studentID, teacherID, model.MatchStatusArchived).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check archived match: %w", err)
	}
	return exists, nil
}

// Shared проверяет что у студента и репетитора есть хотя бы один отклик
func (r *MatchRepository) Shared(ctx context.Context, studentID, teacherID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM matches WHERE student_id = $1 AND teacher_id = $2)`,
		studentID, teacherID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check shared match: %w", err)
	}
	return exists, nil
}

// List возвращает отклики пользователя со сторонами; для студента считает can_review
func (r *MatchRepository) List(ctx context.Context, f model.MatchFilter) ([]model.MatchView, error) {
	column := "m.student_id"
	canReview := `NOT EXISTS (SELECT 1 FROM reviews r WHERE r.student_id = m.student_id AND r.teacher_id = m.teacher_id)`
	if f.Role == model.RoleTeacher {
		column = "m.teacher_id"
		canReview = "NULL::boolean"
	}

	statuses := make([]string, 0, 4)
	for _, s := range f.Statuses() {
		statuses = append(statuses, string(s))
	}

	query := fmt.Sprintf(`
		SELECT %s,
			st.name AS student_name, st.surname AS student_surname,
			te.name AS teacher_name, te.surname AS teacher_surname, te.patronymic AS teacher_patronymic,
			%s AS can_review
		FROM matches m
		JOIN users st ON st.id = m.student_id
		JOIN users te ON te.id = m.teacher_id
		WHERE %s = $1 AND m.status = ANY($2)
		ORDER BY m.updated_at DESC, m.id DESC
	`, matchColumns, canReview, column)

	var matches []model.MatchView
	if err := pgxscan.Select(ctx, r.db.Conn(ctx), &matches, query, f.UserID, statuses); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	return matches, nil
}
