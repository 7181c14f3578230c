package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/georgysavva/scany/v2/pgxscan"
)

type SubjectRepository struct {
	db *base.Repository
}

func NewSubjectRepository(db *base.Repository) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List возвращает все предметы
func (r *SubjectRepository) List(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	if err := pgxscan.Select(ctx, r.db.Conn(ctx), &subjects, `SELECT id, name FROM subjects ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// GetByName ищет предмет по точному названию
func (r *SubjectRepository) GetByName(ctx context.Context, name string) (*model.Subject, error) {
	var subject model.Subject
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &subject, `SELECT id, name FROM subjects WHERE name = $1`, name)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject by name: %w", err)
	}
	return &subject, nil
}

// GetByNames возвращает найденные предметы из списка названий
func (r *SubjectRepository) GetByNames(ctx context.Context, names []string) ([]model.Subject, error) {
	var subjects []model.Subject
	err := pgxscan.Select(ctx, r.db.Conn(ctx), &subjects,
		`SELECT id, name FROM subjects WHERE name = ANY($1) ORDER BY id`, names)
	if err != nil {
		return nil, fmt.Errorf("get subjects by names: %w", err)
	}
	return subjects, nil
}

// ListByTeacher предметы репетитора
func (r *SubjectRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]model.Subject, error) {
	var subjects []model.Subject
	err := pgxscan.Select(ctx, r.db.Conn(ctx), &subjects, `
		SELECT s.id, s.name
		FROM subjects s
		JOIN teacher_subjects ts ON ts.subject_id = s.id
		WHERE ts.teacher_id = $1
		ORDER BY s.id
	`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return subjects, nil
}

// ReplaceTeacherSubjects заменяет набор предметов репетитора
func (r *SubjectRepository) ReplaceTeacherSubjects(ctx context.Context, teacherID int64, subjectIDs []int64) error {
	if _, err := r.db.ExecAffected(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear teacher subjects: %w", err)
	}

	if len(subjectIDs) == 0 {
		return nil
	}

	_, err := r.db.ExecAffected(ctx, `
		INSERT INTO teacher_subjects (teacher_id, subject_id)
		SELECT $1, unnest($2::bigint[])
	`, teacherID, subjectIDs)
	if err != nil {
		return fmt.Errorf("insert teacher subjects: %w", err)
	}
	return nil
}
