package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const applicationColumns = `a.id, a.student_id, a.subject_id, a.price, a.lessons_count, a.description, a.status, a.created_at`

type ApplicationRepository struct {
	db *base.Repository
}

func NewApplicationRepository(db *base.Repository) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create создаёт заявку в статусе active
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	query := `
		INSERT INTO applications (student_id, subject_id, price, lessons_count, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		app.StudentID,
		app.SubjectID,
		app.Price,
		app.LessonsCount,
		app.Description,
		app.Status,
	).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications a WHERE a.id = $1`

	var app model.Application
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &app, query, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get application: %w", err)
	}

	return &app, nil
}

// GetDetail получает заявку с предметом и данными студента
func (r *ApplicationRepository) GetDetail(ctx context.Context, id int64) (*model.ApplicationDetail, error) {
	query := `
		SELECT ` + applicationColumns + `, s.name AS subject_name, u.name AS student_name, u.surname AS student_surname
		FROM applications a
		JOIN subjects s ON s.id = a.subject_id
		JOIN users u ON u.id = a.student_id
		WHERE a.id = $1
	`

	var detail model.ApplicationDetail
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &detail, query, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get application detail: %w", err)
	}

	return &detail, nil
}

// Update применяет изменённые поля и поднимает заявку в ленте (created_at = NOW())
func (r *ApplicationRepository) Update(ctx context.Context, id int64, subjectID *int64, in model.UpdateApplicationInput) (*model.Application, error) {
	var sb setBuilder
	if subjectID != nil {
		sb.set("subject_id", *subjectID)
	}
	if in.Price != nil {
		sb.set("price", *in.Price)
	}
	if in.LessonsCount != nil {
		sb.set("lessons_count", *in.LessonsCount)
	}
	if in.Description != nil {
		sb.set("description", *in.Description)
	}
	sb.raw("created_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE applications a %s
		WHERE a.id = %s
		RETURNING %s
	`, sb.sql(), sb.next(id), applicationColumns)

	var app model.Application
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &app, query, sb.args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("application %d: %w", id, errdefs.ErrNotFound)
		}
		return nil, fmt.Errorf("update application: %w", err)
	}

	return &app, nil
}

// Transition меняет статус заявки, только если текущий статус равен from
func (r *ApplicationRepository) Transition(ctx context.Context, id int64, from, to model.ApplicationStatus) error {
	affected, err := r.db.ExecAffected(ctx,
		`UPDATE applications SET status = $3 WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("transition application: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("application %d is not %s: %w", id, from, errdefs.ErrConflict)
	}

	return nil
}

// ArchiveActiveByStudent закрывает все активные заявки студента
func (r *ApplicationRepository) ArchiveActiveByStudent(ctx context.Context, studentID int64) (int64, error) {
	affected, err := r.db.ExecAffected(ctx,
		`UPDATE applications SET status = $2 WHERE student_id = $1 AND status = $3`,
		studentID, model.ApplicationStatusArchived, model.ApplicationStatusActive,
	)
	if err != nil {
		return 0, fmt.Errorf("archive student applications: %w", err)
	}
	return affected, nil
}

// List возвращает ленту активных заявок для репетитора
func (r *ApplicationRepository) List(ctx context.Context, f model.ApplicationFilter) ([]model.ApplicationDetail, error) {
	var w whereBuilder
	w.add("a.status = %s", model.ApplicationStatusActive)
	w.add("NOT EXISTS (SELECT 1 FROM hidden_applications h WHERE h.application_id = a.id AND h.teacher_id = %s)", f.TeacherID)

	if len(f.Subjects) > 0 {
		w.add("s.name = ANY(%s)", f.Subjects)
	}
	if f.PriceMin != nil {
		w.add("a.price >= %s", *f.PriceMin)
	}
	if f.PriceMax != nil {
		w.add("a.price <= %s", *f.PriceMax)
	}
	// Возраст не указан - студента не отсекаем
	if f.StudentAgeMin != nil {
		w.add("(u.age IS NULL OR u.age >= %s)", *f.StudentAgeMin)
	}
	if f.StudentAgeMax != nil {
		w.add("(u.age IS NULL OR u.age <= %s)", *f.StudentAgeMax)
	}
	if len(f.LessonsCounts) > 0 {
		counts := make([]string, 0, len(f.LessonsCounts))
		for _, c := range f.LessonsCounts {
			counts = append(counts, string(c))
		}
		w.add("a.lessons_count = ANY(%s)", counts)
	}

	query := fmt.Sprintf(`
		SELECT %s, s.name AS subject_name, u.name AS student_name, u.surname AS student_surname
		FROM applications a
		JOIN subjects s ON s.id = a.subject_id
		JOIN users u ON u.id = a.student_id
		%s
		ORDER BY a.price DESC, a.created_at DESC, a.id DESC
		LIMIT %s OFFSET %s
	`, applicationColumns, w.sql(), w.arg(f.Limit), w.arg(f.Offset))

	var apps []model.ApplicationDetail
	if err := pgxscan.Select(ctx, r.db.Conn(ctx), &apps, query, w.args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	return apps, nil
}

// ListByStudent возвращает заявки студента; archived переключает активные/закрытые
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID int64, archived bool) ([]model.ApplicationDetail, error) {
	statuses := []string{string(model.ApplicationStatusActive)}
	if archived {
		statuses = []string{string(model.ApplicationStatusAccepted), string(model.ApplicationStatusArchived)}
	}

	query := `
		SELECT ` + applicationColumns + `, s.name AS subject_name, u.name AS student_name, u.surname AS student_surname
		FROM applications a
		JOIN subjects s ON s.id = a.subject_id
		JOIN users u ON u.id = a.student_id
		WHERE a.student_id = $1 AND a.status = ANY($2)
		ORDER BY a.created_at DESC, a.id DESC
	`

	var apps []model.ApplicationDetail
	if err := pgxscan.Select(ctx, r.db.Conn(ctx), &apps, query, studentID, statuses); err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}

	return apps, nil
}

// Hide скрывает заявку из ленты репетитора; повторное скрытие ничего не меняет
func (r *ApplicationRepository) Hide(ctx context.Context, teacherID, applicationID int64) error {
	_, err := r.db.ExecAffected(ctx, `
		INSERT INTO hidden_applications (teacher_id, application_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, teacherID, applicationID)
	if err != nil {
		return fmt.Errorf("hide application: %w", err)
	}
	return nil
}
