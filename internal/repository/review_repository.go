package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const reviewColumns = `r.id, r.student_id, r.teacher_id, r.rating, r.text, r.is_published, r.resolved_at, r.created_at`

type ReviewRepository struct {
	db *base.Repository
}

func NewReviewRepository(db *base.Repository) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет неопубликованный отзыв
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (student_id, teacher_id, rating, text, is_published)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		review.StudentID,
		review.TeacherID,
		review.Rating,
		review.Text,
		review.IsPublished,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("review already exists: %w", errdefs.ErrConflict)
		}
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

// GetByID получает отзыв по ID
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews r WHERE r.id = $1`

	var review model.Review
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &review, query, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return &review, nil
}

// Exists проверяет наличие отзыва студента о репетиторе
func (r *ReviewRepository) Exists(ctx context.Context, studentID, teacherID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE student_id = $1 AND teacher_id = $2)`,
		studentID, teacherID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return exists, nil
}

// Resolve фиксирует решение модерации; false - решение уже было принято раньше
func (r *ReviewRepository) Resolve(ctx context.Context, id int64, publish bool) (bool, error) {
	affected, err := r.db.ExecAffected(ctx, `
		UPDATE reviews SET is_published = $2, resolved_at = NOW()
		WHERE id = $1 AND resolved_at IS NULL
	`, id, publish)
	if err != nil {
		return false, fmt.Errorf("resolve review: %w", err)
	}
	return affected > 0, nil
}

// ListPublishedByTeacher опубликованные отзывы о репетиторе
func (r *ReviewRepository) ListPublishedByTeacher(ctx context.Context, teacherID int64) ([]model.ReviewView, error) {
	return r.listPublished(ctx, "r.teacher_id", teacherID)
}

// ListPublishedByStudent опубликованные отзывы, оставленные студентом
func (r *ReviewRepository) ListPublishedByStudent(ctx context.Context, studentID int64) ([]model.ReviewView, error) {
	return r.listPublished(ctx, "r.student_id", studentID)
}

func (r *ReviewRepository) listPublished(ctx context.Context, column string, id int64) ([]model.ReviewView, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			st.name AS student_name, st.surname AS student_surname,
			te.name AS teacher_name, te.surname AS teacher_surname
		FROM reviews r
		JOIN users st ON st.id = r.student_id
		JOIN users te ON te.id = r.teacher_id
		WHERE %s = $1 AND r.is_published
		ORDER BY r.created_at DESC
	`, reviewColumns, column)

	var reviews []model.ReviewView
	if err := pgxscan.Select(ctx, r.db.Conn(ctx), &reviews, query, id); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
