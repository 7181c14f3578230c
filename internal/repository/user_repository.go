package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const userColumns = `u.id, u.role, u.telegram_id, u.telegram_username, u.surname, u.name, u.patronymic,
	u.age, u.bio, u.refresh_id, u.ip, u.active, u.is_deleted, u.created_at`

type UserRepository struct {
	db *base.Repository
}

func NewUserRepository(db *base.Repository) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт пользователя вместе с настройками его роли
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (role, surname, name, patronymic)
		VALUES ($1, $2, $3, $4)
		RETURNING id, active, created_at
	`

	err := r.db.QueryRow(ctx, query, user.Role, user.Surname, user.Name, user.Patronymic).
		Scan(&user.ID, &user.Active, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	settings := `INSERT INTO students (user_id) VALUES ($1)`
	if user.Role == model.RoleTeacher {
		settings = `INSERT INTO teachers (user_id) VALUES ($1)`
	}
	if _, err := r.db.ExecAffected(ctx, settings, user.ID); err != nil {
		return fmt.Errorf("create %s settings: %w", user.Role, err)
	}

	return nil
}

func (r *UserRepository) getBy(ctx context.Context, column string, value interface{}) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE %s = $1 AND NOT u.is_deleted`, userColumns, column)

	var user model.User
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &user, query, value)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}

	return &user, nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getBy(ctx, "u.id", id)
}

// GetByUsername получает пользователя по telegram username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "u.telegram_username", username)
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return r.getBy(ctx, "u.telegram_id", telegramID)
}

// LinkTelegram привязывает telegram аккаунт к пользователю.
// Пустой username хранится как NULL.
func (r *UserRepository) LinkTelegram(ctx context.Context, userID, telegramID int64, username string) error {
	affected, err := r.db.ExecAffected(ctx, `
		UPDATE users SET telegram_id = $2, telegram_username = NULLIF($3, '')
		WHERE id = $1 AND NOT is_deleted
	`, userID, telegramID, username)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("telegram account already linked: %w", errdefs.ErrConflict)
		}
		return fmt.Errorf("link telegram: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("user %d: %w", userID, errdefs.ErrNotFound)
	}

	return nil
}

// SetSession сохраняет jti refresh токена и IP клиента; nil сбрасывает сессию
func (r *UserRepository) SetSession(ctx context.Context, userID int64, refreshID, ip *string) error {
	_, err := r.db.ExecAffected(ctx,
		`UPDATE users SET refresh_id = $2, ip = $3 WHERE id = $1`,
		userID, refreshID, ip,
	)
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// UpdateProfile обновляет только переданные поля профиля
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, in model.UpdateProfileInput) error {
	var sb setBuilder
	if in.Surname != nil {
		sb.set("surname", *in.Surname)
	}
	if in.Name != nil {
		sb.set("name", *in.Name)
	}
	if in.Patronymic != nil {
		sb.set("patronymic", *in.Patronymic)
	}
	if in.Age != nil {
		sb.set("age", *in.Age)
	}
	if in.Bio != nil {
		sb.set("bio", *in.Bio)
	}
	if sb.empty() {
		return nil
	}

	query := fmt.Sprintf(`UPDATE users %s WHERE id = %s AND NOT is_deleted`, sb.sql(), sb.next(userID))
	affected, err := r.db.ExecAffected(ctx, query, sb.args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", userID, errdefs.ErrNotFound)
	}
	return nil
}

// SetActive включает или выключает видимость пользователя
func (r *UserRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	affected, err := r.db.ExecAffected(ctx,
		`UPDATE users SET active = $2 WHERE id = $1 AND NOT is_deleted`, userID, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", userID, errdefs.ErrNotFound)
	}
	return nil
}

// SoftDelete помечает пользователя удалённым и отвязывает telegram
func (r *UserRepository) SoftDelete(ctx context.Context, userID int64) error {
	affected, err := r.db.ExecAffected(ctx, `
		UPDATE users
		SET is_deleted = TRUE, active = FALSE, telegram_id = NULL, telegram_username = NULL, refresh_id = NULL
		WHERE id = $1 AND NOT is_deleted
	`, userID)
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", userID, errdefs.ErrNotFound)
	}
	return nil
}
