package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/georgysavva/scany/v2/pgxscan"
)

type TokenRepository struct {
	db *base.Repository
}

func NewTokenRepository(db *base.Repository) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create сохраняет хеш одноразового токена
func (r *TokenRepository) Create(ctx context.Context, token *model.Token) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO tokens (value, type, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, token.Value, token.Type, token.UserID, token.ExpiresAt).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

// GetByValue ищет последний токен по хешу и типу
func (r *TokenRepository) GetByValue(ctx context.Context, value string, tokenType model.TokenType) (*model.Token, error) {
	return r.get(ctx, `
		SELECT id, value, type, user_id, expires_at, used
		FROM tokens
		WHERE value = $1 AND type = $2
		ORDER BY id DESC
		LIMIT 1
	`, value, tokenType)
}

// GetForUser ищет последний токен пользователя по хешу и типу
func (r *TokenRepository) GetForUser(ctx context.Context, userID int64, value string, tokenType model.TokenType) (*model.Token, error) {
	return r.get(ctx, `
		SELECT id, value, type, user_id, expires_at, used
		FROM tokens
		WHERE value = $1 AND type = $2 AND user_id = $3
		ORDER BY id DESC
		LIMIT 1
	`, value, tokenType, userID)
}

func (r *TokenRepository) get(ctx context.Context, query string, args ...interface{}) (*model.Token, error) {
	var token model.Token
	err := pgxscan.Get(ctx, r.db.Conn(ctx), &token, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &token, nil
}

// MarkUsed гасит токен; false - токен уже был использован
func (r *TokenRepository) MarkUsed(ctx context.Context, id int64) (bool, error) {
	affected, err := r.db.ExecAffected(ctx,
		`UPDATE tokens SET used = TRUE WHERE id = $1 AND NOT used`, id)
	if err != nil {
		return false, fmt.Errorf("mark token used: %w", err)
	}
	return affected > 0, nil
}

// DeleteByUser удаляет все токены пользователя
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecAffected(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user tokens: %w", err)
	}
	return nil
}
