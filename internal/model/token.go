package model

import "time"

type TokenType string

const (
	TokenTypeRegistration TokenType = "registration" // Привязка telegram аккаунта
	TokenTypeConfirmation TokenType = "confirmation" // Код входа
)

// TokenTTL срок жизни одноразовых токенов
const TokenTTL = 3 * time.Minute

type Token struct {
	ID        int64     `db:"id"`
	Value     string    `db:"value"` // sha256 hex
	Type      TokenType `db:"type"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	Used      bool      `db:"used"`
}
