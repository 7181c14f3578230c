package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/auth"
	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"go.uber.org/zap"
)

// ErrAlreadyRegistered telegram аккаунт уже привязан к пользователю
var ErrAlreadyRegistered = fmt.Errorf("telegram account already registered: %w", errdefs.ErrConflict)

const (
	registrationTokenBytes = 32
	confirmationCodeMax    = 1000000
)

// Session пара токенов после успешного входа
type Session struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

type AuthService struct {
	tx       TxManager
	users    UserRepository
	tokens   TokenRepository
	issuer   TokenIssuer
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(
	tx TxManager,
	users UserRepository,
	tokens TokenRepository,
	issuer TokenIssuer,
	notifier Notifier,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tx:       tx,
		users:    users,
		tokens:   tokens,
		issuer:   issuer,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Register создаёт пользователя с настройками по умолчанию
// и возвращает токен для привязки telegram через /start <token>
func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (*model.User, string, error) {
	if !in.Role.Valid() {
		return nil, "", invalid("unknown role %q", in.Role)
	}
	if err := validateName("surname", in.Surname); err != nil {
		return nil, "", err
	}
	if err := validateName("name", in.Name); err != nil {
		return nil, "", err
	}
	if in.Patronymic != nil {
		if err := validateName("patronymic", *in.Patronymic); err != nil {
			return nil, "", err
		}
	}

	raw, err := randomToken()
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Role:       in.Role,
		Surname:    strings.TrimSpace(in.Surname),
		Name:       strings.TrimSpace(in.Name),
		Patronymic: in.Patronymic,
		Active:     true,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.tokens.Create(ctx, &model.Token{
			Value:     hashToken(raw),
			Type:      model.TokenTypeRegistration,
			UserID:    user.ID,
			ExpiresAt: s.now().Add(model.TokenTTL),
		})
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, raw, nil
}

// IsRegistered проверяет привязан ли telegram аккаунт
func (s *AuthService) IsRegistered(ctx context.Context, telegramID int64, username string) (bool, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return false, err
	}
	if user != nil {
		return true, nil
	}
	if username == "" {
		return false, nil
	}

	user, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// LinkTelegram привязывает чат к пользователю по токену регистрации
func (s *AuthService) LinkTelegram(ctx context.Context, rawToken string, telegramID int64, username string) (*model.User, error) {
	registered, err := s.IsRegistered(ctx, telegramID, username)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, ErrAlreadyRegistered
	}

	var user *model.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		token, err := s.tokens.GetByValue(ctx, hashToken(rawToken), model.TokenTypeRegistration)
		if err != nil {
			return err
		}
		if err := s.consume(ctx, token); err != nil {
			return err
		}

		if err := s.users.LinkTelegram(ctx, token.UserID, telegramID, username); err != nil {
			return err
		}

		user, err = s.users.GetByID(ctx, token.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Telegram linked",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
	)
	return user, nil
}

// RequestLoginCode отправляет одноразовый код входа в telegram
func (s *AuthService) RequestLoginCode(ctx context.Context, username string) error {
	code, err := randomCode()
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return notFound("user %q", username)
		}
		chatID, linked := user.ChatID()
		if !linked {
			return invalid("telegram is not linked")
		}

		if err := s.tokens.Create(ctx, &model.Token{
			Value:     hashToken(code),
			Type:      model.TokenTypeConfirmation,
			UserID:    user.ID,
			ExpiresAt: s.now().Add(model.TokenTTL),
		}); err != nil {
			return err
		}

		return s.notifier.Enqueue(ctx, bus.AuthEvent{UserID: chatID, Code: code})
	})
}

// VerifyLogin проверяет код и открывает сессию
func (s *AuthService) VerifyLogin(ctx context.Context, username, code, ip string) (*Session, error) {
	session := &Session{}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return notFound("user %q", username)
		}

		token, err := s.tokens.GetForUser(ctx, user.ID, hashToken(code), model.TokenTypeConfirmation)
		if err != nil {
			return err
		}
		if err := s.consume(ctx, token); err != nil {
			return err
		}

		access, err := s.issuer.IssueAccess(user.ID, user.Role)
		if err != nil {
			return err
		}
		refresh, jti, err := s.issuer.IssueRefresh(user.ID, user.Role)
		if err != nil {
			return err
		}

		if err := s.users.SetSession(ctx, user.ID, &jti, optional(ip)); err != nil {
			return err
		}

		session.User = user
		session.AccessToken = access
		session.RefreshToken = refresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.Int64("user_id", session.User.ID))
	return session, nil
}

// Refresh выпускает новый access токен по действующему refresh токену
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ip string) (string, error) {
	claims, err := s.issuer.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	userID, err := claims.UserID()
	if err != nil {
		return "", fmt.Errorf("bad subject: %w", errdefs.ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("user %d not found: %w", userID, errdefs.ErrUnauthorized)
	}
	if user.RefreshID == nil || *user.RefreshID != claims.ID {
		return "", fmt.Errorf("refresh token revoked: %w", errdefs.ErrUnauthorized)
	}
	if user.IP != nil && *user.IP != ip {
		return "", fmt.Errorf("refresh from another address: %w", errdefs.ErrUnauthorized)
	}

	return s.issuer.IssueAccess(user.ID, user.Role)
}

// Logout забывает refresh токен пользователя
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.users.SetSession(ctx, userID, nil, nil)
}

// consume проверяет одноразовый токен и помечает его использованным
func (s *AuthService) consume(ctx context.Context, token *model.Token) error {
	if token == nil {
		return invalid("token not found")
	}
	if token.Used {
		return conflict("token already used")
	}
	if s.now().After(token.ExpiresAt) {
		return fmt.Errorf("token expired: %w", errdefs.ErrExpired)
	}

	ok, err := s.tokens.MarkUsed(ctx, token.ID)
	if err != nil {
		return err
	}
	if !ok {
		return conflict("token already used")
	}
	return nil
}

// TokenErrorReason короткое описание ошибки токена для ответа в чат
func TokenErrorReason(err error) string {
	switch {
	case errors.Is(err, errdefs.ErrExpired):
		return "срок действия ссылки истёк"
	case errors.Is(err, errdefs.ErrConflict):
		return "ссылка уже использована"
	case errors.Is(err, errdefs.ErrValidation):
		return "неверная ссылка"
	default:
		return "внутренняя ошибка"
	}
}

func randomToken() (string, error) {
	buf := make([]byte, registrationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(confirmationCodeMax))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
