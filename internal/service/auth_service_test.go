package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/auth"
	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type authFixture struct {
	users    *MockUserRepo
	tokens   *MockTokenRepo
	issuer   *MockIssuer
	notifier *MockNotifier
	svc      *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:    new(MockUserRepo),
		tokens:   new(MockTokenRepo),
		issuer:   new(MockIssuer),
		notifier: new(MockNotifier),
	}
	f.svc = NewAuthService(passTx{}, f.users, f.tokens, f.issuer, f.notifier, zap.NewNop())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func linkedUser() *model.User {
	return &model.User{
		ID:               1,
		Role:             model.RoleStudent,
		TelegramID:       ptr(int64(100)),
		TelegramUsername: ptr("anna"),
	}
}

// ── Register ───────────────────────────────────────────────────

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("Create", ctx, mock.AnythingOfType("*model.User")).
			Run(func(args mock.Arguments) { args.Get(1).(*model.User).ID = 1 }).
			Return(nil)

		var stored *model.Token
		f.tokens.On("Create", ctx, mock.AnythingOfType("*model.Token")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*model.Token) }).
			Return(nil)

		user, raw, err := f.svc.Register(ctx, model.RegisterInput{Role: model.RoleTeacher, Surname: "Иванов", Name: "Пётр"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.NotEmpty(t, raw)
		require.NotNil(t, stored)
		assert.Equal(t, hashToken(raw), stored.Value)
		assert.NotEqual(t, raw, stored.Value)
		assert.Equal(t, model.TokenTypeRegistration, stored.Type)
		assert.Equal(t, fixedNow.Add(model.TokenTTL), stored.ExpiresAt)
	})

	t.Run("Unknown role", func(t *testing.T) {
		f := newAuthFixture()

		_, _, err := f.svc.Register(ctx, model.RegisterInput{Role: "admin", Surname: "a", Name: "b"})

		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})
}

// ── LinkTelegram ───────────────────────────────────────────────

func TestAuthService_LinkTelegram(t *testing.T) {
	ctx := context.Background()
	raw := "token"

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByTelegramID", ctx, int64(100)).Return(nil, nil)
		f.users.On("GetByUsername", ctx, "anna").Return(nil, nil)
		f.tokens.On("GetByValue", ctx, hashToken(raw), model.TokenTypeRegistration).Return(&model.Token{
			ID: 3, UserID: 1, ExpiresAt: fixedNow.Add(time.Minute),
		}, nil)
		f.tokens.On("MarkUsed", ctx, int64(3)).Return(true, nil)
		f.users.On("LinkTelegram", ctx, int64(1), int64(100), "anna").Return(nil)
		f.users.On("GetByID", ctx, int64(1)).Return(linkedUser(), nil)

		user, err := f.svc.LinkTelegram(ctx, raw, 100, "anna")

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		f.users.AssertExpectations(t)
	})

	t.Run("Already registered", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByTelegramID", ctx, int64(100)).Return(linkedUser(), nil)

		_, err := f.svc.LinkTelegram(ctx, raw, 100, "anna")

		assert.ErrorIs(t, err, ErrAlreadyRegistered)
		assert.ErrorIs(t, err, errdefs.ErrConflict)
	})

	tokenCases := []struct {
		name  string
		token *model.Token
		want  error
	}{
		{"Unknown", nil, errdefs.ErrValidation},
		{"Used", &model.Token{ID: 3, Used: true, ExpiresAt: fixedNow.Add(time.Minute)}, errdefs.ErrConflict},
		{"Expired", &model.Token{ID: 3, ExpiresAt: fixedNow.Add(-time.Second)}, errdefs.ErrExpired},
	}
	for _, tc := range tokenCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture()
			f.users.On("GetByTelegramID", ctx, int64(100)).Return(nil, nil)
			f.users.On("GetByUsername", ctx, "anna").Return(nil, nil)
			if tc.token == nil {
				f.tokens.On("GetByValue", ctx, hashToken(raw), model.TokenTypeRegistration).Return(nil, nil)
			} else {
				f.tokens.On("GetByValue", ctx, hashToken(raw), model.TokenTypeRegistration).Return(tc.token, nil)
			}

			_, err := f.svc.LinkTelegram(ctx, raw, 100, "anna")

			assert.ErrorIs(t, err, tc.want)
			f.users.AssertNotCalled(t, "LinkTelegram", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTokenErrorReason(t *testing.T) {
	assert.Equal(t, "срок действия ссылки истёк", TokenErrorReason(errdefs.ErrExpired))
	assert.Equal(t, "ссылка уже использована", TokenErrorReason(errdefs.ErrConflict))
	assert.Equal(t, "неверная ссылка", TokenErrorReason(errdefs.ErrValidation))
	assert.Equal(t, "внутренняя ошибка", TokenErrorReason(assert.AnError))
}

// ── Login ──────────────────────────────────────────────────────

func TestAuthService_RequestLoginCode(t *testing.T) {
	ctx := context.Background()

	t.Run("Code sent to chat", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByUsername", ctx, "anna").Return(linkedUser(), nil)

		var stored *model.Token
		f.tokens.On("Create", ctx, mock.AnythingOfType("*model.Token")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*model.Token) }).
			Return(nil)

		var sent bus.AuthEvent
		f.notifier.On("Enqueue", ctx, mock.AnythingOfType("bus.AuthEvent")).
			Run(func(args mock.Arguments) { sent = args.Get(1).(bus.AuthEvent) }).
			Return(nil)

		require.NoError(t, f.svc.RequestLoginCode(ctx, "anna"))
		assert.Equal(t, int64(100), sent.UserID)
		assert.Len(t, sent.Code, 6)
		assert.Equal(t, hashToken(sent.Code), stored.Value)
		assert.Equal(t, model.TokenTypeConfirmation, stored.Type)
	})

	t.Run("Unknown user", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByUsername", ctx, "ghost").Return(nil, nil)

		assert.ErrorIs(t, f.svc.RequestLoginCode(ctx, "ghost"), errdefs.ErrNotFound)
	})

	t.Run("Chat not linked", func(t *testing.T) {
		f := newAuthFixture()
		user := linkedUser()
		user.TelegramID = nil
		f.users.On("GetByUsername", ctx, "anna").Return(user, nil)

		assert.ErrorIs(t, f.svc.RequestLoginCode(ctx, "anna"), errdefs.ErrValidation)
	})
}

func TestAuthService_VerifyLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByUsername", ctx, "anna").Return(linkedUser(), nil)
		f.tokens.On("GetForUser", ctx, int64(1), hashToken("123456"), model.TokenTypeConfirmation).Return(&model.Token{
			ID: 4, UserID: 1, ExpiresAt: fixedNow.Add(time.Minute),
		}, nil)
		f.tokens.On("MarkUsed", ctx, int64(4)).Return(true, nil)
		f.issuer.On("IssueAccess", int64(1), model.RoleStudent).Return("access", nil)
		f.issuer.On("IssueRefresh", int64(1), model.RoleStudent).Return("refresh", "jti-1", nil)
		f.users.On("SetSession", ctx, int64(1), ptr("jti-1"), ptr("10.0.0.1")).Return(nil)

		session, err := f.svc.VerifyLogin(ctx, "anna", "123456", "10.0.0.1")

		require.NoError(t, err)
		assert.Equal(t, "access", session.AccessToken)
		assert.Equal(t, "refresh", session.RefreshToken)
		f.users.AssertExpectations(t)
	})

	t.Run("Concurrent use", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByUsername", ctx, "anna").Return(linkedUser(), nil)
		f.tokens.On("GetForUser", ctx, int64(1), hashToken("123456"), model.TokenTypeConfirmation).Return(&model.Token{
			ID: 4, UserID: 1, ExpiresAt: fixedNow.Add(time.Minute),
		}, nil)
		f.tokens.On("MarkUsed", ctx, int64(4)).Return(false, nil)

		_, err := f.svc.VerifyLogin(ctx, "anna", "123456", "")

		assert.ErrorIs(t, err, errdefs.ErrConflict)
		f.issuer.AssertNotCalled(t, "IssueAccess", mock.Anything, mock.Anything)
	})
}

// ── Refresh / Logout ───────────────────────────────────────────

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	claims := &auth.Claims{
		Role:             model.RoleStudent,
		Type:             auth.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1", Subject: "1"},
	}

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture()
		user := linkedUser()
		user.RefreshID = ptr("jti-1")
		user.IP = ptr("10.0.0.1")
		f.issuer.On("Parse", "refresh", auth.TokenTypeRefresh).Return(claims, nil)
		f.users.On("GetByID", ctx, int64(1)).Return(user, nil)
		f.issuer.On("IssueAccess", int64(1), model.RoleStudent).Return("access-2", nil)

		access, err := f.svc.Refresh(ctx, "refresh", "10.0.0.1")

		require.NoError(t, err)
		assert.Equal(t, "access-2", access)
	})

	t.Run("Revoked", func(t *testing.T) {
		f := newAuthFixture()
		user := linkedUser()
		user.RefreshID = ptr("jti-0")
		f.issuer.On("Parse", "refresh", auth.TokenTypeRefresh).Return(claims, nil)
		f.users.On("GetByID", ctx, int64(1)).Return(user, nil)

		_, err := f.svc.Refresh(ctx, "refresh", "10.0.0.1")

		assert.ErrorIs(t, err, errdefs.ErrUnauthorized)
	})

	t.Run("Another address", func(t *testing.T) {
		f := newAuthFixture()
		user := linkedUser()
		user.RefreshID = ptr("jti-1")
		user.IP = ptr("10.0.0.1")
		f.issuer.On("Parse", "refresh", auth.TokenTypeRefresh).Return(claims, nil)
		f.users.On("GetByID", ctx, int64(1)).Return(user, nil)

		_, err := f.svc.Refresh(ctx, "refresh", "10.0.0.2")

		assert.ErrorIs(t, err, errdefs.ErrUnauthorized)
	})
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture()
	f.users.On("SetSession", mock.Anything, int64(1), (*string)(nil), (*string)(nil)).Return(nil)

	require.NoError(t, f.svc.Logout(context.Background(), 1))
	f.users.AssertExpectations(t)
}
