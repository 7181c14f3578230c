package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	Role model.Role `json:"role"`
	Type string     `json:"typ"`
	jwt.RegisteredClaims
}

// UserID извлекает идентификатор пользователя из sub
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Issuer выпускает и проверяет HS256 токены
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccess выпускает короткоживущий access токен
func (i *Issuer) IssueAccess(userID int64, role model.Role) (string, error) {
	token, _, err := i.issue(userID, role, TokenTypeAccess, i.accessTTL)
	return token, err
}

// IssueRefresh выпускает refresh токен и возвращает его jti
func (i *Issuer) IssueRefresh(userID int64, role model.Role) (string, string, error) {
	return i.issue(userID, role, TokenTypeRefresh, i.refreshTTL)
}

func (i *Issuer) issue(userID int64, role model.Role, tokenType string, ttl time.Duration) (string, string, error) {
	now := i.now()
	jti := uuid.NewString()

	claims := Claims{
		Role: role,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, jti, nil
}

// Parse проверяет подпись, срок и тип токена
func (i *Issuer) Parse(raw, tokenType string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s token expired: %w", tokenType, errdefs.ErrUnauthorized)
		}
		return nil, fmt.Errorf("parse %s token: %v: %w", tokenType, err, errdefs.ErrUnauthorized)
	}

	if claims.Type != tokenType {
		return nil, fmt.Errorf("unexpected token type %q: %w", claims.Type, errdefs.ErrUnauthorized)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", claims.Role, errdefs.ErrUnauthorized)
	}

	return &claims, nil
}

// Principal проверяет access токен и возвращает пользователя
func (i *Issuer) Principal(raw string) (Principal, error) {
	claims, err := i.Parse(raw, TokenTypeAccess)
	if err != nil {
		return Principal{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return Principal{}, fmt.Errorf("bad subject: %w", errdefs.ErrUnauthorized)
	}

	return Principal{UserID: userID, Role: claims.Role}, nil
}
