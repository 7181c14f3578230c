package auth

import (
	"context"

	"github.com/Freeeeeet/learnifyr/internal/model"
)

// Principal аутентифицированный пользователь; роль определяется один раз при входе
type Principal struct {
	UserID int64
	Role   model.Role
}

func (p Principal) IsStudent() bool { return p.Role == model.RoleStudent }
func (p Principal) IsTeacher() bool { return p.Role == model.RoleTeacher }

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
