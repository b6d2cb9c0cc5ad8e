package auth

import (
	"context"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/google/uuid"
)

// Caller аутентифицированный вызывающий. Identity и роль приходят от внешнего
// identity-провайдера и считаются достоверными — ядро им доверяет и никогда
// не берёт роль из тела запроса.
type Caller struct {
	ID   uuid.UUID
	Role model.Role
}

func (c Caller) IsStudent() bool { return c.Role == model.RoleStudent }
func (c Caller) IsTeacher() bool { return c.Role == model.RoleTeacher }
func (c Caller) IsAdmin() bool   { return c.Role == model.RoleAdmin }

type callerKey struct{}

var callerKeyInstance = callerKey{}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKeyInstance, caller)
}

func GetCaller(ctx context.Context) (Caller, bool) {
	v := ctx.Value(callerKeyInstance)
	caller, ok := v.(Caller)
	return caller, ok
}
