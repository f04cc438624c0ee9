package httpx

import (
	"context"

	"github.com/econest/web/internal/web/domain"
)

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeySession  ctxKey = "session"
	CtxKeyRole     ctxKey = "role"
	CtxKeyDeviceID ctxKey = "device_id"
)

// WithSession injects the resolved session and role for downstream handlers.
func WithSession(ctx context.Context, s *domain.Session, role domain.Role) context.Context {
	if s != nil {
		ctx = context.WithValue(ctx, CtxKeyUserID, s.UserID)
	}
	ctx = context.WithValue(ctx, CtxKeySession, s)
	ctx = context.WithValue(ctx, CtxKeyRole, role)
	return ctx
}

func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(CtxKeySession).(*domain.Session)
	return s, ok && s != nil
}

func RoleFromContext(ctx context.Context) domain.Role {
	if r, ok := ctx.Value(CtxKeyRole).(domain.Role); ok {
		return r
	}
	return domain.RoleNone
}

func WithDeviceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxKeyDeviceID, id)
}

func DeviceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CtxKeyDeviceID).(string)
	return id
}
