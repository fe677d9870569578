package httpx

import (
	"context"

	"github.com/viveconecta/admin-ui/internal/service"
)

type (
	deviceKey  struct{}
	sessionKey struct{}
)

// WithDevice returns a child context carrying the device id.
func WithDevice(ctx context.Context, device string) context.Context {
	if device == "" {
		return ctx
	}
	return context.WithValue(ctx, deviceKey{}, device)
}

// DeviceFromContext returns the device id set by the Device middleware.
func DeviceFromContext(ctx context.Context) (string, bool) {
	d, ok := ctx.Value(deviceKey{}).(string)
	return d, ok && d != ""
}

// WithSession returns a child context that carries the device's session manager.
// If m is nil, the original ctx is returned unchanged.
func WithSession(ctx context.Context, m *service.SessionManager) context.Context {
	if m == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, m)
}

// SessionFromContext returns the session manager and a boolean indicating presence.
func SessionFromContext(ctx context.Context) (*service.SessionManager, bool) {
	m, ok := ctx.Value(sessionKey{}).(*service.SessionManager)
	return m, ok && m != nil
}
