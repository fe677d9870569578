package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/service"
)

// SessionRegistry hands out the session manager for a device.
// *service.ClientRegistry implements it.
type SessionRegistry interface {
	Get(ctx context.Context, device string) *service.SessionManager
}

// DeviceConfig configures the device cookie.
type DeviceConfig struct {
	CookieDomain string
	CookieSecure bool
	// MaxAge should outlive the longest session so a remembered login survives.
	MaxAge time.Duration
}

// Device identifies the browser with a random id kept in the vc_device cookie.
// Missing or malformed ids are replaced.
func Device(cfg DeviceConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			device := cookieValue(r, DeviceCookieName)
			if _, err := uuid.Parse(device); err != nil {
				device = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookieName,
					Value:    device,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					HttpOnly: true,
					Secure:   cfg.CookieSecure || isSecureRequest(r),
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(cfg.MaxAge.Seconds()),
				})
			}
			next.ServeHTTP(w, r.WithContext(WithDevice(r.Context(), device)))
		})
	}
}

// Sessions attaches the device's session manager to the request context.
// Device must run first.
func Sessions(reg SessionRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			device, ok := DeviceFromContext(r.Context())
			if !ok {
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: "device_missing",
					Err:     errors.New("device middleware not installed"),
				})
				return
			}
			m := reg.Get(r.Context(), device)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), m)))
		})
	}
}

// waitReady blocks until the manager finished restoring, d elapsed or ctx ended.
func waitReady(ctx context.Context, m *service.SessionManager, d time.Duration) {
	select {
	case <-m.Ready():
		return
	default:
	}
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-m.Ready():
	case <-t.C:
	case <-ctx.Done():
	}
}

// GuardConfig configures the Guard middleware.
type GuardConfig struct {
	Policy  guard.Policy
	Metrics Metrics
}

// Guard admits a request to a protected view or answers with the wait page,
// a login redirect or the access-denied page. Sessions must run first.
func (h *UIHandlers) Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, ok := SessionFromContext(r.Context())
			if !ok {
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: "session_missing",
					Err:     errors.New("session middleware not installed"),
				})
				return
			}
			waitReady(r.Context(), m, h.ReadyWait)
			m.Revalidate(r.Context())

			req := cfg.Policy.Request(r.URL.Path)
			req.Path = redirectPathForRequest(r)
			d := guard.Decide(req, m.Snapshot())
			cfg.Metrics.RecordGuardDecision(d.Outcome)

			switch d.Outcome {
			case guard.Admit:
				next.ServeHTTP(w, r)
			case guard.Wait:
				h.guardWait(w, r, req.Path)
			case guard.Redirect:
				h.guardRedirect(w, r, d)
			case guard.Deny:
				h.guardDeny(w, r, req.Path, d)
			}
		})
	}
}

func (h *UIHandlers) guardWait(w http.ResponseWriter, r *http.Request, target string) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", "1")
	switch {
	case !IsBrowserRequest(r):
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "session_loading",
			Err:     errors.New("session is loading, retry shortly"),
		})
	case IsHTMX(r):
		// A full load of the target shows the wait page, which re-polls itself.
		HTMX(w).Redirect(target)
	default:
		h.renderStandalone(w, r, http.StatusOK, PageMeta{Title: "Cargando", CurrentPage: PageWait}, waitContent{
			Target: guard.SafeRedirect(target),
		})
	}
}

func (h *UIHandlers) guardRedirect(w http.ResponseWriter, r *http.Request, d guard.Decision) {
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":    "authentication_required",
			"message":  "authentication required",
			"redirect": d.RedirectTo,
		})
		return
	}
	Navigate(w, r, d.RedirectTo)
}

func (h *UIHandlers) guardDeny(w http.ResponseWriter, r *http.Request, target string, d guard.Decision) {
	h.logger().InfoContext(r.Context(), "access denied",
		slog.String("path", r.URL.Path),
		slog.String("required_role", d.RequiredRole.String()),
		slog.String("user_role", d.UserRole.String()),
	)
	switch {
	case !IsBrowserRequest(r):
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
	case IsHTMX(r) && r.Method == http.MethodGet:
		HTMX(w).Redirect(target)
	default:
		h.renderStandalone(w, r, http.StatusForbidden, PageMeta{Title: "Acceso denegado", CurrentPage: PageDenied}, deniedContent{
			RequiredRole: d.RequiredRole.String(),
			UserRole:     d.UserRole.String(),
		})
	}
}
