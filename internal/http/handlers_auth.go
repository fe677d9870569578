package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	oauthCookieLifetime = 10 * time.Minute

	// SSOErrorParam flags a failed single sign-on on the login page.
	SSOErrorParam = "sso_error"
)

// SSOService is the IdP half of single sign-on. *service.SSOService implements it.
type SSOService interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (service.SSOLogin, error)
}

// SSOHandlers provides the single sign-on endpoints.
type SSOHandlers struct {
	Svc          SSOService
	CookieDomain string
	CookieSecure bool
	ReadyWait    time.Duration
	Logger       *slog.Logger
}

func (h *SSOHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts the flow.
// GET /auth/sso/login?redirect_uri=<optional_redirect>.
func (h *SSOHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := guard.SafeRedirect(r.URL.Query().Get(guard.RedirectParam))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "sso begin failed", "error", err)
		h.fail(w, r)
		return
	}

	h.setCookie(w, r, oauthStateCookie, result.State, oauthCookieLifetime)
	h.setCookie(w, r, oauthNonceCookie, result.Nonce, oauthCookieLifetime)
	h.setCookie(w, r, postLoginCookie, redirectURI, oauthCookieLifetime)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the flow and establishes the device session.
// GET /auth/callback?code=<code>&state=<state>.
func (h *SSOHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	m, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")
	if idpErr := q.Get("error"); idpErr != "" {
		h.logger().WarnContext(r.Context(), "identity provider returned an error",
			"error", idpErr, "description", q.Get("error_description"))
		h.fail(w, r)
		return
	}
	if code == "" || state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("code and state parameters are required"),
		})
		return
	}
	if cookieValue(r, oauthStateCookie) != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonce := cookieValue(r, oauthNonceCookie)
	if nonce == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}
	redirectURI := guard.SafeRedirect(cookieValue(r, postLoginCookie))
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)
	h.clearCookie(w, r, postLoginCookie)

	login, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{Code: code, State: state, Nonce: nonce})
	if err != nil {
		h.logger().WarnContext(r.Context(), "sso exchange failed", "error", err)
		h.fail(w, r)
		return
	}
	waitReady(r.Context(), m, h.ReadyWait)
	if err := m.CompleteSSO(r.Context(), login); err != nil {
		h.logger().WarnContext(r.Context(), "sso session failed", "error", err)
		h.fail(w, r)
		return
	}
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// fail sends the browser back to the password form with an error flag.
func (h *SSOHandlers) fail(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, guard.LoginPath+"?"+url.Values{SSOErrorParam: {"1"}}.Encode(), http.StatusFound)
}

func (h *SSOHandlers) setCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.CookieSecure || isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// clearCookie mirrors the attributes used by setCookie so browsers drop it.
func (h *SSOHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.CookieSecure || isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
