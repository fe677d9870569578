package httpx

import (
	"errors"
	"net/http"
	"regexp"
	"unicode/utf8"

	"github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/service"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// loginContent feeds pages/login.tmpl.
type loginContent struct {
	Email       string
	Remember    bool
	RedirectURI string
	FieldErrors map[string]string
	FormError   string
	Demo        *DemoCredentials
	SSOEnabled  bool
}

func (c loginContent) Invalid(field string) bool {
	_, ok := c.FieldErrors[field]
	return ok
}

type loginForm struct {
	Email       string
	Password    string
	Remember    bool
	RedirectURI string
}

// validate returns field errors keyed by input name.
func (f loginForm) validate() map[string]string {
	errs := map[string]string{}
	switch {
	case f.Email == "":
		errs["email"] = "El correo es obligatorio"
	case !emailPattern.MatchString(f.Email):
		errs["email"] = "Correo electrónico inválido"
	}
	switch {
	case f.Password == "":
		errs["password"] = "La contraseña es obligatoria"
	case utf8.RuneCountInString(f.Password) < minPasswordLength:
		errs["password"] = "La contraseña debe tener al menos 6 caracteres"
	}
	return errs
}

func parseLoginForm(r *http.Request) loginForm {
	remember := r.PostFormValue("remember_me")
	return loginForm{
		Email:       r.PostFormValue("email"),
		Password:    r.PostFormValue("password"),
		Remember:    remember == "on" || remember == "true" || remember == "1",
		RedirectURI: r.PostFormValue(guard.RedirectParam),
	}
}

func (h *UIHandlers) loginContent(redirect string) loginContent {
	c := loginContent{
		RedirectURI: guard.SafeRedirect(redirect),
		Demo:        h.Demo,
		SSOEnabled:  h.SSOEnabled,
	}
	if h.Demo != nil {
		c.Email = h.Demo.Email
	}
	return c
}

func (h *UIHandlers) renderLogin(w http.ResponseWriter, r *http.Request, status int, c loginContent) {
	h.renderStandalone(w, r, status, PageMeta{Title: "Iniciar Sesión", CurrentPage: PageLogin}, c)
}

// LoginPage serves GET / and GET /login.
func (h *UIHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get(guard.RedirectParam)
	m, ok := SessionFromContext(r.Context())
	if ok {
		waitReady(r.Context(), m, h.ReadyWait)
		snap := m.Snapshot()
		if snap.Loading {
			w.Header().Set("Cache-Control", "no-store")
			h.renderStandalone(w, r, http.StatusOK, PageMeta{Title: "Cargando", CurrentPage: PageWait}, waitContent{
				Target: r.URL.RequestURI(),
			})
			return
		}
		if snap.Authenticated {
			Navigate(w, r, guard.SafeRedirect(redirect))
			return
		}
	}
	c := h.loginContent(redirect)
	if r.URL.Query().Has(SSOErrorParam) {
		c.FormError = "No se pudo completar el inicio de sesión único. Inténtalo de nuevo."
	}
	h.renderLogin(w, r, http.StatusOK, c)
}

// LoginSubmit serves POST /login.
func (h *UIHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	m, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := parseLoginForm(r)

	content := h.loginContent(form.RedirectURI)
	content.Email = form.Email
	content.Remember = form.Remember

	if errs := form.validate(); len(errs) > 0 {
		content.FieldErrors = errs
		h.renderLogin(w, r, http.StatusUnprocessableEntity, content)
		return
	}

	waitReady(r.Context(), m, h.ReadyWait)
	_, err := m.Login(r.Context(), service.LoginInput{
		Email:    form.Email,
		Password: form.Password,
		Remember: form.Remember,
	})
	switch {
	case err == nil:
		Navigate(w, r, guard.SafeRedirect(form.RedirectURI))
	case errors.Is(err, auth.ErrInvalidCredentials):
		content.FormError = "Credenciales inválidas. Inténtalo de nuevo."
		content.FieldErrors = map[string]string{"email": "", "password": "Correo o contraseña incorrectos"}
		h.renderLogin(w, r, http.StatusUnauthorized, content)
	case errors.Is(err, auth.ErrLoginInProgress), errors.Is(err, auth.ErrInvalidTransition):
		content.FormError = "Ya hay un inicio de sesión en curso. Espera un momento."
		h.renderLogin(w, r, http.StatusConflict, content)
	default:
		h.logger().ErrorContext(r.Context(), "login failed", "error", err)
		content.FormError = "No se pudo iniciar sesión. Inténtalo más tarde."
		h.renderLogin(w, r, http.StatusInternalServerError, content)
	}
}

// Logout serves POST /logout.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if m, ok := SessionFromContext(r.Context()); ok {
		m.Logout(r.Context())
	}
	Navigate(w, r, guard.LoginPath)
}
