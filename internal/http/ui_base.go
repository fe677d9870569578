package httpx

import (
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/domain/navigation"
	"github.com/viveconecta/admin-ui/internal/http/templates/core"
	"github.com/viveconecta/admin-ui/internal/http/ui/viewmodel"
	"github.com/viveconecta/admin-ui/internal/service"
)

// UIHandlers serves the HTML views.
type UIHandlers struct {
	T         *TemplateRenderer
	Catalog   navigation.Catalog
	Dashboard *service.DashboardService
	Workers   *service.WorkersService
	// SSOEnabled shows the single sign-on button on the login page.
	SSOEnabled bool
	// Demo, when set, is shown as a hint on the login page.
	Demo *DemoCredentials
	// ReadyWait bounds how long a request waits for a restoring session
	// before the wait page is served instead.
	ReadyWait time.Duration
	IsDev     bool
	Logger    *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// DemoCredentials is the demo account advertised on the login page.
type DemoCredentials struct {
	Email    string
	Password string
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// pageData is what every template receives.
type pageData struct {
	viewmodel.Layout
	Content any
}

// viewportWidth reads the client-reported width in CSS pixels; 0 when unknown.
func viewportWidth(r *http.Request) int {
	for _, name := range []string{"Sec-Ch-Viewport-Width", "Viewport-Width", "X-Viewport-Width"} {
		v := strings.TrimSpace(r.Header.Get(name))
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return int(f)
		}
	}
	return 0
}

func fromSidebar(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(NavSourceHeader), NavSourceSidebar)
}

func userView(u *auth.User) *viewmodel.User {
	if u == nil {
		return nil
	}
	return &viewmodel.User{
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role.String(),
		Initial: core.Initial(u.Name),
	}
}

// sidebarOpen reads the preference and applies the narrow-viewport rule for
// navigations that came from a sidebar entry.
func (h *UIHandlers) sidebarOpen(r *http.Request, m *service.SessionManager) bool {
	prefs := m.Preferences()
	open, err := prefs.SidebarOpen(r.Context())
	if err != nil {
		h.logger().WarnContext(r.Context(), "reading sidebar preference failed", "error", err)
	}
	if !fromSidebar(r) {
		return open
	}
	next := navigation.NextSidebarOpen(open, viewportWidth(r))
	if next != open {
		if err := prefs.SetSidebarOpen(r.Context(), next); err != nil {
			h.logger().WarnContext(r.Context(), "persisting sidebar preference failed", "error", err)
		}
	}
	return next
}

// buildLayout constructs shared layout metadata from the request and its session.
func (h *UIHandlers) buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CurrentPath: r.URL.Path,
		CSRFToken:   GetCSRFToken(r),
		Sidebar:     viewmodel.Sidebar{Open: true},
	}
	if entry, ok := h.Catalog.Lookup(r.URL.Path); ok {
		layout.PageTitle = entry.Name
	}
	if layout.Title == "" {
		layout.Title = layout.PageTitle
	}
	layout.Title = documentTitle(layout.Title)

	m, ok := SessionFromContext(r.Context())
	if !ok {
		return layout
	}
	snap := m.Snapshot()
	if snap.Authenticated {
		layout.IsAuthenticated = true
		layout.User = userView(snap.User)
		layout.Sidebar = viewmodel.NewSidebar(h.Catalog, snap.Role(), r.URL.Path, h.sidebarOpen(r, m))
	}
	return layout
}

func documentTitle(title string) string {
	if title == "" || title == AppTitle {
		return AppTitle
	}
	return title + " - " + AppTitle
}

// renderPage renders an application page: the full chrome for normal requests
// or the content swap for htmx navigations.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, meta PageMeta, content any) {
	data := &pageData{Layout: h.buildLayout(r, meta), Content: content}
	w.Header().Add("Vary", "Hx-Request")

	var err error
	if WantsPartial(r) {
		SetHXPushURL(w, r.URL.RequestURI())
		err = h.T.RenderPartial(w, http.StatusOK, data)
	} else {
		err = h.T.RenderFull(w, http.StatusOK, data)
	}
	if err != nil {
		h.logAndRenderTemplateError(w, r, err, meta.CurrentPage)
	}
}

// renderStandalone renders a page outside the application chrome.
func (h *UIHandlers) renderStandalone(w http.ResponseWriter, r *http.Request, status int, meta PageMeta, content any) {
	layout := viewmodel.Layout{
		Title:       documentTitle(meta.Title),
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CurrentPath: r.URL.Path,
		CSRFToken:   GetCSRFToken(r),
	}
	if m, ok := SessionFromContext(r.Context()); ok {
		if snap := m.Snapshot(); snap.Authenticated {
			layout.IsAuthenticated = true
			layout.User = userView(snap.User)
		}
	}
	data := &pageData{Layout: layout, Content: content}
	var err error
	switch meta.CurrentPage {
	case PageDenied, PageNotFound:
		err = h.T.RenderError(w, status, data)
	default:
		err = h.T.RenderStandalone(w, status, data)
	}
	if err != nil {
		h.logAndRenderTemplateError(w, r, err, meta.CurrentPage)
	}
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().ErrorContext(r.Context(), "template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if !h.IsDev {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`<div style="padding:20px;background:#fee;border:2px solid #c33;margin:20px;font-family:monospace">` +
		`<h2 style="color:#c33;margin-top:0">Template Rendering Error</h2>` +
		`<p><strong>Context:</strong> ` + html.EscapeString(context) + `</p>` +
		`<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>` +
		`<pre>` + html.EscapeString(err.Error()) + `</pre></div>`))
}
