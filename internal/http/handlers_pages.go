package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/http/ui/viewmodel"
	"github.com/viveconecta/admin-ui/internal/service"
)

type waitContent struct {
	Target string
}

type deniedContent struct {
	RequiredRole string
	UserRole     string
}

type notFoundContent struct {
	Path            string
	IsAuthenticated bool
}

type dashboardContent struct {
	UserName string
	service.DashboardOverview
}

type workersContent struct {
	Available  bool
	Workers    []auth.User
	Roles      []auth.Role
	Role       string
	Search     string
	Pagination viewmodel.Pagination
	Error      string
}

// DashboardPage serves GET /dashboard.
func (h *UIHandlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	content := dashboardContent{DashboardOverview: h.Dashboard.Overview()}
	if m, ok := SessionFromContext(r.Context()); ok {
		if u := m.Snapshot().User; u != nil {
			content.UserName = u.Name
		}
	}
	h.renderPage(w, r, PageMeta{PageTitle: "Dashboard", CurrentPage: PageDashboard}, content)
}

// WorkersPage serves GET /dashboard/trabajadores.
func (h *UIHandlers) WorkersPage(w http.ResponseWriter, r *http.Request) {
	meta := PageMeta{PageTitle: "Trabajadores", CurrentPage: PageWorkers}
	content := workersContent{Available: h.Workers.Available(), Roles: auth.KnownRoles}
	if !content.Available {
		h.renderPage(w, r, meta, content)
		return
	}

	q := r.URL.Query()
	content.Search = strings.TrimSpace(q.Get("q"))
	content.Role = strings.TrimSpace(q.Get("role"))
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	res, err := h.Workers.List(r.Context(), service.WorkersQuery{
		Page:     page,
		PageSize: size,
		Role:     auth.Role(content.Role),
		Search:   content.Search,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "listing workers failed", "error", err)
		content.Error = "No se pudo cargar la lista de trabajadores."
		h.renderPage(w, r, meta, content)
		return
	}

	content.Workers = res.Workers
	content.Pagination = viewmodel.NewPagination(res.Page, res.PageSize, res.Total, len(res.Workers))
	if res.HasPrev() {
		content.Pagination.PrevURL = workersPageURL(q, res.Page-1, res.PageSize)
	}
	if res.HasNext() {
		content.Pagination.NextURL = workersPageURL(q, res.Page+1, res.PageSize)
	}
	h.renderPage(w, r, meta, content)
}

// workersPageURL keeps the non-blank filters and replaces paging.
func workersPageURL(q url.Values, page, size int) string {
	out := url.Values{}
	for _, k := range []string{"q", "role"} {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			out.Set(k, v)
		}
	}
	out.Set("page", strconv.Itoa(page))
	if size != service.DefaultWorkersPageSize {
		out.Set("page_size", strconv.Itoa(size))
	}
	return "/dashboard/trabajadores?" + out.Encode()
}

// ToggleSidebar serves POST /ui/sidebar/toggle. htmx callers get the
// re-rendered sidebar; plain form posts are sent back to the page they came from.
func (h *UIHandlers) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	m, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	open, err := m.Preferences().ToggleSidebar(r.Context())
	if err != nil {
		h.logger().WarnContext(r.Context(), "toggling sidebar failed", "error", err)
		http.Error(w, "no se pudo guardar la preferencia", http.StatusServiceUnavailable)
		return
	}

	if !IsHTMX(r) {
		http.Redirect(w, r, guard.SafeRedirect(relativeFromURL(r.Header.Get("Referer"))), http.StatusSeeOther)
		return
	}

	currentURL, _ := url.Parse(redirectPathForRequest(r))
	path := "/"
	if currentURL != nil {
		path = currentURL.Path
	}
	snap := m.Snapshot()
	data := &pageData{Layout: viewmodel.Layout{
		CurrentPath:     path,
		CSRFToken:       GetCSRFToken(r),
		IsAuthenticated: snap.Authenticated,
		User:            userView(snap.User),
		Sidebar:         viewmodel.NewSidebar(h.Catalog, snap.Role(), path, open),
	}}
	SetHXTrigger(w, "sidebar:toggled", map[string]bool{"open": open})
	if err := h.T.RenderFragment(w, "app-shell-sidebar", data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "sidebar toggle")
	}
}

// NotFound handles unmatched paths: HTML for browsers, JSON otherwise.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("not found")})
		return
	}
	authed := false
	if m, ok := SessionFromContext(r.Context()); ok {
		authed = m.Snapshot().Authenticated
	}
	h.renderStandalone(w, r, http.StatusNotFound, PageMeta{Title: "Página no encontrada", CurrentPage: PageNotFound}, notFoundContent{
		Path:            r.URL.Path,
		IsAuthenticated: authed,
	})
}
