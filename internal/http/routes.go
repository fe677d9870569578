package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	viveconecta "github.com/viveconecta/admin-ui"
	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/domain/navigation"
	httpassets "github.com/viveconecta/admin-ui/internal/http/assets"
	"github.com/viveconecta/admin-ui/internal/service"
)

// RouterDeps holds everything the HTTP router needs.
type RouterDeps struct {
	Registry  SessionRegistry
	Catalog   navigation.Catalog
	Policy    guard.Policy
	Dashboard *service.DashboardService
	Workers   *service.WorkersService
	// SSO is nil when single sign-on is disabled.
	SSO  SSOService
	Demo *DemoCredentials

	Device      DeviceConfig
	CSRF        CSRFConfig
	Compression *CompressionConfig // nil disables gzip
	ReadyWait   time.Duration

	Metrics Metrics
	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
	Readiness      map[string]ReadinessCheck

	// TemplateFS and StaticFS override the embedded or on-disk assets.
	TemplateFS fs.FS
	StaticFS   fs.FS

	IsDev  bool // templates and static files from disk, reparsed per request
	Logger *slog.Logger
}

// NewRouter creates and configures the HTTP router with its middleware chain.
func NewRouter(deps RouterDeps) (http.Handler, error) {
	if deps.Registry == nil {
		return nil, errors.New("router: Registry is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}

	templateFS, staticFS, err := resolveAssetFS(deps)
	if err != nil {
		return nil, err
	}
	ui, err := setupUIHandlers(deps, templateFS, staticFS)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			markRoute(r)
			h.ServeHTTP(w, r)
		}))
	}

	public := chain(Device(deps.Device), Sessions(deps.Registry))
	protected := chain(public, ui.Guard(GuardConfig{Policy: deps.Policy, Metrics: deps.Metrics}))

	handle("GET /healthz", http.HandlerFunc(healthHandler))
	handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	handle("GET /readyz", readyHandler(deps.Readiness))
	if deps.MetricsHandler != nil {
		handle("GET /metrics", deps.MetricsHandler)
	}
	handle("GET /static/", staticHandler(staticFS, deps.IsDev))

	registerAuthRoutes(handle, ui, public)
	registerPageRoutes(handle, ui, public, protected)
	registerSessionRoutes(handle, &SessionAPI{UI: ui}, public)
	if deps.SSO != nil {
		sso := &SSOHandlers{
			Svc:          deps.SSO,
			CookieDomain: deps.Device.CookieDomain,
			CookieSecure: deps.Device.CookieSecure,
			ReadyWait:    deps.ReadyWait,
			Logger:       deps.Logger,
		}
		handle("GET /auth/sso/login", http.HandlerFunc(sso.Login))
		handle("GET /auth/callback", public(http.HandlerFunc(sso.Callback)))
	}

	// Everything else is the 404 page.
	handle("/", public(http.HandlerFunc(ui.NotFound)))

	csrf := deps.CSRF
	if csrf.CookieDomain == "" {
		csrf.CookieDomain = deps.Device.CookieDomain
	}
	csrf.CookieSecure = csrf.CookieSecure || deps.Device.CookieSecure

	var handler http.Handler = mux
	handler = CSRFProtection(csrf)(handler)
	handler = BrowserDetection()(handler)
	if deps.Compression != nil {
		cc := *deps.Compression
		if cc.Logger == nil {
			cc.Logger = deps.Logger
		}
		handler = Compression(cc)(handler)
	}
	handler = Logging(deps.Logger, deps.Metrics)(handler)
	handler = Recover(deps.Logger)(handler)
	return handler, nil
}

type handleFunc func(pattern string, h http.Handler)

func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

func registerAuthRoutes(handle handleFunc, h *UIHandlers, public func(http.Handler) http.Handler) {
	handle("GET /{$}", public(http.HandlerFunc(h.LoginPage)))
	handle("GET /login", public(http.HandlerFunc(h.LoginPage)))
	handle("POST /login", public(http.HandlerFunc(h.LoginSubmit)))
	handle("POST /logout", public(http.HandlerFunc(h.Logout)))
}

// registerPageRoutes mounts the guarded views.
func registerPageRoutes(handle handleFunc, h *UIHandlers, public, protected func(http.Handler) http.Handler) {
	handle("GET /dashboard", protected(http.HandlerFunc(h.DashboardPage)))
	handle("GET /dashboard/trabajadores", protected(http.HandlerFunc(h.WorkersPage)))
	handle("POST /ui/sidebar/toggle", public(http.HandlerFunc(h.ToggleSidebar)))
}

func registerSessionRoutes(handle handleFunc, a *SessionAPI, public func(http.Handler) http.Handler) {
	handle("GET /api/session", public(http.HandlerFunc(a.Get)))
	handle("POST /api/session/refresh", public(http.HandlerFunc(a.Refresh)))
	handle("PUT /api/preferences/sidebar", public(http.HandlerFunc(a.PutSidebar)))
}

// resolveAssetFS picks template and static filesystems.
// Dev mode reads from disk for hot reloading; production uses the embedded copies.
func resolveAssetFS(deps RouterDeps) (fs.FS, fs.FS, error) {
	templateFS, staticFS := deps.TemplateFS, deps.StaticFS
	if deps.IsDev {
		if templateFS == nil {
			templateFS = os.DirFS(TemplatePathFromRoot)
		}
		if staticFS == nil {
			staticFS = os.DirFS(StaticPathFromRoot)
		}
		return templateFS, staticFS, nil
	}
	var err error
	if templateFS == nil {
		if templateFS, err = fs.Sub(viveconecta.TemplateFS, TemplatePathFromRoot); err != nil {
			return nil, nil, fmt.Errorf("template sub-filesystem: %w", err)
		}
	}
	if staticFS == nil {
		if staticFS, err = fs.Sub(viveconecta.StaticFS, StaticPathFromRoot); err != nil {
			return nil, nil, fmt.Errorf("static sub-filesystem: %w", err)
		}
	}
	return templateFS, staticFS, nil
}

// setupUIHandlers creates UI handlers with template renderer and asset resolver.
func setupUIHandlers(deps RouterDeps, templateFS, staticFS fs.FS) (*UIHandlers, error) {
	resolver, err := httpassets.NewAssetResolver(staticFS, deps.IsDev, deps.Logger)
	if err != nil {
		deps.Logger.Warn("asset fingerprinting failed; serving plain asset URLs", slog.Any("error", err))
		resolver = nil
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		Resolver:   resolver,
		DevMode:    deps.IsDev,
		Logger:     deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("template renderer: %w", err)
	}
	return &UIHandlers{
		T:          tr,
		Catalog:    deps.Catalog,
		Dashboard:  deps.Dashboard,
		Workers:    deps.Workers,
		SSOEnabled: deps.SSO != nil,
		Demo:       deps.Demo,
		ReadyWait:  deps.ReadyWait,
		IsDev:      deps.IsDev,
		Logger:     deps.Logger,
	}, nil
}

// staticHandler serves /static/*. Fingerprinted URLs (?v=) are cached for a
// year; anything else must revalidate.
func staticHandler(staticFS fs.FS, isDev bool) http.Handler {
	files := http.StripPrefix(httpassets.URLPrefix, http.FileServerFS(staticFS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isDev && r.URL.Query().Has(httpassets.VersionParam) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		files.ServeHTTP(w, r)
	})
}
