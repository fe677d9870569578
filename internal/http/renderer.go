package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	httpassets "github.com/viveconecta/admin-ui/internal/http/assets"
	assetfuncs "github.com/viveconecta/admin-ui/internal/http/templates/assets"
	corefuncs "github.com/viveconecta/admin-ui/internal/http/templates/core"
)

// AssetResolver aliases the asset resolver so callers only import httpx.
type AssetResolver = httpassets.AssetResolver

// Template entry points.
const (
	tmplLayout     = "layout"
	tmplPartial    = "partial"
	tmplStandalone = "standalone-layout"
	tmplError      = "error-layout"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	mu       sync.RWMutex
	t        *template.Template
	fsys     fs.FS
	resolver *AssetResolver
	devMode  bool // reparse templates on every render
	logger   *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS          // required
	Resolver   *AssetResolver // optional; nil yields plain /static/ URLs
	DevMode    bool
	Logger     *slog.Logger
}

// NewTemplateRenderer parses the template set from cfg.TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &TemplateRenderer{
		fsys:     cfg.TemplateFS,
		resolver: cfg.Resolver,
		devMode:  cfg.DevMode,
		logger:   cfg.Logger,
	}
	t, err := r.parse()
	if err != nil {
		r.logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	r.t = t
	return r, nil
}

func (r *TemplateRenderer) parse() (*template.Template, error) {
	var t *template.Template
	funcs := template.FuncMap{}
	mergeTemplateFuncs(funcs,
		corefuncs.Funcs(corefuncs.Deps{Template: &t, ContentTemplateFor: ContentTemplateFor}),
		assetfuncs.Funcs(r.resolver),
	)
	var err error
	t, err = template.New("root").Funcs(funcs).ParseFS(r.fsys, "*.tmpl", "pages/*.tmpl", "partials/*.tmpl")
	return t, err
}

func (r *TemplateRenderer) templates() (*template.Template, error) {
	if r.devMode {
		t, err := r.parse()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.t = t
		r.mu.Unlock()
		return t, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t, nil
}

// RenderFull renders the application chrome around the page content.
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, status int, data any) error {
	return r.render(w, status, tmplLayout, data)
}

// RenderPartial renders the htmx swap: the document title and the app shell without <html>.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, status int, data any) error {
	return r.render(w, status, tmplPartial, data)
}

// RenderStandalone renders pages without the sidebar (login, wait).
func (r *TemplateRenderer) RenderStandalone(w http.ResponseWriter, status int, data any) error {
	return r.render(w, status, tmplStandalone, data)
}

// RenderError renders the error chrome used by the denied and not-found pages.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, status int, data any) error {
	return r.render(w, status, tmplError, data)
}

// RenderFragment executes a single named template, e.g. the sidebar after a toggle.
func (r *TemplateRenderer) RenderFragment(w http.ResponseWriter, name string, data any) error {
	return r.render(w, http.StatusOK, name, data)
}

// render buffers the output so a failing template never leaves a half-written response.
func (r *TemplateRenderer) render(w http.ResponseWriter, status int, name string, data any) error {
	t, err := r.templates()
	if err != nil {
		r.logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "reload"))
		return err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", slog.String("template", name), slog.Any("error", err))
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Debug("failed to write rendered template", slog.String("template", name), slog.Any("error", err))
		return err
	}
	return nil
}

func mergeTemplateFuncs(dst template.FuncMap, sources ...template.FuncMap) {
	for _, src := range sources {
		for key, val := range src {
			dst[key] = val
		}
	}
}
