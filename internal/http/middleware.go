package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/viveconecta/admin-ui/internal/domain/guard"
)

// Metrics receives HTTP and guard observations. *metrics.Recorder implements it.
type Metrics interface {
	ObserveHTTP(method, route string, code int, d time.Duration)
	RecordGuardDecision(o guard.Outcome)
}

type noopMetrics struct{}

func (noopMetrics) ObserveHTTP(string, string, int, time.Duration) {}
func (noopMetrics) RecordGuardDecision(guard.Outcome)              {}

const unmatchedRoute = "unmatched"

type routeKey struct{}

// routeLabel is filled in by the matched handler so that Logging, which runs
// outside the mux, can label the request with its route pattern.
type routeLabel struct{ pattern string }

func markRoute(r *http.Request) {
	if l, ok := r.Context().Value(routeKey{}).(*routeLabel); ok && r.Pattern != "" {
		l.pattern = r.Pattern
	}
}

// Logging returns a middleware that logs HTTP requests and records request metrics.
func Logging(logger *slog.Logger, m Metrics) func(http.Handler) http.Handler {
	if m == nil {
		m = noopMetrics{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			label := &routeLabel{pattern: unmatchedRoute}
			r = r.WithContext(context.WithValue(r.Context(), routeKey{}, label))

			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			m.ObserveHTTP(r.Method, label.pattern, ww.status, elapsed)

			level := slog.LevelInfo
			if ww.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", label.pattern),
				slog.Int("status", ww.status),
				slog.Duration("duration", elapsed),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// Downstream handlers use it to choose between HTML and JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// isBrowserRequest treats /api/ and /static/ as machine traffic, htmx as a browser,
// and otherwise trusts the Accept header.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/static/") {
		return false
	}
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

// redirectPathForRequest returns the view the user was looking at.
// htmx GETs are navigations to r.URL; other htmx requests act on the page
// named by Hx-Current-Url (or Referer).
func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) && r.Method != http.MethodGet {
		if current := relativeFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := relativeFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}
	return r.URL.RequestURI()
}

func relativeFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}
	if u.IsAbs() {
		return u.RequestURI()
	}
	return raw
}
