package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/viveconecta/admin-ui/config"
	httpx "github.com/viveconecta/admin-ui/internal/http"
)

const shutdownWaitTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config      *config.AppConfig
	Services    *ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildHTTPHandler assembles the router with its middleware chain.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("http server config with services is required")
	}
	appCfg := cfg.Config
	svcs := cfg.Services
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	deps := httpx.RouterDeps{
		Registry:  svcs.Registry,
		Catalog:   svcs.Catalog,
		Policy:    svcs.Policy,
		Dashboard: svcs.Dashboard,
		Workers:   svcs.Workers,
		Device: httpx.DeviceConfig{
			CookieDomain: appCfg.HTTP.CookieDomain,
			CookieSecure: appCfg.HTTP.CookieSecure,
			MaxAge:       appCfg.Session.DeviceTTL,
		},
		ReadyWait: appCfg.Session.ReadyWait,
		Readiness: readinessChecks(cfg.DB, cfg.RedisClient),
		IsDev:     appCfg.IsDev,
		Logger:    logger,
	}
	// A typed nil would make the router mount the SSO routes.
	if svcs.SSO != nil {
		deps.SSO = svcs.SSO
	}
	if demo := svcs.Verifiers.Demo; demo != nil {
		deps.Demo = &httpx.DemoCredentials{Email: demo.Email, Password: demo.Password}
	}
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
		deps.Compression = &httpx.CompressionConfig{Level: appCfg.HTTP.CompressionLevel, Logger: logger}
	}
	if svcs.Observer != nil {
		deps.Metrics = svcs.Observer
	}
	if svcs.Metrics != nil && !appCfg.Observability.Metrics.SeparateListener() {
		deps.MetricsHandler = svcs.Metrics.Handler()
	}

	return httpx.NewRouter(deps)
}

func readinessChecks(db *sql.DB, rdb redis.UniversalClient) map[string]httpx.ReadinessCheck {
	checks := map[string]httpx.ReadinessCheck{}
	if db != nil {
		checks["database"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

func newServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Serve runs the HTTP server, the optional metrics listener and the registry
// sweeper until ctx is cancelled or one of them fails, then shuts the servers down.
func Serve(ctx context.Context, cfg *HTTPServerConfig) error {
	handler, err := BuildHTTPHandler(cfg)
	if err != nil {
		return err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	servers := []*http.Server{newServer(appCfg.HTTP.Addr, handler)}
	if appCfg.Observability.Metrics.SeparateListener() && cfg.Services.Metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", cfg.Services.Metrics.Handler())
		servers = append(servers, newServer(appCfg.Observability.Metrics.Addr, mux))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.InfoContext(gctx, "starting HTTP server", "addr", srv.Addr)
			if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, serveErr)
			}
			return nil
		})
	}
	g.Go(func() error {
		return cfg.Services.RunSweepers(gctx, appCfg.Session.SweepInterval, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP servers")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownWaitTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, shutdownErr))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("HTTP servers stopped")
	return nil
}
