package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viveconecta/admin-ui/config"
	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/domain/navigation"
	"github.com/viveconecta/admin-ui/internal/observability/metrics"
	"github.com/viveconecta/admin-ui/internal/observability/statsd"
	"github.com/viveconecta/admin-ui/internal/ports"
	"github.com/viveconecta/admin-ui/internal/service"
)

// ServiceDeps contains dependencies for building the application services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// ServiceContainer holds everything the HTTP layer and the background loops need.
type ServiceContainer struct {
	Registry  *service.ClientRegistry
	Sessions  ports.SessionStore
	SSO       *service.SSOService
	Dashboard *service.DashboardService
	Workers   *service.WorkersService
	Catalog   navigation.Catalog
	Policy    guard.Policy
	Verifiers VerifierBundle
	// Metrics serves /metrics; nil when metrics are disabled.
	Metrics *metrics.Recorder
	// Observer receives session, guard and HTTP observations for every enabled backend.
	Observer metrics.Sink

	sweepSessions func() int
	statsd        *statsd.Client
}

// NewServices wires adapters and services from configuration.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog, err := loadCatalog(cfg.Navigation, logger)
	if err != nil {
		return nil, err
	}
	policy, err := guard.ParsePolicy(cfg.Navigation.RouteRoles)
	if err != nil {
		return nil, fmt.Errorf("NAV_ROUTE_ROLES: %w", err)
	}

	backends, err := BuildSessionBackends(SessionBackendConfig{
		Storage:     cfg.Storage,
		Session:     cfg.Session,
		Redis:       cfg.Redis,
		RedisClient: deps.RedisClient,
		IsDev:       cfg.IsDev,
		Logger:      logger,
		Now:         deps.Now,
	})
	if err != nil {
		return nil, err
	}

	verifiers, err := BuildVerifier(VerifierDeps{Auth: cfg.Auth, DB: deps.DB, Logger: logger})
	if err != nil {
		return nil, err
	}

	sso, err := BuildSSOService(ctx, SSOConfig{Auth: cfg.Auth.SSO, Logger: logger})
	if err != nil {
		return nil, err
	}

	recorder, statsdClient, observer, err := buildObservability(cfg.Observability.Metrics, logger)
	if err != nil {
		return nil, err
	}
	var sessionMetrics service.SessionMetrics = service.NoopSessionMetrics{}
	if observer != nil {
		sessionMetrics = observer
	}

	registry, err := service.NewClientRegistry(service.ClientRegistryOptions{
		Storage:        backends.Storage,
		Sessions:       backends.Sessions,
		Tokens:         backends.Tokens,
		Verifier:       verifiers.Verifier,
		Capacity:       cfg.Session.ClientCapacity,
		IdleTTL:        cfg.Session.ClientIdleTTL,
		SessionTTL:     cfg.Session.TTL,
		RememberTTL:    cfg.Session.RememberTTL,
		RestoreTimeout: cfg.Session.RestoreTimeout,
		Metrics:        sessionMetrics,
		Logger:         logger,
		Now:            deps.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("create client registry: %w", err)
	}
	if recorder != nil {
		recorder.RegisterClients(registry.Stats)
	}

	return &ServiceContainer{
		Registry:      registry,
		Sessions:      backends.Sessions,
		SSO:           sso,
		Dashboard:     service.NewDashboardService(),
		Workers:       service.NewWorkersService(verifiers.Directory),
		Catalog:       catalog,
		Policy:        policy,
		Verifiers:     verifiers,
		Metrics:       recorder,
		Observer:      observer,
		sweepSessions: backends.Sweep,
		statsd:        statsdClient,
	}, nil
}

// buildObservability creates the Prometheus recorder and, when configured, the
// StatsD mirror. observer is nil when metrics are disabled.
func buildObservability(
	cfg config.ObservabilityMetricsConfig,
	logger *slog.Logger,
) (*metrics.Recorder, *statsd.Client, metrics.Sink, error) {
	if !cfg.Enabled {
		return nil, nil, nil, nil
	}
	recorder := metrics.New(metrics.Options{RuntimeCollectors: cfg.RuntimeCollectors})
	if !cfg.StatsdEnabled() {
		return recorder, nil, recorder, nil
	}

	client, err := statsd.NewClient(statsd.Config{
		Address: cfg.StatsdAddress,
		Prefix:  cfg.StatsdPrefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create statsd client: %w", err)
	}
	logger.Info("mirroring metrics to statsd", "addr", cfg.StatsdAddress)
	return recorder, client, metrics.Fanout{recorder, statsd.NewRecorder(client)}, nil
}

// Close releases connections owned by the container.
func (s *ServiceContainer) Close() error {
	return s.statsd.Close()
}

func loadCatalog(cfg config.NavigationConfig, logger *slog.Logger) (navigation.Catalog, error) {
	var (
		catalog navigation.Catalog
		err     error
	)
	if cfg.CatalogFile != "" {
		catalog, err = navigation.LoadFile(cfg.CatalogFile)
	} else {
		catalog, err = navigation.Default()
	}
	if err != nil {
		return navigation.Catalog{}, fmt.Errorf("load navigation catalog: %w", err)
	}
	if unknown := catalog.UnknownRoles(); len(unknown) > 0 {
		logger.Warn("navigation catalog references roles outside the known set", "roles", unknown)
	}
	return catalog, nil
}

// RunSweepers prunes idle session managers and, for in-memory storage, expired
// session records until ctx is cancelled.
func (s *ServiceContainer) RunSweepers(ctx context.Context, interval time.Duration, logger *slog.Logger) error {
	if s.sweepSessions == nil {
		return s.Registry.RunSweeper(ctx, interval)
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			clients := s.Registry.Sweep()
			records := s.sweepSessions()
			if clients > 0 || records > 0 {
				logger.DebugContext(ctx, "swept idle state", "clients", clients, "session_records", records)
			}
		}
	}
}
