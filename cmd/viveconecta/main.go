package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/viveconecta/admin-ui/config"
	"github.com/viveconecta/admin-ui/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadValidConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.ConfigureLogger(cfg.Observability.Logging.SlogLevel())

	logStartupInfo(ctx, logger, &cfg)

	db, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close database failed", "error", cerr)
			}
		}()
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close services failed", "error", cerr)
		}
	}()

	return bootstrap.Serve(ctx, &bootstrap.HTTPServerConfig{
		Config:      &cfg,
		Services:    services,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting viveconecta admin",
		"dev", cfg.IsDev,
		"addr", cfg.HTTP.Addr,
		"storage", cfg.Storage.Backend,
		"verifier", cfg.Auth.Verifier,
		"sso", cfg.Auth.SSO.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled)
}

// initInfrastructure connects the database and Redis when the configuration needs them.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	dbCfg := bootstrap.DatabaseConfig{DBConfig: cfg.Database, RedisConfig: cfg.Redis, Logger: logger}

	var db *sql.DB
	if cfg.NeedsDatabase() {
		var err error
		if db, err = bootstrap.ConnectDB(ctx, dbCfg); err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		if cfg.Database.RunMigrationsOnStart {
			if err = bootstrap.RunMigrations(ctx, db, cfg.Database.Driver, logger); err != nil {
				return nil, nil, closeDB(db, err)
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
	}

	if !cfg.NeedsRedis() {
		return db, nil, nil
	}
	redisClient, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		if db != nil {
			return nil, nil, closeDB(db, fmt.Errorf("connect redis: %w", err))
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return db, redisClient, nil
}

func closeDB(db *sql.DB, cause error) error {
	if cerr := db.Close(); cerr != nil {
		return errors.Join(cause, fmt.Errorf("close database: %w", cerr))
	}
	return cause
}
