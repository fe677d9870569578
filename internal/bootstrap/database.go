package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	// database/sql drivers for the user directory.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/viveconecta/admin-ui/config"
	"github.com/viveconecta/admin-ui/internal/migrate"
)

// DatabaseConfig groups what ConnectDB and ConnectRedis need.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectDB opens and pings the user directory database.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	driverName, dsn, desc := dataSource(cfg.DBConfig)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.DBConfig.Driver == config.DBDriverSQLite {
		// sqlite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database %s: %w", desc, pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "database connected", "driver", cfg.DBConfig.Driver, "database", desc)
	}
	return db, nil
}

// dataSource returns the database/sql driver name, the DSN and a credential-free description.
func dataSource(c config.DBConfig) (string, string, string) {
	if c.Driver == config.DBDriverSQLite {
		if c.DSN != "" {
			return "sqlite3", c.DSN, "sqlite"
		}
		return "sqlite3", "file:" + c.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000", c.SQLitePath
	}
	if c.DSN != "" {
		desc := "postgres"
		if u, err := url.Parse(c.DSN); err == nil {
			desc = u.Redacted()
		}
		return "pgx", c.DSN, desc
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return "pgx", u.String(), u.Redacted()
}

// RunMigrations applies the user directory schema for the configured driver.
func RunMigrations(ctx context.Context, db *sql.DB, driver config.DBDriver, logger *slog.Logger) error {
	dialect, err := migrate.ParseDialect(string(driver))
	if err != nil {
		return err
	}
	if runErr := migrate.Run(ctx, db, dialect); runErr != nil {
		return fmt.Errorf("run migrations: %w", runErr)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed", "dialect", dialect)
	}
	return nil
}
