package config

import (
	"fmt"
	"strings"
)

// DBDriver selects the user directory database.
type DBDriver string

const (
	DBDriverSQLite   DBDriver = "sqlite"
	DBDriverPostgres DBDriver = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for DBDriver.
func (d *DBDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "sqlite", "sqlite3":
		*d = DBDriverSQLite
	case "postgres", "postgresql", "pgx":
		*d = DBDriverPostgres
	default:
		return fmt.Errorf("invalid DBDriver: %q (valid options: sqlite, postgres)", v)
	}
	return nil
}

// DBConfig contains user directory database configuration.
// For postgres, DSN wins over the discrete fields when set.
type DBConfig struct {
	Driver DBDriver `env:"DRIVER" envDefault:"sqlite"`
	DSN    string   `env:"DSN"`

	// SQLitePath is used when Driver=sqlite and DSN is empty.
	SQLitePath string `env:"SQLITE_PATH" envDefault:"viveconecta.db"`

	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"viveconecta"`
	Password string `env:"PASSWORD" envDefault:"viveconecta"`
	Name     string `env:"NAME"     envDefault:"viveconecta"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production

	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Sanitize trims free-form fields.
func (d *DBConfig) Sanitize() {
	d.DSN = strings.TrimSpace(d.DSN)
	d.SQLitePath = strings.TrimSpace(d.SQLitePath)
	if d.Driver == "" {
		d.Driver = DBDriverSQLite
	}
}

// Validate checks that a connection can be described.
func (d *DBConfig) Validate() error {
	switch d.Driver {
	case DBDriverSQLite:
		if d.DSN == "" && d.SQLitePath == "" {
			return fmt.Errorf("DB_SQLITE_PATH or DB_DSN is required for driver %s", d.Driver)
		}
	case DBDriverPostgres:
		if d.DSN == "" && (d.Host == "" || d.Name == "") {
			return fmt.Errorf("DB_HOST and DB_NAME (or DB_DSN) are required for driver %s", d.Driver)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", d.Driver)
	}
	return nil
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`

	// Prefixes namespace the keys written by this application.
	ClientPrefix  string `env:"CLIENT_PREFIX"  envDefault:"client:"`
	SessionPrefix string `env:"SESSION_PREFIX" envDefault:"session:"`
}
