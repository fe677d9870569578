package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	// database/sql drivers used by tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/viveconecta/admin-ui/internal/migrate"
)

const setupTimeout = 10 * time.Second

// SetupSQLiteDB opens a private in-memory SQLite database with the schema applied.
// It never skips, so directory tests always have a backend.
func SetupSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file:"+randomName("mem_")+"?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection keeps the shared in-memory database alive.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { closeQuietly(t, "sqlite", db) })

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if err := migrate.Run(ctx, db, migrate.SQLite); err != nil {
		t.Fatalf("sqlite migrations: %v", err)
	}
	return db
}

// PostgresConfig locates the integration database. Each field can be
// overridden with TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER, TEST_DB_PASSWORD,
// TEST_DB_NAME and TEST_DB_SSLMODE. Port 55432 is the docker compose test profile.
type PostgresConfig struct {
	Host, Port, User, Password, Name, SSLMode string
}

// PostgresFromEnv reads PostgresConfig from the environment.
func PostgresFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "55432"),
		User:     envOr("TEST_DB_USER", "viveconecta"),
		Password: envOr("TEST_DB_PASSWORD", "viveconecta"),
		Name:     envOr("TEST_DB_NAME", "viveconecta"),
		SSLMode:  envOr("TEST_DB_SSLMODE", "disable"),
	}
}

// DSN renders a pgx URL. A non-empty schema is placed first on the search_path.
func (c PostgresConfig) DSN(schema string) string {
	q := url.Values{"sslmode": {c.SSLMode}}
	if schema != "" {
		q.Set("search_path", schema+",public")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// WithAutoDB runs fn against a migrated PostgreSQL database and skips the test
// when none is reachable (TEST_REQUIRE_DB or TEST_REQUIRE_INFRA turn the skip
// into a failure). With TEST_DB_EPHEMERAL set, fn gets a throwaway schema;
// otherwise the shared database is emptied before and after fn.
func WithAutoDB(t testing.TB, fn func(*sql.DB)) {
	t.Helper()
	cfg := PostgresFromEnv()
	admin := openPostgres(t, cfg.DSN(""))

	if !envBool("TEST_DB_EPHEMERAL") {
		migratePostgres(t, admin)
		truncateUsers(t, admin)
		t.Cleanup(func() { truncateUsers(t, admin) })
		fn(admin)
		return
	}

	schema := randomName("t_")
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		if _, err := admin.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})
	t.Logf("using ephemeral schema %s", schema)

	db := openPostgres(t, cfg.DSN(schema))
	migratePostgres(t, db)
	fn(db)
}

// openPostgres registers Close with t.Cleanup; cleanups run last-in first-out,
// so a handle opened earlier outlives the ones opened after it.
func openPostgres(t testing.TB, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		closeQuietly(t, "postgres", db)
		if envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") {
			t.Fatalf("postgres not available: %v", err)
		}
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { closeQuietly(t, "postgres", db) })
	return db
}

func migratePostgres(t testing.TB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if err := migrate.Run(ctx, db, migrate.Postgres); err != nil {
		t.Fatalf("postgres migrations: %v", err)
	}
}

func truncateUsers(t testing.TB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, "DELETE FROM users"); err != nil {
		t.Fatalf("clean users: %v", err)
	}
}

func closeQuietly(t testing.TB, name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		t.Logf("close %s: %v", name, err)
	}
}

// randomName is lowercase alphanumeric so it is a valid schema identifier.
func randomName(prefix string) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return prefix + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return prefix + hex.EncodeToString(b)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
