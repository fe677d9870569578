package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/viveconecta/admin-ui/config"
	"github.com/viveconecta/admin-ui/internal/bootstrap"
)

// app carries what every subcommand needs. Tests replace the loaders.
type app struct {
	out    io.Writer
	in     io.Reader
	logger *slog.Logger

	loadConfig func() (config.AppConfig, error)
	openDB     func(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*sql.DB, error)

	cfg config.AppConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger()
	a := &app{
		out:        os.Stdout,
		in:         os.Stdin,
		logger:     logger,
		loadConfig: bootstrap.LoadConfig,
		openDB:     connectDirectory,
	}

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		logger.ErrorContext(ctx, "command failed", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "viveconecta-admin",
		Short:         "Operational tooling for the ViveConecta admin dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.logger = bootstrap.ConfigureLogger(cfg.Observability.Logging.SlogLevel())
			cmd.SetOut(a.out)
			cmd.SetIn(a.in)
			return nil
		},
	}
	root.SetOut(a.out)

	root.AddCommand(
		newMigrateCmd(a),
		newUsersCmd(a),
		newPasswordCmd(a),
		newSessionsCmd(a),
		newNavCmd(a),
	)
	return root
}

func connectDirectory(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*sql.DB, error) {
	return bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Database, Logger: logger})
}

// withDB opens the directory database for the duration of fn.
func (a *app) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := a.openDB(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			a.logger.Error("close database failed", "error", cerr)
		}
	}()
	return fn(db)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
