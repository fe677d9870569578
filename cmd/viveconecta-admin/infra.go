package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/viveconecta/admin-ui/config"
	"github.com/viveconecta/admin-ui/internal/adapters/directory"
	redisadapter "github.com/viveconecta/admin-ui/internal/adapters/redis"
	"github.com/viveconecta/admin-ui/internal/bootstrap"
)

const defaultMigrationTimeout = 5 * time.Minute

func newMigrateCmd(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the user directory schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return a.withDB(ctx, func(db *sql.DB) error {
				if err := bootstrap.RunMigrations(ctx, db, a.cfg.Database.Driver, a.logger); err != nil {
					return err
				}
				return writef(cmd.OutOrStdout(), "migrations applied (%s)\n", a.cfg.Database.Driver)
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "maximum time to wait for migrations")
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password utilities",
	}

	var cost int
	hash := &cobra.Command{
		Use:   "hash [password]",
		Short: "Print the bcrypt hash stored in the users table",
		Long:  "Print the bcrypt hash stored in the users table. Without an argument the password is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(a, args)
			if err != nil {
				return err
			}
			h, err := directory.HashPassword(password, cost)
			if err != nil {
				return err
			}
			return writef(cmd.OutOrStdout(), "%s\n", h)
		},
	}
	hash.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	cmd.AddCommand(hash)
	return cmd
}

// passwordArg takes the first argument or, when absent, the first line of stdin.
func passwordArg(a *app, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is empty")
	}
	return password, nil
}

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and revoke persisted sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <session-id>",
		Short: "Delete a session record; the server ends it on the next guarded request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Storage.Backend != config.StorageRedis {
				return fmt.Errorf("sessions revoke needs STORAGE_BACKEND=redis, got %q", a.cfg.Storage.Backend)
			}
			client, err := bootstrap.ConnectRedis(cmd.Context(), bootstrap.DatabaseConfig{RedisConfig: a.cfg.Redis, Logger: a.logger})
			if err != nil {
				return err
			}
			defer func() {
				if cerr := client.Close(); cerr != nil {
					a.logger.Error("close redis failed", "error", cerr)
				}
			}()

			store := redisadapter.NewSessionStoreWithPrefix(client, a.cfg.Redis.SessionPrefix)
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("revoke session: %w", err)
			}
			return writef(cmd.OutOrStdout(), "session %s revoked\n", args[0])
		},
	})
	return cmd
}
