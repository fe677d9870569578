package main

import (
	"database/sql"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/viveconecta/admin-ui/internal/adapters/directory"
	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage directory accounts",
	}
	cmd.AddCommand(
		newUsersAddCmd(a),
		newUsersListCmd(a),
		newUsersSetRoleCmd(a),
		newUsersDisableCmd(a),
		newUsersSetPasswordCmd(a),
	)
	return cmd
}

func newUsersAddCmd(a *app) *cobra.Command {
	var in directory.NewUser
	var role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account (password from --password or stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				p, err := passwordArg(a, nil)
				if err != nil {
					return err
				}
				in.Password = p
			}
			in.Role = domainauth.Role(role)
			return a.withDB(cmd.Context(), func(db *sql.DB) error {
				u, err := directory.New(db).Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				return writef(cmd.OutOrStdout(), "created %s (%s) id=%s\n", u.Email, u.Role, u.ID)
			})
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domainauth.RoleComercial), "role label")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password (prefer stdin)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	var (
		opts ports.UserListOptions
		role string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Role = domainauth.Role(role)
			return a.withDB(cmd.Context(), func(db *sql.DB) error {
				repo := directory.New(db)
				users, err := repo.List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				total, err := repo.Count(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return printUsers(cmd, users, total)
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only accounts with this role")
	cmd.Flags().StringVar(&opts.Search, "search", "", "match on name or email")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum rows")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	return cmd
}

func printUsers(cmd *cobra.Command, users []domainauth.User, total int) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if err := writef(tw, "EMAIL\tNAME\tROLE\tID\n"); err != nil {
		return err
	}
	for _, u := range users {
		if err := writef(tw, "%s\t%s\t%s\t%s\n", u.Email, u.Name, u.Role, u.ID); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(cmd.OutOrStdout(), "%d of %d accounts\n", len(users), total)
}

func newUsersSetRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := domainauth.Role(args[1])
			if !role.Known() {
				a.logger.Warn("role is not one of the known roles", "role", role, "known", domainauth.KnownRoles)
			}
			return a.withDB(cmd.Context(), func(db *sql.DB) error {
				if err := directory.New(db).SetRole(cmd.Context(), args[0], role); err != nil {
					return err
				}
				return writef(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
			})
		},
	}
}

func newUsersDisableCmd(a *app) *cobra.Command {
	var enable bool
	cmd := &cobra.Command{
		Use:   "disable <email>",
		Short: "Block (or with --enable, unblock) an account's logins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(db *sql.DB) error {
				if err := directory.New(db).SetDisabled(cmd.Context(), args[0], !enable); err != nil {
					return err
				}
				state := "disabled"
				if enable {
					state = "enabled"
				}
				return writef(cmd.OutOrStdout(), "%s %s\n", args[0], state)
			})
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", false, "re-enable the account instead")
	return cmd
}

func newUsersSetPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-password <email>",
		Short: "Replace an account's password (read from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(a, nil)
			if err != nil {
				return err
			}
			return a.withDB(cmd.Context(), func(db *sql.DB) error {
				if err := directory.New(db).SetPassword(cmd.Context(), args[0], password); err != nil {
					return fmt.Errorf("set password: %w", err)
				}
				return writef(cmd.OutOrStdout(), "password updated for %s\n", args[0])
			})
		},
	}
}
