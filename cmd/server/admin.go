package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bookshelf/internal/config"
	"bookshelf/internal/repository/sqlite"
	"bookshelf/internal/service"
)

func newAdminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	admin.AddCommand(newAdminCreateCmd())
	return admin
}

var adminCreateExample = `
  bookshelf admin create --username librarian --email lib@example.com
  bookshelf admin create --username bob   # promotes an existing user`

func newAdminCreateCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create an administrator or promote an existing user",
		Example: adminCreateExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" {
				return errors.New("--username is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := sqlite.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			users := sqlite.NewUserRepository(db)
			if err := users.Init(cmd.Context()); err != nil {
				return err
			}
			svc := service.NewUserService(users)

			isExisting, err := userExists(cmd, svc, username)
			if err != nil {
				return err
			}
			if !isExisting && password == "" {
				password, err = readPassword(cmd.OutOrStdout(), "Password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}

			user, err := svc.CreateAdmin(cmd.Context(), username, email, password)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Administrator ready: %s\n", user.Username)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&username, "username", "", "username of the administrator (required)")
	f.StringVar(&email, "email", "", "email address, required for new accounts")
	f.StringVar(&password, "password", "", "password for new accounts (prompted when omitted)")

	return cmd
}

func userExists(cmd *cobra.Command, svc service.UserService, username string) (bool, error) {
	_, err := svc.Profile(cmd.Context(), strings.TrimSpace(username))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, service.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// readPassword reads a password from the terminal without echoing it.
func readPassword(w io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; pass --password")
	}
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
