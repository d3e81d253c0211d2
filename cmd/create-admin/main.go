package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/noah-isme/egresados-intake/internal/dto"
	"github.com/noah-isme/egresados-intake/internal/repository"
	"github.com/noah-isme/egresados-intake/internal/service"
	"github.com/noah-isme/egresados-intake/pkg/config"
	"github.com/noah-isme/egresados-intake/pkg/database"
	"github.com/noah-isme/egresados-intake/pkg/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		username      string
		passwordStdin bool
		reset         bool
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a review console administrator",
		Long: "Creates an administrator account with a bcrypt-hashed password. " +
			"The password is prompted without echo, or read from stdin with --password-stdin.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if username == "" {
				return errors.New("--usuario is required")
			}

			password, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.New(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if cfg.Database.AutoMigrate {
				if err := database.Migrate(db, "up"); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			auth := service.NewAuthService(repository.NewAdminRepository(db), nil, nil, logr)
			admin, err := auth.CreateAdmin(ctx, dto.LoginRequest{Username: username, Password: password}, reset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "administrador %q listo (id %d)\n", admin.Username, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "usuario", "u", "", "administrator username")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&reset, "reset", false, "replace the password when the user already exists")
	return cmd
}

func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		return readLine(cmd.InOrStdin())
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; use --password-stdin")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Contraseña: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Confirmar contraseña: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(first), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password must not be empty")
	}
	return line, nil
}
