// Command create-admin provisions an admin account for the visits API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"iplocator/internal/config"
	"iplocator/internal/logging"
	"iplocator/internal/repository"
	"iplocator/internal/services"
)

var errPasswordMismatch = errors.New("passwords do not match")

type credentials struct {
	username string
	password string
}

func main() {
	creds, err := promptCredentials(os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := run(context.Background(), creds, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// promptCredentials reads username, password and confirmation, one per line.
func promptCredentials(r io.Reader, w io.Writer) (credentials, error) {
	scanner := bufio.NewScanner(r)
	ask := func(prompt string) (string, error) {
		fmt.Fprint(w, prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}

	username, err := ask("Username: ")
	if err != nil {
		return credentials{}, err
	}
	password, err := ask("Password: ")
	if err != nil {
		return credentials{}, err
	}
	confirm, err := ask("Confirm password: ")
	if err != nil {
		return credentials{}, err
	}
	if password != confirm {
		return credentials{}, errPasswordMismatch
	}
	return credentials{username: username, password: password}, nil
}

func run(ctx context.Context, creds credentials, w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(cfg, os.Stderr)

	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer repository.CloseDB(db)

	if repository.IsPostgres(cfg.DatabaseURL) {
		if err := repository.RunMigrations(cfg.DatabaseURL, ""); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else if err := repository.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}

	auth := services.NewAuthService(repository.NewAdminStore(db), repository.NewSessionStore(db), logger)
	admin, err := auth.CreateAdmin(ctx, creds.username, creds.password)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Admin %q created (id %d)\n", admin.Username, admin.ID)
	return nil
}
