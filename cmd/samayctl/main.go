// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Command samayctl runs operator tasks against the configured store.
//
//	samayctl promote -email alice@example.com -role admin
//	samayctl promote -user 6f1c... -role user
//	samayctl migrate-roles
//
// It reads the same configuration as the server (config.yaml and
// environment).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/samay/internal/accounts"
	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
)

const usage = `usage: samayctl <command> [flags]

commands:
  promote        set a user's role (-user ID or -email EMAIL, -role admin|user)
  migrate-roles  rewrite malformed stored roles to their canonical value
`

var errUsage = errors.New("invalid usage")

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    "console",
		Timestamp: true,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open store")
	}

	err = run(ctx, os.Args[1:], os.Stdout, st)
	if cerr := st.Close(); cerr != nil {
		logging.Error().Err(cerr).Msg("Error closing store")
	}
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	case err != nil:
		fmt.Fprintln(os.Stderr, "samayctl:", err)
		os.Exit(1)
	}
}

// run dispatches a subcommand. users is the account store to operate on.
func run(ctx context.Context, args []string, out io.Writer, users store.Users) error {
	if len(args) == 0 {
		return errUsage
	}
	svc := accounts.NewService(users, nil, 0, nil)

	switch args[0] {
	case "promote":
		return promote(ctx, args[1:], out, users, svc)
	case "migrate-roles":
		n, err := svc.NormalizeRoles(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "normalized %d account(s)\n", n)
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func promote(ctx context.Context, args []string, out io.Writer, users store.Users, svc *accounts.Service) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	userID := fs.String("user", "", "user ID")
	email := fs.String("email", "", "user email")
	role := fs.String("role", "admin", "role to assign")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	switch {
	case *userID == "" && *email == "":
		return fmt.Errorf("%w: -user or -email is required", errUsage)
	case *userID == "":
		u, err := users.GetUserByEmail(ctx, models.NormalizeEmail(*email))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return accounts.ErrUserNotFound
			}
			return err
		}
		*userID = u.ID
	}

	profile, err := svc.SetRole(ctx, *userID, *role)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%s) is now %s\n", profile.Email, profile.ID, profile.Role)
	return nil
}
