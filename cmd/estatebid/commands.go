package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/estatebid/estatebid-api/cmd/estatebid/ui"
	"github.com/estatebid/estatebid-api/internal/admin"
	"github.com/estatebid/estatebid-api/internal/auth"
	"github.com/estatebid/estatebid-api/internal/bid"
	"github.com/estatebid/estatebid-api/internal/config"
	"github.com/estatebid/estatebid-api/internal/database"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/property"
	"github.com/estatebid/estatebid-api/internal/user"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, _, err := connect(ctx)
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}
	defer db.Close()

	if err := database.CreateSchema(ctx, db); err != nil {
		ui.PrintError(err.Error())
		return err
	}

	ui.PrintSuccess("Schema is up to date")
	return nil
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	in := ui.AdminInput{Name: name, Email: email, Password: password}

	// Interactive mode when any flag is missing
	if !in.Complete() {
		fmt.Println()
		fmt.Println("  EstateBid admin setup")
		fmt.Println()

		if err := ui.RunAdminForm(&in); err != nil {
			ui.PrintError("form cancelled")
			return fmt.Errorf("form cancelled: %w", err)
		}
	}

	if err := ui.ValidateAdmin(in); err != nil {
		ui.PrintError(err.Error())
		return err
	}

	ui.PrintSummary(in)

	ctx := cmd.Context()
	db, _, err := connect(ctx)
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}
	defer db.Close()

	created, err := createAdmin(ctx, user.NewRepository(db), in)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			ui.PrintError("a user with this email already exists")
		} else {
			ui.PrintError(err.Error())
		}
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Admin %s created (%s)", created.Email, created.ID))
	return nil
}

// adminCreator is the part of the user repository create-admin needs
type adminCreator interface {
	Create(ctx context.Context, params user.CreateParams) (*user.User, error)
	MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error
}

// createAdmin inserts an admin that can log in immediately
func createAdmin(ctx context.Context, users adminCreator, in ui.AdminInput) (*user.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := users.Create(ctx, user.CreateParams{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}

	if err := users.MarkEmailAsVerified(ctx, created.ID); err != nil {
		return nil, fmt.Errorf("failed to verify admin: %w", err)
	}
	created.IsVerified = true

	return created, nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	db, logger, err := connect(ctx)
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}
	defer db.Close()

	svc := admin.NewService(
		user.NewRepository(db),
		property.NewRepository(db),
		bid.NewRepository(db),
		noInvalidation{},
		logger,
	)

	stats, err := svc.Statistics(ctx)
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	ui.PrintStatistics(stats)
	return nil
}

func connect(ctx context.Context) (*bun.DB, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	return db, logger, nil
}

// noInvalidation satisfies admin.Invalidator; the stats command never writes.
type noInvalidation struct{}

func (noInvalidation) Invalidate(context.Context, string) error { return nil }
