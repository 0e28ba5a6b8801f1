package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/estatebid/estatebid-api/cmd/estatebid/ui"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "estatebid",
		Short: "Operator tools for the EstateBid API",
		Long:  "Maintenance commands that run against the configured database: schema setup, admin bootstrap and a statistics snapshot.",
		// commands print their own errors through ui.PrintError
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes",
		RunE:  runMigrate,
	}

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified admin account",
		Long:  "Creates an admin user. Missing flags are asked for interactively.",
		RunE:  runCreateAdmin,
	}

	// Flags for non-interactive mode (CI/scripting)
	createAdminCmd.Flags().String("name", "", "Display name")
	createAdminCmd.Flags().String("email", "", "Login email")
	createAdminCmd.Flags().String("password", "", "Password (min 6 characters)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics",
		RunE:  runStats,
	}
	statsCmd.Flags().Bool("json", false, "Print raw JSON")

	rootCmd.AddCommand(migrateCmd, createAdminCmd, statsCmd)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		ui.PrintError(err.Error())
		return err
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
