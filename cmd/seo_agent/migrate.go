package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/db"
)

var migrateList bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Applies the embedded PostgreSQL migrations that have not run yet, then deletes crawled pages past their expiry. --list prints the migrations without connecting.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "List migrations and exit")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if migrateList {
		names, err := db.Migrations()
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := writeOutput("", name); err != nil {
				return err
			}
		}
		return nil
	}

	if appConfig.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	database, err := svc.DB(ctx)
	if err != nil {
		return err
	}
	applied, err := database.Migrate(ctx)
	if err != nil {
		return err
	}
	msg := "Database is up to date"
	if len(applied) > 0 {
		msg = fmt.Sprintf("Applied %d migration(s)", len(applied))
	}
	if err := writeOutput("", msg); err != nil {
		return err
	}

	pruned, err := database.DeleteExpiredPages(ctx)
	if err != nil {
		return err
	}
	return writeOutput("", fmt.Sprintf("Deleted %d expired crawled page(s)", pruned))
}
