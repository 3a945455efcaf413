package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/config"
	"github.com/rainbowartistery/atelier/database/seeders"
	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/database"
	"github.com/rainbowartistery/atelier/pkg/logger"
	"github.com/rainbowartistery/atelier/pkg/migration"
)

// bootDB loads config and opens the database connection.
func bootDB() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return database.Connect()
}

// atelier migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		fmt.Println("Running migrations…")
		n, err := migration.New(database.DB, os.Stdout).Run()
		if err != nil {
			return err
		}
		fmt.Printf("%d migration(s) applied.\n", n)
		return nil
	},
}

// atelier migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		fmt.Println("Rolling back last batch…")
		n, err := migration.New(database.DB, os.Stdout).Rollback()
		if err != nil {
			return err
		}
		fmt.Printf("%d migration(s) rolled back.\n", n)
		return nil
	},
}

// atelier migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		rows, err := migration.New(database.DB, os.Stdout).Status()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
		for _, r := range rows {
			ran, batch := "no", "-"
			if r.Ran {
				ran, batch = "yes", fmt.Sprint(r.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, ran, batch)
		}
		return w.Flush()
	},
}

// atelier seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		ctx := cmd.Context()

		fmt.Println("Running seeders…")
		if err := seeders.RunAll(ctx, database.DB, os.Stdout); err != nil {
			return err
		}

		// Seeded rows bypass the services, so drop what a running server cached.
		store, err := cache.Connect(ctx)
		if err != nil {
			logger.Warn("seed: cache not cleared", "error", err)
			return nil
		}
		if err := store.InvalidateTags(ctx, services.TagProducts, services.TagTestimonials, services.TagAnnouncements); err != nil {
			logger.Warn("seed: cache not cleared", "error", err)
		}
		return nil
	},
}
