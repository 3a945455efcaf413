// Command atelier runs the storefront API and its maintenance tasks.
//
//	atelier serve              # start the HTTP server
//	atelier migrate            # run pending migrations
//	atelier migrate:rollback   # roll back the last batch
//	atelier migrate:status
//	atelier seed               # load the launch catalogue
//	atelier route:list
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Registered from init().
	_ "github.com/rainbowartistery/atelier/database/migrations"
	_ "github.com/rainbowartistery/atelier/database/seeders"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "atelier",
	Short:         "Rainbow Artistery storefront and back-office API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
}
