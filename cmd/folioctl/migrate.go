package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"folio/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		rt := openRuntime(ctx, cfg)
		defer rt.Close()

		slog.Debug("applying migrations", "dialect", rt.Dialect)
		if err := store.ApplyMigrations(ctx, rt.DB, rt.Dialect); err != nil {
			fatal("Failed to apply migrations", err)
		}
		fmt.Println("Migrations applied.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
