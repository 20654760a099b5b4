package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/dsa-buddy/internal/db"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Open the configured database and apply the schema. Safe to run repeatedly.`,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "db-url", "", "postgres:// URL or SQLite file path (defaults to DATABASE_URL env var, then dsa_buddy.db)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	dsn := databaseURL(migrateDatabaseURL)

	store, err := db.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("schema created but ping failed: %w", err)
	}

	fmt.Printf("Schema is up to date (%s)\n", dsn)
	return nil
}
