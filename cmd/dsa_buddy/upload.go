package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/dsa-buddy/internal/db"
	"github.com/jonathan/dsa-buddy/internal/ingestion"
)

var uploadDatabaseURL string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Bulk-import problems from a text or HTML file",
	Long: `Parse a file of problem lines (one problem per line) and insert each
as a tracked problem. HTML files are reduced to their visible text first,
one list item or table row per line.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadDatabaseURL, "db-url", "", "postgres:// URL or SQLite file path (defaults to DATABASE_URL env var, then dsa_buddy.db)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	contentType := "text/plain"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		contentType = "text/html"
	}
	text, err := ingestion.ExtractText(contentType, body)
	if err != nil {
		return err
	}

	store, err := db.Open(ctx, databaseURL(uploadDatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	created, err := ingestion.Ingest(ctx, store, text)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d problems:\n", len(created))
	for _, p := range created {
		fmt.Printf("  %s  [%s] %s\n", p.ID, p.Difficulty, p.Name)
	}
	return nil
}

// databaseURL resolves the store DSN from a flag value, the environment,
// or the default local SQLite file.
func databaseURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env
	}
	return "dsa_buddy.db"
}
