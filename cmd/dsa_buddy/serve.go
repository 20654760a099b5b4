package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/dsa-buddy/internal/config"
	"github.com/jonathan/dsa-buddy/internal/server"
)

var (
	serveConfigPath  string
	servePort        int
	serveDatabaseURL string
	serveProvider    string
	serveModel       string
	serveAPIKey      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for problem tracking and AI mentor guidance.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 3001)")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "postgres:// URL or SQLite file path (defaults to DATABASE_URL env var, then dsa_buddy.db)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", `LLM provider: "gemini" or "openai" (defaults to LLM_PROVIDER env var, then gemini)`)
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Override the default model for the chosen provider")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "LLM API key (defaults to GEMINI_API_KEY or OPENAI_API_KEY env var)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	if cfg.APIKey == "" {
		return fmt.Errorf("an API key is required: pass --api-key or set GEMINI_API_KEY / OPENAI_API_KEY")
	}

	srv, err := server.New(server.Config{
		Port:        cfg.Port,
		DatabaseURL: cfg.DatabaseURL,
		APIKey:      cfg.APIKey,
		Provider:    cfg.Provider,
		Model:       cfg.Model,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// resolveConfig merges flags, an optional config file, environment
// variables, and built-in defaults, in that order of precedence.
func resolveConfig() (config.Config, error) {
	cfg := config.Config{
		Port:        servePort,
		DatabaseURL: serveDatabaseURL,
		Provider:    serveProvider,
		Model:       serveModel,
		APIKey:      serveAPIKey,
	}

	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		cfg = cfg.MergeWithDefaults(*loaded)
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		Port:        3001,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Provider:    os.Getenv("LLM_PROVIDER"),
	})
	cfg = cfg.MergeWithDefaults(config.Config{
		DatabaseURL: "dsa_buddy.db",
		Provider:    "gemini",
	})
	if cfg.APIKey == "" {
		cfg.APIKey = apiKeyFromEnv(cfg.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func apiKeyFromEnv(provider string) string {
	if provider == "openai" {
		return os.Getenv("OPENAI_API_KEY")
	}
	return os.Getenv("GEMINI_API_KEY")
}
