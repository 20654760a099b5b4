// Package main provides the entry point for the DSA Buddy HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dsa_buddy",
	Short: "DSA Buddy HTTP API Server",
	Long:  "DSA Buddy tracks algorithmic interview problems and serves cached AI mentor guidance for each problem through a seven-step study flow via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
