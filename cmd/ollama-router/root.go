package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "ollama-router",
	Short: "HTTPS reverse proxy for a local Ollama backend",
	Long: `Ollama Router is an HTTPS reverse proxy that sits between
OpenAI-compatible clients and a local Ollama instance.

It provides:
  - TLS termination with automatic self-signed certificate management
  - Per-route request timeouts with a configurable default
  - Streaming passthrough for SSE and NDJSON responses
  - Structured request logging and Prometheus metrics`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Empty means built-in defaults plus environment overrides.
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
}
