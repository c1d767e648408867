package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netlogics/ollama-router/pkg/config"
	"github.com/netlogics/ollama-router/pkg/routing"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load and validate the configuration without starting the server.

The command resolves the full configuration (defaults, file, and
environment overrides), validates it, and prints the effective route
table including the implicit catch-all rule.

Examples:
  # Validate the default configuration
  ollama-router validate

  # Validate a specific file
  ollama-router validate --config /etc/ollama-router/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	rules := make([]routing.Rule, 0, len(cfg.Routes))
	for _, route := range cfg.Routes {
		rules = append(rules, routing.Rule{
			Pattern: route.Path,
			Timeout: route.Timeout.Std(),
		})
	}
	table, err := routing.New(rules, cfg.Ollama.Timeout.Std())
	if err != nil {
		return fmt.Errorf("route table invalid: %w", err)
	}

	fmt.Println("Configuration valid")
	fmt.Println()
	fmt.Printf("Listen:  %s\n", cfg.Server.ListenAddress())
	fmt.Printf("Backend: %s\n", cfg.Ollama.BaseURL)
	fmt.Println()
	fmt.Println("Routes:")
	for _, rule := range table.Rules() {
		fmt.Printf("  %-30s %s\n", rule.Pattern, rule.Timeout)
	}

	return nil
}
