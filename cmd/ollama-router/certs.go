package main

import (
	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Manage TLS certificates",
	Long: `Manage the TLS certificates used by the proxy listener.

Subcommands:
  generate - Generate a self-signed certificate pair
  info     - Display certificate details
  validate - Validate a certificate and key pair

Examples:
  # Generate a certificate under the default directory
  ollama-router certs generate

  # Display certificate information
  ollama-router certs info .certs/server.crt

  # Validate a certificate and key
  ollama-router certs validate --cert server.crt --key server.key`,
}

func init() {
	rootCmd.AddCommand(certsCmd)
}
