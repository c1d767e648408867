package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/netlogics/ollama-router/pkg/config"
	tlsmgr "github.com/netlogics/ollama-router/pkg/security/tls"
)

var certsGenerateFlags struct {
	certDir      string
	validityDays int
	force        bool
}

var certsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a self-signed certificate pair",
	Long: `Generate a self-signed RSA certificate for the proxy listener.

The certificate covers localhost, 127.0.0.1, ::1, and 0.0.0.0 and is
written with the same permissions the server uses at startup: the key
is never world-readable. An existing still-valid pair is kept unless
--force is given.

Examples:
  # Generate under the default .certs directory
  ollama-router certs generate

  # Generate with a 90 day validity
  ollama-router certs generate --validity-days 90

  # Replace an existing pair
  ollama-router certs generate --force`,
	RunE: generateCertificate,
}

func init() {
	certsCmd.AddCommand(certsGenerateCmd)

	certsGenerateCmd.Flags().StringVar(&certsGenerateFlags.certDir, "cert-dir", config.DefaultCertDir, "certificate directory")
	certsGenerateCmd.Flags().IntVar(&certsGenerateFlags.validityDays, "validity-days", config.DefaultValidityDays, "certificate validity in days")
	certsGenerateCmd.Flags().BoolVar(&certsGenerateFlags.force, "force", false, "replace an existing certificate pair")
}

func generateCertificate(cmd *cobra.Command, args []string) error {
	manager := tlsmgr.NewManager(&config.SSLConfig{
		CertDir:      certsGenerateFlags.certDir,
		ValidityDays: certsGenerateFlags.validityDays,
	})

	if certsGenerateFlags.force {
		for _, path := range []string{manager.CertFile(), manager.KeyFile()} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	}

	cert, err := manager.Ensure()
	if err != nil {
		return err
	}

	fmt.Printf("Certificate: %s\n", cert.CertFile)
	fmt.Printf("Private key: %s\n", cert.KeyFile)
	fmt.Printf("Valid from:  %s\n", cert.NotBefore.Format(time.RFC3339))
	fmt.Printf("Valid until: %s\n", cert.NotAfter.Format(time.RFC3339))

	return nil
}
