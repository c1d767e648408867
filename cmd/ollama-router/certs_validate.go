package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	tlsmgr "github.com/netlogics/ollama-router/pkg/security/tls"
)

var certsValidateFlags struct {
	certFile string
	keyFile  string
}

var certsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a certificate and key pair",
	Long: `Validate a TLS certificate and private key.

This command validates:
  - Certificate and key pair match
  - Certificate is within its validity window
  - Expiration warnings inside the renewal grace window

Examples:
  # Validate certificate and key match
  ollama-router certs validate --cert server.crt --key server.key`,
	RunE: validateCertificate,
}

func init() {
	certsCmd.AddCommand(certsValidateCmd)

	certsValidateCmd.Flags().StringVar(&certsValidateFlags.certFile, "cert", "", "certificate file (required)")
	certsValidateCmd.Flags().StringVar(&certsValidateFlags.keyFile, "key", "", "private key file (required)")

	_ = certsValidateCmd.MarkFlagRequired("cert")
	_ = certsValidateCmd.MarkFlagRequired("key")
}

func validateCertificate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating certificate: %s\n\n", certsValidateFlags.certFile)

	pair, err := tls.LoadX509KeyPair(certsValidateFlags.certFile, certsValidateFlags.keyFile)
	if err != nil {
		fmt.Println("FAIL: certificate and key do not form a valid pair")
		return err
	}
	fmt.Println("OK: certificate and key match")

	if err := tlsmgr.ValidateKeyPair(&pair); err != nil {
		fmt.Println("FAIL: certificate is outside its validity window")
		return err
	}

	certPEM, err := os.ReadFile(certsValidateFlags.certFile)
	if err != nil {
		return fmt.Errorf("failed to read certificate: %w", err)
	}
	info, err := tlsmgr.ParseCertificateInfo(certPEM)
	if err != nil {
		return err
	}
	fmt.Printf("OK: certificate valid until %s\n", info.NotAfter.Format(time.RFC3339))

	if _, warning := tlsmgr.CheckCertificateExpiration(info.NotAfter); warning != "" {
		fmt.Printf("WARNING: %s\n", warning)
	}

	return nil
}
