package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	tlsmgr "github.com/netlogics/ollama-router/pkg/security/tls"
)

var certsInfoFlags struct {
	format string
}

var certsInfoCmd = &cobra.Command{
	Use:   "info [cert-file]",
	Short: "Display certificate details",
	Long: `Display information about a PEM-encoded TLS certificate: subject,
issuer, validity period, and subject alternative names.

Output formats:
  - text (default): Human-readable formatted output
  - json: JSON-formatted output for scripting

Examples:
  # Display certificate info in text format
  ollama-router certs info .certs/server.crt

  # Display in JSON format
  ollama-router certs info --format json .certs/server.crt`,
	Args: cobra.ExactArgs(1),
	RunE: displayCertInfo,
}

func init() {
	certsCmd.AddCommand(certsInfoCmd)

	certsInfoCmd.Flags().StringVar(&certsInfoFlags.format, "format", "text", "output format: text, json")
}

func displayCertInfo(cmd *cobra.Command, args []string) error {
	certFile := args[0]

	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return fmt.Errorf("failed to read certificate: %w", err)
	}

	info, err := tlsmgr.ParseCertificateInfo(certPEM)
	if err != nil {
		return err
	}

	if certsInfoFlags.format == "json" {
		return printCertJSON(info)
	}
	return printCertText(info, certFile)
}

func printCertText(info *tlsmgr.CertificateInfo, file string) error {
	fmt.Printf("Certificate: %s\n\n", file)
	fmt.Printf("Subject: %s\n", info.Subject)
	fmt.Printf("Issuer:  %s\n", info.Issuer)
	fmt.Printf("Serial:  %s\n", info.SerialNumber)

	fmt.Println("\nValidity:")
	fmt.Printf("  Not Before: %s\n", info.NotBefore.Format(time.RFC3339))
	fmt.Printf("  Not After:  %s\n", info.NotAfter.Format(time.RFC3339))

	now := time.Now()
	if now.After(info.NotAfter) {
		fmt.Printf("  Status: EXPIRED on %s\n", info.NotAfter.Format("2006-01-02"))
	} else {
		days, warning := tlsmgr.CheckCertificateExpiration(info.NotAfter)
		fmt.Printf("  Status: valid (%d days remaining)\n", days)
		if warning != "" {
			fmt.Printf("  Warning: %s\n", warning)
		}
	}

	if len(info.DNSNames) > 0 || len(info.IPAddresses) > 0 {
		fmt.Println("\nSubject Alternative Names:")
		for _, name := range info.DNSNames {
			fmt.Printf("  - DNS: %s\n", name)
		}
		for _, ip := range info.IPAddresses {
			fmt.Printf("  - IP: %s\n", ip)
		}
	}

	return nil
}

func printCertJSON(info *tlsmgr.CertificateInfo) error {
	days, warning := tlsmgr.CheckCertificateExpiration(info.NotAfter)

	data := map[string]interface{}{
		"subject":       info.Subject,
		"issuer":        info.Issuer,
		"serial_number": info.SerialNumber,
		"validity": map[string]interface{}{
			"not_before":     info.NotBefore.Format(time.RFC3339),
			"not_after":      info.NotAfter.Format(time.RFC3339),
			"days_remaining": days,
			"is_expired":     time.Now().After(info.NotAfter),
		},
		"sans": map[string]interface{}{
			"dns": info.DNSNames,
			"ip":  info.IPAddresses,
		},
	}
	if warning != "" {
		data["warning"] = warning
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
