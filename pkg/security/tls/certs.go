package tls

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"
)

// ValidateKeyPair checks that a loaded certificate is present, parsable,
// and within its validity window.
func ValidateKeyPair(cert *tls.Certificate) error {
	if cert == nil {
		return fmt.Errorf("certificate is nil")
	}
	if len(cert.Certificate) == 0 {
		return fmt.Errorf("certificate chain is empty")
	}

	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	return ValidateX509Certificate(x509Cert)
}

// ValidateX509Certificate validates an x509 certificate for expiration.
func ValidateX509Certificate(cert *x509.Certificate) error {
	now := time.Now()

	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired on %s", cert.NotAfter.Format(time.RFC3339))
	}

	return nil
}

// CheckCertificateExpiration returns the number of days until notAfter
// and a non-empty warning when expiry falls inside the renewal grace
// window.
func CheckCertificateExpiration(notAfter time.Time) (daysUntilExpiry int, warning string) {
	duration := time.Until(notAfter)
	daysUntilExpiry = int(duration.Hours() / 24)

	if duration < RenewalGracePeriod {
		warning = fmt.Sprintf("certificate expires in %d days (on %s)",
			daysUntilExpiry, notAfter.Format("2006-01-02"))
	}

	return daysUntilExpiry, warning
}

// CertificateInfo is human-readable certificate metadata, used by the
// certs CLI subcommand and startup logging.
type CertificateInfo struct {
	Subject      string
	Issuer       string
	SerialNumber string
	NotBefore    time.Time
	NotAfter     time.Time
	DNSNames     []string
	IPAddresses  []string
}

// ParseCertificateInfo extracts metadata from a PEM-encoded
// certificate.
func ParseCertificateInfo(certPEM []byte) (*CertificateInfo, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, fmt.Errorf("not a PEM certificate")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	info := &CertificateInfo{
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		SerialNumber: fmt.Sprintf("%x", cert.SerialNumber),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		DNSNames:     cert.DNSNames,
	}
	for _, ip := range cert.IPAddresses {
		info.IPAddresses = append(info.IPAddresses, ip.String())
	}

	return info, nil
}

// samePEMCertificate reports whether a PEM-encoded certificate carries
// the same DER bytes as der.
func samePEMCertificate(certPEM, der []byte) bool {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return false
	}
	return bytes.Equal(block.Bytes, der)
}
