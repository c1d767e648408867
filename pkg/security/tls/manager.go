package tls

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/netlogics/ollama-router/pkg/config"
)

const (
	// CertFileName and KeyFileName are the file names used for generated
	// certificates under the configured certificate directory.
	CertFileName = "server.crt"
	KeyFileName  = "server.key"

	// RenewalGracePeriod is how close to expiry a certificate may get
	// before Ensure regenerates it.
	RenewalGracePeriod = 7 * 24 * time.Hour

	rsaKeyBits = 2048
)

// CertificateError is a fatal certificate lifecycle failure. The proxy
// never falls back to plaintext, so callers treat it as a startup
// abort.
type CertificateError struct {
	Op  string
	Err error
}

func (e *CertificateError) Error() string {
	return fmt.Sprintf("certificate %s: %v", e.Op, e.Err)
}

func (e *CertificateError) Unwrap() error {
	return e.Err
}

// Certificate is a PEM-encoded certificate/key pair together with its
// validity window and on-disk location. It is immutable once returned;
// the listener receives a read-only reference.
type Certificate struct {
	CertPEM   []byte
	KeyPEM    []byte
	NotBefore time.Time
	NotAfter  time.Time

	CertFile string
	KeyFile  string
}

// Manager owns certificate generation and persistence.
type Manager struct {
	certFile     string
	keyFile      string
	autoGenerate bool
	validityDays int
	logger       *slog.Logger

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewManager creates a certificate manager from SSL configuration.
// When auto-generation is enabled the pair lives under cert_dir;
// otherwise the configured cert_path/key_path are used as-is.
func NewManager(cfg *config.SSLConfig) *Manager {
	certFile := cfg.CertPath
	keyFile := cfg.KeyPath
	if certFile == "" {
		certFile = filepath.Join(cfg.CertDir, CertFileName)
	}
	if keyFile == "" {
		keyFile = filepath.Join(cfg.CertDir, KeyFileName)
	}

	autoGenerate := cfg.AutoGenerate == nil || *cfg.AutoGenerate

	return &Manager{
		certFile:     certFile,
		keyFile:      keyFile,
		autoGenerate: autoGenerate,
		validityDays: cfg.ValidityDays,
		logger:       slog.Default().With("component", "tls.manager"),
		now:          time.Now,
	}
}

// CertFile returns the path of the certificate file the manager owns.
func (m *Manager) CertFile() string { return m.certFile }

// KeyFile returns the path of the private key file the manager owns.
func (m *Manager) KeyFile() string { return m.keyFile }

// Ensure returns a usable certificate/key pair, generating and
// persisting a new self-signed pair when none exists or the existing
// one is expired or inside the renewal grace window. A still-valid pair
// is returned byte-identical, never rewritten.
func (m *Manager) Ensure() (*Certificate, error) {
	existing, err := m.load()
	if err == nil && m.stillValid(existing) {
		return existing, nil
	}

	if !m.autoGenerate {
		if err != nil {
			return nil, &CertificateError{Op: "load", Err: fmt.Errorf(
				"certificate pair not usable at %s / %s and auto_generate is disabled: %w",
				m.certFile, m.keyFile, err)}
		}
		// Externally managed pair near expiry: serve it anyway, renewal
		// is the operator's responsibility.
		_, warning := CheckCertificateExpiration(existing.NotAfter)
		if warning != "" {
			m.logger.Warn("externally managed certificate expiring", "warning", warning)
		}
		return existing, nil
	}

	if err != nil {
		m.logger.Info("no usable certificate found, generating",
			"cert_file", m.certFile,
			"reason", err.Error(),
		)
	} else {
		m.logger.Info("certificate near expiry, regenerating",
			"cert_file", m.certFile,
			"not_after", existing.NotAfter.Format(time.RFC3339),
		)
	}

	generated, err := m.generate()
	if err != nil {
		return nil, err
	}
	if err := m.persist(generated); err != nil {
		return nil, err
	}

	m.logger.Info("generated self-signed certificate",
		"cert_file", m.certFile,
		"key_file", m.keyFile,
		"valid_days", m.validityDays,
	)

	return generated, nil
}

// load reads and parses the on-disk pair.
func (m *Manager) load() (*Certificate, error) {
	certPEM, err := os.ReadFile(m.certFile)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(m.keyFile)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, fmt.Errorf("certificate file %s is not PEM", m.certFile)
	}
	parsed, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	return &Certificate{
		CertPEM:   certPEM,
		KeyPEM:    keyPEM,
		NotBefore: parsed.NotBefore,
		NotAfter:  parsed.NotAfter,
		CertFile:  m.certFile,
		KeyFile:   m.keyFile,
	}, nil
}

// stillValid reports whether the pair is outside the renewal grace
// window.
func (m *Manager) stillValid(cert *Certificate) bool {
	now := m.now()
	return now.After(cert.NotBefore) && now.Add(RenewalGracePeriod).Before(cert.NotAfter)
}

// generate creates a new self-signed RSA certificate covering localhost.
func (m *Manager) generate() (*Certificate, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, &CertificateError{Op: "generate key", Err: err}
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, &CertificateError{Op: "generate serial", Err: err}
	}

	now := m.now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "localhost",
			Organization: []string{"Ollama Router"},
			Country:      []string{"US"},
		},
		NotBefore:             now,
		NotAfter:              now.AddDate(0, 0, m.validityDays),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1"), net.IPv4zero},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, &CertificateError{Op: "create certificate", Err: err}
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, &CertificateError{Op: "marshal key", Err: err}
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	return &Certificate{
		CertPEM:   certPEM,
		KeyPEM:    keyPEM,
		NotBefore: template.NotBefore,
		NotAfter:  template.NotAfter,
		CertFile:  m.certFile,
		KeyFile:   m.keyFile,
	}, nil
}

// persist writes the pair to disk. The directory is created
// owner-only; the key file is never world-readable.
func (m *Manager) persist(cert *Certificate) error {
	dir := filepath.Dir(m.certFile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &CertificateError{Op: "create cert dir", Err: err}
	}

	if err := os.WriteFile(m.certFile, cert.CertPEM, 0o644); err != nil {
		return &CertificateError{Op: "write certificate", Err: err}
	}
	if err := os.WriteFile(m.keyFile, cert.KeyPEM, 0o600); err != nil {
		return &CertificateError{Op: "write key", Err: err}
	}
	return nil
}
