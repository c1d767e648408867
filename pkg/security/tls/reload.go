package tls

import (
	"crypto/tls"
	"encoding/pem"
	"log/slog"
	"sync"
	"time"
)

// CertificateReloader holds the certificate currently served to clients
// and swaps it atomically when the pair on disk changes. The listener
// consumes it through GetCertificateFunc, so renewal never requires a
// restart.
type CertificateReloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewCertificateReloader creates a reloader for the given pair and
// performs the initial load.
func NewCertificateReloader(certFile, keyFile string) (*CertificateReloader, error) {
	r := &CertificateReloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default().With("component", "tls.reloader"),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload loads the pair from disk, validates it, and swaps it in.
// The previous certificate stays in service if the reload fails.
func (r *CertificateReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return &CertificateError{Op: "reload", Err: err}
	}
	if err := ValidateKeyPair(&cert); err != nil {
		return &CertificateError{Op: "reload", Err: err}
	}

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	r.logCertificateInfo()
	return nil
}

// GetCertificate returns the currently served certificate.
func (r *CertificateReloader) GetCertificate() *tls.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert
}

// GetCertificateFunc returns a function compatible with
// tls.Config.GetCertificate.
func (r *CertificateReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		return r.GetCertificate(), nil
	}
}

// ServerTLSConfig builds the listener's TLS configuration around the
// reloader. TLS 1.2 is the floor so stock OpenAI client libraries can
// connect.
func (r *CertificateReloader) ServerTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: r.GetCertificateFunc(),
	}
}

// logCertificateInfo logs the serving certificate's validity window.
func (r *CertificateReloader) logCertificateInfo() {
	cert := r.GetCertificate()
	if cert == nil || len(cert.Certificate) == 0 {
		return
	}

	der := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]})
	info, err := ParseCertificateInfo(der)
	if err != nil {
		return
	}

	daysUntilExpiry, warning := CheckCertificateExpiration(info.NotAfter)
	if warning != "" {
		r.logger.Warn("certificate expiring soon",
			"subject", info.Subject,
			"expires_in_days", daysUntilExpiry,
			"expires_at", info.NotAfter.Format(time.RFC3339),
		)
		return
	}

	r.logger.Info("certificate loaded",
		"subject", info.Subject,
		"expires_in_days", daysUntilExpiry,
		"expires_at", info.NotAfter.Format(time.RFC3339),
	)
}
