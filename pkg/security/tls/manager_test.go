package tls

import (
	"bytes"
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/netlogics/ollama-router/pkg/config"
)

func testSSLConfig(t *testing.T) *config.SSLConfig {
	t.Helper()
	autoGenerate := true
	return &config.SSLConfig{
		AutoGenerate: &autoGenerate,
		CertDir:      t.TempDir(),
		ValidityDays: 365,
	}
}

func TestEnsureGeneratesCertificate(t *testing.T) {
	cfg := testSSLConfig(t)
	manager := NewManager(cfg)

	cert, err := manager.Ensure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cert.CertPEM) == 0 || len(cert.KeyPEM) == 0 {
		t.Fatal("expected non-empty PEM material")
	}

	// The pair must load as a usable TLS key pair.
	pair, err := tls.X509KeyPair(cert.CertPEM, cert.KeyPEM)
	if err != nil {
		t.Fatalf("generated pair does not load: %v", err)
	}
	if err := ValidateKeyPair(&pair); err != nil {
		t.Errorf("generated pair does not validate: %v", err)
	}

	// Validity window covers the configured number of days.
	wantExpiry := time.Now().AddDate(0, 0, cfg.ValidityDays)
	if cert.NotAfter.Before(wantExpiry.Add(-time.Hour)) || cert.NotAfter.After(wantExpiry.Add(time.Hour)) {
		t.Errorf("NotAfter = %v, want about %v", cert.NotAfter, wantExpiry)
	}

	info, err := ParseCertificateInfo(cert.CertPEM)
	if err != nil {
		t.Fatalf("failed to parse generated certificate: %v", err)
	}
	if len(info.DNSNames) == 0 || info.DNSNames[0] != "localhost" {
		t.Errorf("DNS names = %v, want localhost", info.DNSNames)
	}
}

func TestEnsurePersistsWithRestrictivePermissions(t *testing.T) {
	cfg := testSSLConfig(t)
	manager := NewManager(cfg)

	if _, err := manager.Ensure(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keyInfo, err := os.Stat(manager.KeyFile())
	if err != nil {
		t.Fatalf("key file not written: %v", err)
	}
	if perm := keyInfo.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file permissions = %o, want 600", perm)
	}

	if _, err := os.Stat(manager.CertFile()); err != nil {
		t.Errorf("cert file not written: %v", err)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	cfg := testSSLConfig(t)
	manager := NewManager(cfg)

	first, err := manager.Ensure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := manager.Ensure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(first.CertPEM, second.CertPEM) {
		t.Error("still-valid certificate was regenerated")
	}
	if !bytes.Equal(first.KeyPEM, second.KeyPEM) {
		t.Error("still-valid key was regenerated")
	}
}

func TestEnsureRegeneratesInsideGraceWindow(t *testing.T) {
	cfg := testSSLConfig(t)
	manager := NewManager(cfg)

	first, err := manager.Ensure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Pretend the clock advanced to just inside the grace window.
	manager.now = func() time.Time {
		return first.NotAfter.Add(-RenewalGracePeriod + time.Hour)
	}

	second, err := manager.Ensure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bytes.Equal(first.CertPEM, second.CertPEM) {
		t.Error("certificate inside grace window was not regenerated")
	}
	if !second.NotAfter.After(first.NotAfter) {
		t.Errorf("regenerated NotAfter %v not after original %v", second.NotAfter, first.NotAfter)
	}
}

func TestEnsureManualModeRequiresFiles(t *testing.T) {
	autoGenerate := false
	dir := t.TempDir()
	cfg := &config.SSLConfig{
		AutoGenerate: &autoGenerate,
		CertDir:      dir,
		CertPath:     filepath.Join(dir, "external.crt"),
		KeyPath:      filepath.Join(dir, "external.key"),
		ValidityDays: 365,
	}

	manager := NewManager(cfg)
	if _, err := manager.Ensure(); err == nil {
		t.Fatal("expected error for missing external certificate pair")
	}
}

func TestEnsureManualModeUsesExistingFiles(t *testing.T) {
	// Generate a pair first, then point a manual-mode manager at it.
	genCfg := testSSLConfig(t)
	genManager := NewManager(genCfg)
	if _, err := genManager.Ensure(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	autoGenerate := false
	cfg := &config.SSLConfig{
		AutoGenerate: &autoGenerate,
		CertDir:      genCfg.CertDir,
		CertPath:     genManager.CertFile(),
		KeyPath:      genManager.KeyFile(),
		ValidityDays: 365,
	}

	manager := NewManager(cfg)
	cert, err := manager.Ensure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cert.CertPEM) == 0 {
		t.Error("expected existing certificate material")
	}
}

func TestEnsureUnwritableDirFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	parent := t.TempDir()
	if err := os.Chmod(parent, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(parent, 0o700) })

	autoGenerate := true
	cfg := &config.SSLConfig{
		AutoGenerate: &autoGenerate,
		CertDir:      filepath.Join(parent, "certs"),
		ValidityDays: 365,
	}

	manager := NewManager(cfg)
	if _, err := manager.Ensure(); err == nil {
		t.Fatal("expected error for unwritable certificate directory")
	}
}
