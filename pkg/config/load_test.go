package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != DefaultHost {
		t.Errorf("host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Ollama.BaseURL != DefaultOllamaBaseURL {
		t.Errorf("base_url = %q, want %q", cfg.Ollama.BaseURL, DefaultOllamaBaseURL)
	}
	if cfg.Ollama.Timeout.Std() != DefaultOllamaTimeout {
		t.Errorf("timeout = %v, want %v", cfg.Ollama.Timeout.Std(), DefaultOllamaTimeout)
	}
	if len(cfg.Routes) == 0 {
		t.Error("expected default routes to be applied")
	}
	if cfg.Logging.LogRequests == nil || !*cfg.Logging.LogRequests {
		t.Error("log_requests should default to true")
	}
	if cfg.Server.SSL.AutoGenerate == nil || !*cfg.Server.SSL.AutoGenerate {
		t.Error("auto_generate should default to true")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: 127.0.0.1
  port: 9443
  ssl:
    cert_dir: /tmp/certs
    validity_days: 30
ollama:
  base_url: http://127.0.0.1:11434
  timeout: 120s
routes:
  - path: /v1/chat/completions
    timeout: 600
  - path: /v1/models
    timeout: 30s
logging:
  level: debug
  format: text
  log_requests: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9443 {
		t.Errorf("port = %d, want 9443", cfg.Server.Port)
	}
	if cfg.Server.SSL.ValidityDays != 30 {
		t.Errorf("validity_days = %d, want 30", cfg.Server.SSL.ValidityDays)
	}
	if cfg.Ollama.Timeout.Std() != 120*time.Second {
		t.Errorf("ollama timeout = %v, want 120s", cfg.Ollama.Timeout.Std())
	}
	if len(cfg.Routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(cfg.Routes))
	}
	// Bare integers are seconds, duration strings parse as-is.
	if cfg.Routes[0].Timeout.Std() != 600*time.Second {
		t.Errorf("route 0 timeout = %v, want 600s", cfg.Routes[0].Timeout.Std())
	}
	if cfg.Routes[1].Timeout.Std() != 30*time.Second {
		t.Errorf("route 1 timeout = %v, want 30s", cfg.Routes[1].Timeout.Std())
	}
	if cfg.Logging.LogRequests == nil || *cfg.Logging.LogRequests {
		t.Error("log_requests should be false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadListenAddress(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Server.ListenAddress(); got != "0.0.0.0:8443" {
		t.Errorf("listen address = %q, want 0.0.0.0:8443", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: 127.0.0.1
  port: 9443
`)

	t.Setenv("OLLAMA_ROUTER_SERVER__PORT", "10443")
	t.Setenv("OLLAMA_ROUTER_OLLAMA__BASE_URL", "http://ollama.internal:11434")
	t.Setenv("OLLAMA_ROUTER_OLLAMA__TIMEOUT", "90")
	t.Setenv("OLLAMA_ROUTER_LOGGING__LEVEL", "warn")
	t.Setenv("OLLAMA_ROUTER_SERVER__SSL__AUTO_GENERATE", "false")
	t.Setenv("OLLAMA_ROUTER_SERVER__SSL__CERT_PATH", "/etc/ssl/server.crt")
	t.Setenv("OLLAMA_ROUTER_SERVER__SSL__KEY_PATH", "/etc/ssl/server.key")

	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env beats file.
	if cfg.Server.Port != 10443 {
		t.Errorf("port = %d, want 10443", cfg.Server.Port)
	}
	// File value untouched by env survives.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Ollama.BaseURL != "http://ollama.internal:11434" {
		t.Errorf("base_url = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Ollama.Timeout.Std() != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", cfg.Ollama.Timeout.Std())
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Server.SSL.AutoGenerate == nil || *cfg.Server.SSL.AutoGenerate {
		t.Error("auto_generate should be overridden to false")
	}
}

func TestEnvOverrideInvalidValueRejected(t *testing.T) {
	t.Setenv("OLLAMA_ROUTER_SERVER__PORT", "99999")

	if _, err := LoadWithEnvOverrides(""); err == nil {
		t.Error("expected validation error for out-of-range port override")
	}
}
