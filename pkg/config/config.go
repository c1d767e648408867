package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for ollama-router.
type Config struct {
	// Server contains the HTTPS listener configuration including bind
	// address and TLS certificate settings.
	Server ServerConfig `yaml:"server"`

	// Ollama contains the backend connection configuration.
	Ollama OllamaConfig `yaml:"ollama"`

	// Routes is the ordered list of route rules. The first rule whose
	// pattern matches the request path wins. A catch-all default rule
	// carrying the Ollama default timeout is always appended by the
	// routing table, so the list may be empty.
	Routes []RouteConfig `yaml:"routes"`

	// Logging contains structured logging and request log configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry contains observability configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains certificate lifecycle configuration beyond the
	// per-listener SSL settings.
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains configuration for the HTTPS listener.
type ServerConfig struct {
	// Host is the bind address.
	// Default: "0.0.0.0"
	Host string `yaml:"host"`

	// Port is the listen port.
	// Default: 8443
	Port int `yaml:"port"`

	// SSL contains TLS certificate configuration. The proxy never falls
	// back to plaintext; certificate problems are fatal at startup.
	SSL SSLConfig `yaml:"ssl"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// requests during graceful shutdown.
	// Default: 30s
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// SSLConfig contains TLS certificate configuration.
type SSLConfig struct {
	// AutoGenerate controls whether a self-signed certificate is
	// generated when none exists or the existing one is near expiry.
	// Default: true
	AutoGenerate *bool `yaml:"auto_generate"`

	// CertDir is the directory where generated certificates are stored.
	// Default: ".certs"
	CertDir string `yaml:"cert_dir"`

	// CertPath and KeyPath point at an externally managed certificate
	// pair. Only consulted when AutoGenerate is false; both files must
	// exist at startup.
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`

	// ValidityDays is the validity period for generated certificates.
	// Default: 365
	ValidityDays int `yaml:"validity_days"`
}

// OllamaConfig contains configuration for the Ollama backend connection.
type OllamaConfig struct {
	// BaseURL is the backend base URL. The original request path is
	// appended unmodified.
	// Default: "http://localhost:11434"
	BaseURL string `yaml:"base_url"`

	// Timeout is the default per-request timeout, used by the catch-all
	// route rule. It bounds the entire outbound exchange as a wall-clock
	// deadline, including time spent streaming.
	// Default: 600s
	Timeout Duration `yaml:"timeout"`

	// MaxConnections caps the number of connections to the backend.
	// Default: 100
	MaxConnections int `yaml:"max_connections"`
}

// RouteConfig is a single route rule in the configuration file.
type RouteConfig struct {
	// Path is the route pattern: an exact path, or a prefix when the
	// pattern ends in "/*" (e.g. "/api/*").
	Path string `yaml:"path"`

	// Timeout overrides the default timeout for matching requests.
	// Zero means the default timeout applies.
	Timeout Duration `yaml:"timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format ("json" or "text").
	// Default: "json"
	Format string `yaml:"format"`

	// LogRequests controls whether one structured record is appended to
	// the request log for every proxied request.
	// Default: true
	LogRequests *bool `yaml:"log_requests"`

	// LogResponses additionally records response status and byte counts
	// at debug level. Verbose; off by default.
	LogResponses bool `yaml:"log_responses"`

	// LogDir is the directory for the request log file.
	// Default: "logs"
	LogDir string `yaml:"log_dir"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the metrics endpoint path, served by the proxy itself and
	// never forwarded to the backend.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "ollama_router"
	Namespace string `yaml:"namespace"`
}

// SecurityConfig contains certificate lifecycle configuration.
type SecurityConfig struct {
	// RenewalSchedule is a cron expression controlling periodic
	// certificate renewal checks (e.g. "0 3 * * *" for daily at 3 AM).
	// Empty disables scheduled renewal; the certificate is then only
	// checked at startup.
	RenewalSchedule string `yaml:"renewal_schedule"`
}

// Duration wraps time.Duration with YAML support for both Go duration
// strings ("600s", "10m") and bare integers, which are interpreted as
// seconds for compatibility with older configuration files.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var secs int64
	if err := value.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ListenAddress returns the "host:port" address for the listener.
func (s *ServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
