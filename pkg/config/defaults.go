package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8443
	DefaultShutdownTimeout = 30 * time.Second

	// SSL defaults
	DefaultAutoGenerate = true
	DefaultCertDir      = ".certs"
	DefaultValidityDays = 365

	// Ollama defaults
	DefaultOllamaBaseURL  = "http://localhost:11434"
	DefaultOllamaTimeout  = 600 * time.Second
	DefaultMaxConnections = 100

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
	DefaultLogRequests   = true
	DefaultLogDir        = "logs"

	// Telemetry defaults
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "ollama_router"
)

// DefaultRoutes is the route set applied when the configuration declares
// none. Chat and legacy completions get the long streaming timeout;
// model listing and embeddings get shorter ones.
func DefaultRoutes() []RouteConfig {
	return []RouteConfig{
		{Path: "/v1/chat/completions", Timeout: Duration(600 * time.Second)},
		{Path: "/v1/models", Timeout: Duration(30 * time.Second)},
		{Path: "/v1/embeddings", Timeout: Duration(120 * time.Second)},
		{Path: "/v1/completions", Timeout: Duration(600 * time.Second)},
	}
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}

	// SSL defaults
	if cfg.Server.SSL.AutoGenerate == nil {
		autoGenerate := DefaultAutoGenerate
		cfg.Server.SSL.AutoGenerate = &autoGenerate
	}
	if cfg.Server.SSL.CertDir == "" {
		cfg.Server.SSL.CertDir = DefaultCertDir
	}
	if cfg.Server.SSL.ValidityDays == 0 {
		cfg.Server.SSL.ValidityDays = DefaultValidityDays
	}

	// Ollama defaults
	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.Ollama.Timeout == 0 {
		cfg.Ollama.Timeout = Duration(DefaultOllamaTimeout)
	}
	if cfg.Ollama.MaxConnections == 0 {
		cfg.Ollama.MaxConnections = DefaultMaxConnections
	}

	// Route defaults
	if len(cfg.Routes) == 0 {
		cfg.Routes = DefaultRoutes()
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Logging.LogRequests == nil {
		logRequests := DefaultLogRequests
		cfg.Logging.LogRequests = &logRequests
	}
	if cfg.Logging.LogDir == "" {
		cfg.Logging.LogDir = DefaultLogDir
	}

	// Telemetry defaults
	if cfg.Telemetry.Metrics.Enabled == nil {
		metricsEnabled := DefaultMetricsEnabled
		cfg.Telemetry.Metrics.Enabled = &metricsEnabled
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Default returns a fully defaulted configuration, equivalent to loading
// an empty configuration file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
