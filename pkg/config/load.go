package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for all environment variable overrides.
// Nested sections are separated by a double underscore, e.g.
// OLLAMA_ROUTER_SERVER__SSL__CERT_DIR.
const EnvPrefix = "OLLAMA_ROUTER_"

// Load loads configuration from a YAML file at the specified path.
// An empty path yields the default configuration. Defaults are applied
// and the result validated; environment variables are not consulted.
// Use LoadWithEnvOverrides for the full precedence chain.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables always take
// precedence over file values; command-line flags, applied by the
// caller after loading, take precedence over both.
//
// The loading sequence is:
//  1. Load YAML from file (empty path allowed)
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate the final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format OLLAMA_ROUTER_SECTION__FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER__HOST", &cfg.Server.Host)
	envInt("SERVER__PORT", &cfg.Server.Port)
	envDuration("SERVER__SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// SSL overrides
	envBoolPtr("SERVER__SSL__AUTO_GENERATE", &cfg.Server.SSL.AutoGenerate)
	envString("SERVER__SSL__CERT_DIR", &cfg.Server.SSL.CertDir)
	envString("SERVER__SSL__CERT_PATH", &cfg.Server.SSL.CertPath)
	envString("SERVER__SSL__KEY_PATH", &cfg.Server.SSL.KeyPath)
	envInt("SERVER__SSL__VALIDITY_DAYS", &cfg.Server.SSL.ValidityDays)

	// Ollama overrides
	envString("OLLAMA__BASE_URL", &cfg.Ollama.BaseURL)
	envDuration("OLLAMA__TIMEOUT", &cfg.Ollama.Timeout)
	envInt("OLLAMA__MAX_CONNECTIONS", &cfg.Ollama.MaxConnections)

	// Logging overrides
	envString("LOGGING__LEVEL", &cfg.Logging.Level)
	envString("LOGGING__FORMAT", &cfg.Logging.Format)
	envBoolPtr("LOGGING__LOG_REQUESTS", &cfg.Logging.LogRequests)
	envBool("LOGGING__LOG_RESPONSES", &cfg.Logging.LogResponses)
	envString("LOGGING__LOG_DIR", &cfg.Logging.LogDir)

	// Telemetry overrides
	envBoolPtr("TELEMETRY__METRICS__ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY__METRICS__PATH", &cfg.Telemetry.Metrics.Path)

	// Security overrides
	envString("SECURITY__RENEWAL_SCHEDULE", &cfg.Security.RenewalSchedule)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envBoolPtr(key string, dst **bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = &b
		}
	}
}

// envDuration accepts either a Go duration string or an integer number
// of seconds, matching the YAML Duration behavior.
func envDuration(key string, dst *Duration) {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return
	}
	if secs, err := strconv.ParseInt(val, 10, 64); err == nil {
		*dst = Duration(time.Duration(secs) * time.Second)
		return
	}
	if d, err := time.ParseDuration(val); err == nil {
		*dst = Duration(d)
	}
}
