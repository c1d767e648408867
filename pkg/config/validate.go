package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Valid values for enumerated fields.
var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "text": true}
)

// Validate checks a configuration for errors. It is called after
// defaults are applied, so zero values that have defaults are never
// seen here. Any error returned is fatal: the process must not bind
// the listener with an invalid configuration.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateOllama(&cfg.Ollama); err != nil {
		return err
	}
	if err := validateRoutes(cfg.Routes); err != nil {
		return err
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}
	if err := validateSecurity(&cfg.Security); err != nil {
		return err
	}
	return nil
}

func validateServer(server *ServerConfig) error {
	if server.Port < 1 || server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", server.Port)
	}

	ssl := &server.SSL
	if ssl.ValidityDays < 1 {
		return fmt.Errorf("server.ssl.validity_days must be positive, got %d", ssl.ValidityDays)
	}
	if ssl.AutoGenerate != nil && !*ssl.AutoGenerate {
		if ssl.CertPath == "" || ssl.KeyPath == "" {
			return fmt.Errorf("server.ssl.cert_path and server.ssl.key_path are required when auto_generate is false")
		}
	}
	if ssl.CertDir == "" {
		return fmt.Errorf("server.ssl.cert_dir must not be empty")
	}

	if server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	return nil
}

func validateOllama(ollama *OllamaConfig) error {
	u, err := url.Parse(ollama.BaseURL)
	if err != nil {
		return fmt.Errorf("ollama.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("ollama.base_url must use http or https, got %q", ollama.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("ollama.base_url is missing a host: %q", ollama.BaseURL)
	}

	if ollama.Timeout <= 0 {
		return fmt.Errorf("ollama.timeout must be positive")
	}
	if ollama.MaxConnections < 1 {
		return fmt.Errorf("ollama.max_connections must be positive, got %d", ollama.MaxConnections)
	}

	return nil
}

func validateRoutes(routes []RouteConfig) error {
	for i, route := range routes {
		if route.Path == "" {
			return fmt.Errorf("routes[%d].path must not be empty", i)
		}
		if !strings.HasPrefix(route.Path, "/") {
			return fmt.Errorf("routes[%d].path must start with '/', got %q", i, route.Path)
		}
		// "*" is only meaningful as a trailing "/*" wildcard.
		if idx := strings.Index(route.Path, "*"); idx >= 0 {
			if !strings.HasSuffix(route.Path, "/*") || idx != len(route.Path)-1 {
				return fmt.Errorf("routes[%d].path %q: wildcard is only allowed as a trailing \"/*\"", i, route.Path)
			}
		}
		if route.Timeout < 0 {
			return fmt.Errorf("routes[%d].timeout must not be negative", i)
		}
	}
	return nil
}

func validateLogging(logging *LoggingConfig) error {
	if !validLogLevels[logging.Level] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", logging.Level)
	}
	if !validLogFormats[logging.Format] {
		return fmt.Errorf("logging.format must be json or text, got %q", logging.Format)
	}
	if logging.LogDir == "" {
		return fmt.Errorf("logging.log_dir must not be empty")
	}
	return nil
}

func validateSecurity(security *SecurityConfig) error {
	if security.RenewalSchedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(security.RenewalSchedule); err != nil {
		return fmt.Errorf("security.renewal_schedule is not a valid cron expression %q: %w", security.RenewalSchedule, err)
	}
	return nil
}
