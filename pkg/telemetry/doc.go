// Package telemetry provides observability for ollama-router.
//
// # Components
//
//   - logging: structured slog setup (JSON or text, configurable level)
//   - metrics: Prometheus metrics collection and the /metrics endpoint
//
// Both components are configured from the telemetry and logging
// sections of the configuration and are safe for concurrent use.
package telemetry
