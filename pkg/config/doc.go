// Package config loads and validates ollama-router configuration.
//
// Configuration is resolved in three layers with increasing precedence:
//
//  1. YAML configuration file
//  2. Environment variables (OLLAMA_ROUTER_ prefix, "__" section nesting)
//  3. Command-line flags (applied by the caller)
//
// Defaults are applied before validation, so a missing file or an empty
// section still yields a runnable configuration.
package config
