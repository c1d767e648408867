// Ollama Router is an HTTPS reverse proxy for a local Ollama backend.
//
// It terminates TLS with a self-managed certificate, applies per-route
// timeout policy, relays OpenAI-compatible requests to Ollama with
// streaming passthrough, and logs one structured record per request.
//
// Usage:
//
//	# Start the proxy with default configuration
//	ollama-router run
//
//	# Start with a custom configuration file
//	ollama-router run --config /etc/ollama-router/config.yaml
//
//	# Validate a configuration file
//	ollama-router validate --config config.yaml
//
//	# Inspect the active certificate
//	ollama-router certs info .certs/server.crt
package main

func main() {
	Execute()
}
