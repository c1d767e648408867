// Package proxy implements the forwarding engine between OpenAI-compatible
// clients and the Ollama backend.
//
// Each accepted request is matched against the route policy table, bound to
// a wall-clock deadline for the entire outbound exchange, and relayed to the
// backend with hop-by-hop headers stripped in both directions. Streaming
// responses (SSE, NDJSON, chunked) are relayed chunk by chunk with an
// explicit flush after every write so the first token reaches the client
// without buffering delay.
//
// Exactly one request log record with exactly one terminal outcome is
// emitted per accepted request: completed, timed_out, backend_error, or
// client_disconnected.
package proxy
