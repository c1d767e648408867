// Package server provides the HTTPS listener for the proxy.
//
// The server terminates TLS, serves the health and metrics endpoints
// itself, and hands every other path to the forwarding engine. It never
// listens on plaintext: certificate problems are fatal at startup.
package server
