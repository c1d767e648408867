// Package middleware provides HTTP middleware for the proxy server:
// request ID assignment, structured access logging, and panic recovery.
package middleware
