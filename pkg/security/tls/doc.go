// Package tls manages the proxy's TLS certificate lifecycle.
//
// The Manager generates and persists a self-signed certificate/key pair
// on first run, reuses a still-valid pair across restarts, and
// regenerates when the certificate is missing, unparsable, or within
// the renewal grace window of expiry. The CertificateReloader serves
// the current pair to the listener via tls.Config.GetCertificate and
// can be refreshed without a restart, either by the fsnotify-based
// CertWatcher when the files change on disk or by the cron-driven
// Renewer on a schedule.
//
// There is no plaintext fallback: any certificate failure at startup is
// fatal.
package tls
