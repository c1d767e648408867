package tls

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Renewer re-runs the certificate manager on a cron schedule so a
// long-lived proxy rotates its self-signed certificate before expiry
// instead of only at restarts. When Ensure regenerates the pair the
// reloader is refreshed, making the new certificate live immediately.
type Renewer struct {
	manager  *Manager
	reloader *CertificateReloader
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewRenewer creates a renewer. An empty schedule disables it.
func NewRenewer(manager *Manager, reloader *CertificateReloader, schedule string) *Renewer {
	return &Renewer{
		manager:  manager,
		reloader: reloader,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "tls.renewer"),
	}
}

// Start begins scheduled renewal checks. It returns immediately; jobs
// run on the cron's goroutine until the context is cancelled.
func (r *Renewer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" {
		r.logger.Info("renewal schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid renewal schedule %q: %w", r.schedule, err)
	}

	if _, err := r.cron.AddFunc(r.schedule, r.runRenewal); err != nil {
		return fmt.Errorf("failed to schedule certificate renewal: %w", err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("certificate renewal scheduler started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// runRenewal executes one renewal check.
func (r *Renewer) runRenewal() {
	before := r.reloader.GetCertificate()

	cert, err := r.manager.Ensure()
	if err != nil {
		r.logger.Error("scheduled certificate renewal failed", "error", err)
		return
	}

	// Ensure is idempotent for a still-valid pair; only reload when the
	// material actually changed.
	if before != nil && len(before.Certificate) > 0 && samePEMCertificate(cert.CertPEM, before.Certificate[0]) {
		r.logger.Debug("certificate still valid, no renewal needed")
		return
	}

	if err := r.reloader.Reload(); err != nil {
		r.logger.Error("failed to load renewed certificate", "error", err)
		return
	}

	r.logger.Info("certificate renewed", "not_after", cert.NotAfter)
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *Renewer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil && r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info("certificate renewal scheduler stopped")
	}
}
