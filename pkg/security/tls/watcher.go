package tls

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// certWatchDebounce is the quiet period before a file event triggers a
// reload. Certificate and key are written as two files, so reacting to
// the first event alone would load a mismatched pair.
const certWatchDebounce = 500 * time.Millisecond

// CertWatcher watches the certificate directory and reloads the serving
// pair when the files are replaced on disk, e.g. by an operator
// dropping in an externally issued certificate.
type CertWatcher struct {
	watcher  *fsnotify.Watcher
	reloader *CertificateReloader
	logger   *slog.Logger
	dir      string
	files    map[string]bool

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewCertWatcher creates a watcher for the reloader's certificate pair.
// Both files must live in the same directory; the directory is watched
// rather than the files so that rename-based replacement is seen.
func NewCertWatcher(reloader *CertificateReloader) (*CertWatcher, error) {
	dir := filepath.Dir(reloader.certFile)
	if keyDir := filepath.Dir(reloader.keyFile); keyDir != dir {
		return nil, fmt.Errorf("certificate and key must share a directory, got %s and %s", dir, keyDir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &CertWatcher{
		watcher:  watcher,
		reloader: reloader,
		logger:   slog.Default().With("component", "tls.watcher"),
		dir:      dir,
		files: map[string]bool{
			filepath.Base(reloader.certFile): true,
			filepath.Base(reloader.keyFile):  true,
		},
	}, nil
}

// Watch blocks processing file events until the context is cancelled.
func (w *CertWatcher) Watch(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.logger.Info("certificate watcher started", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("certificate watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}
			w.logger.Debug("certificate file event",
				"path", event.Name,
				"op", event.Op.String(),
			)
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("certificate watcher error", "error", err)
		}
	}
}

// Close stops the watcher and cancels any pending reload.
func (w *CertWatcher) Close() error {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

// shouldProcessEvent filters events down to writes and renames of the
// watched pair.
func (w *CertWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return w.files[filepath.Base(event.Name)]
}

// scheduleReload debounces bursts of events into a single reload.
func (w *CertWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(certWatchDebounce, func() {
		if err := w.reloader.Reload(); err != nil {
			w.logger.Error("certificate reload failed", "error", err)
			return
		}
		w.logger.Info("certificate reloaded after file change", "dir", w.dir)
	})
}
