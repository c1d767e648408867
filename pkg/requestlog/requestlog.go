// Package requestlog emits one structured record per proxied request.
//
// Records are appended as JSON lines to a file under the configured log
// directory by a dedicated writer goroutine fed from a bounded channel.
// Submission never blocks the relay path: when the channel is full the
// record is dropped and counted rather than stalling a stream.
package requestlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// FileName is the request log file name under the log directory.
const FileName = "requests.log"

// DefaultBufferSize is the bounded channel capacity between request
// handlers and the writer goroutine.
const DefaultBufferSize = 1024

// Outcome is the terminal state of a proxied request. Exactly one
// record with exactly one outcome is emitted per accepted request.
type Outcome string

const (
	OutcomeCompleted          Outcome = "completed"
	OutcomeTimedOut           Outcome = "timed_out"
	OutcomeBackendError       Outcome = "backend_error"
	OutcomeClientDisconnected Outcome = "client_disconnected"
)

// Record is the per-request structured log entry. It is owned by the
// request's handling goroutine until finalized and must not be shared
// across requests.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	MatchedRoute string    `json:"matched_route"`
	RemoteAddr   string    `json:"remote_addr"`
	StatusCode   int       `json:"status_code"`
	BytesIn      int64     `json:"bytes_in"`
	BytesOut     int64     `json:"bytes_out"`
	DurationMs   int64     `json:"duration_ms"`
	Streamed     bool      `json:"streamed"`
	Outcome      Outcome   `json:"outcome"`
	Model        string    `json:"model,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Logger is the append-only request log sink. The writer goroutine is
// the only place that touches the underlying file, so appends are never
// interleaved.
type Logger struct {
	enabled bool
	records chan Record
	file    *os.File
	logger  *slog.Logger

	dropped   atomic.Int64
	closeOnce sync.Once
	done      chan struct{}

	// mu serializes Log against Close: closed is set before the channel
	// is closed, so a late Log drops the record instead of sending on a
	// closed channel.
	mu     sync.RWMutex
	closed bool
}

// Options configures a Logger.
type Options struct {
	// Dir is the log directory; created if absent.
	Dir string

	// Enabled controls whether records are written at all. A disabled
	// logger accepts and discards records so callers need no branches.
	Enabled bool

	// BufferSize overrides DefaultBufferSize when positive.
	BufferSize int
}

// New creates a request logger and starts its writer goroutine.
func New(opts Options) (*Logger, error) {
	l := &Logger{
		enabled: opts.Enabled,
		logger:  slog.Default().With("component", "requestlog"),
		done:    make(chan struct{}),
	}

	if !opts.Enabled {
		close(l.done)
		return l, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", opts.Dir, err)
	}

	path := filepath.Join(opts.Dir, FileName)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open request log %q: %w", path, err)
	}

	size := opts.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	l.file = file
	l.records = make(chan Record, size)

	go l.runWriter()

	return l, nil
}

// Log submits a finalized record. It never blocks: if the buffer is
// full, or the logger has been closed while a request was still in
// flight, the record is dropped and the drop counter incremented.
func (l *Logger) Log(record Record) {
	if !l.enabled {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}

	select {
	case l.records <- record:
	default:
		if l.dropped.Add(1) == 1 {
			l.logger.Warn("request log buffer full, dropping records")
		}
	}
}

// Dropped returns the number of records dropped due to a full buffer.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Close stops accepting records, drains the buffer, and closes the
// file. Safe to call more than once.
func (l *Logger) Close() error {
	if !l.enabled {
		return nil
	}

	var err error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.records)
		l.mu.Unlock()

		<-l.done
		err = l.file.Close()
	})
	return err
}

// runWriter is the single writer goroutine.
func (l *Logger) runWriter() {
	defer close(l.done)

	for record := range l.records {
		l.writeRecord(record)
	}
}

func (l *Logger) writeRecord(record Record) {
	line, err := json.Marshal(record)
	if err != nil {
		l.logger.Error("failed to marshal request record", "error", err)
		return
	}

	line = append(line, '\n')
	if _, err := l.file.Write(line); err != nil {
		l.logger.Error("failed to append request record", "error", err)
	}
}
