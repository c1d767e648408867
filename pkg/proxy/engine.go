package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/netlogics/ollama-router/pkg/proxy/middleware"
	"github.com/netlogics/ollama-router/pkg/requestlog"
	"github.com/netlogics/ollama-router/pkg/routing"
	"github.com/netlogics/ollama-router/pkg/telemetry/metrics"
)

// streamCopyBufferSize is the buffer size for the streaming relay loop.
// Each read from the backend is written and flushed before the next
// read, so a chunk is never held back waiting for the buffer to fill.
const streamCopyBufferSize = 32 * 1024

// hopByHopHeaders are stripped in both directions. Headers named by a
// Connection header are stripped as well.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// Engine forwards requests to the Ollama backend according to the
// route policy table. It is safe for concurrent use.
type Engine struct {
	backend      *url.URL
	client       *http.Client
	routes       *routing.Table
	requests     *requestlog.Logger
	metrics      *metrics.RequestMetrics
	logger       *slog.Logger
	logResponses bool
}

// Options configures an Engine.
type Options struct {
	// BackendURL is the Ollama base URL. The request path is appended
	// unmodified.
	BackendURL string

	// MaxConnections caps idle and active connections to the backend.
	MaxConnections int

	// Routes maps request paths to per-route timeouts.
	Routes *routing.Table

	// RequestLog receives exactly one record per accepted request.
	RequestLog *requestlog.Logger

	// Metrics receives per-request observations.
	Metrics *metrics.RequestMetrics

	// LogResponses enables debug-level logging of response status and
	// byte counts.
	LogResponses bool
}

// NewEngine creates a forwarding engine.
//
// The outbound transport disables transparent compression so response
// bytes are relayed exactly as the backend sent them, and carries no
// transport-level timeouts: the per-route wall-clock deadline is the
// only bound on the exchange.
func NewEngine(opts Options) (*Engine, error) {
	backend, err := url.Parse(opts.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", opts.BackendURL, err)
	}
	if opts.Routes == nil {
		return nil, fmt.Errorf("route table is required")
	}
	if opts.RequestLog == nil {
		return nil, fmt.Errorf("request log is required")
	}
	if opts.Metrics == nil {
		return nil, fmt.Errorf("request metrics are required")
	}

	maxConns := opts.MaxConnections
	if maxConns <= 0 {
		maxConns = 100
	}

	transport := &http.Transport{
		MaxIdleConns:        maxConns,
		MaxIdleConnsPerHost: maxConns,
		MaxConnsPerHost:     maxConns,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}

	return &Engine{
		backend:      backend,
		client:       &http.Client{Transport: transport},
		routes:       opts.Routes,
		requests:     opts.RequestLog,
		metrics:      opts.Metrics,
		logger:       slog.Default().With("component", "proxy"),
		logResponses: opts.LogResponses,
	}, nil
}

// ServeHTTP relays one request to the backend and finalizes its record.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rule := e.routes.Match(r.URL.Path)

	record := requestlog.Record{
		Timestamp:    start.UTC(),
		RequestID:    middleware.GetRequestID(r.Context()),
		Method:       r.Method,
		Path:         r.URL.Path,
		MatchedRoute: rule.Pattern,
		RemoteAddr:   r.RemoteAddr,
	}

	body, err := readRequestBody(r)
	if err != nil {
		e.rejectRequest(w, r, &record, start, err)
		return
	}
	record.BytesIn = int64(len(body.raw))
	record.Model = body.model

	// The deadline covers the entire exchange, including streaming.
	ctx, cancel := context.WithTimeout(r.Context(), rule.Timeout)
	defer cancel()

	outReq, err := e.buildBackendRequest(ctx, r, body)
	if err != nil {
		record.StatusCode = http.StatusInternalServerError
		record.Outcome = requestlog.OutcomeBackendError
		record.Error = err.Error()
		WriteError(w, NewServerError("failed to build backend request"))
		e.finalize(&record, start)
		return
	}

	resp, err := e.client.Do(outReq)
	if err != nil {
		e.finishWithoutResponse(w, r, ctx, &record, rule, start, err)
		return
	}
	defer resp.Body.Close()

	record.StatusCode = resp.StatusCode
	record.Streamed = body.stream || isStreamingResponse(resp)

	copyProxyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	var written int64
	var relayErr error
	if record.Streamed {
		e.metrics.StreamStarted()
		written, relayErr = relayStream(w, resp.Body)
		e.metrics.StreamFinished()
	} else {
		written, relayErr = io.Copy(w, resp.Body)
	}
	record.BytesOut = written

	switch {
	case relayErr == nil:
		record.Outcome = requestlog.OutcomeCompleted
	case ctx.Err() == context.DeadlineExceeded:
		// Headers are already out; the response is truncated mid-body.
		record.Outcome = requestlog.OutcomeTimedOut
		record.Error = fmt.Sprintf("route deadline %s exceeded during relay", rule.Timeout)
	case r.Context().Err() != nil:
		record.Outcome = requestlog.OutcomeClientDisconnected
		record.Error = "client disconnected during relay"
	default:
		record.Outcome = requestlog.OutcomeBackendError
		record.Error = relayErr.Error()
	}

	e.finalize(&record, start)
}

// rejectRequest handles requests refused before reaching the backend.
func (e *Engine) rejectRequest(w http.ResponseWriter, r *http.Request, record *requestlog.Record, start time.Time, err error) {
	if r.Context().Err() != nil {
		record.Outcome = requestlog.OutcomeClientDisconnected
		record.Error = "client disconnected during upload"
	} else {
		record.StatusCode = http.StatusInternalServerError
		record.Outcome = requestlog.OutcomeBackendError
		record.Error = err.Error()
		WriteError(w, NewServerError(err.Error()))
	}
	e.finalize(record, start)
}

// finishWithoutResponse handles transport errors where no backend
// response exists: deadline expiry, client disconnect, or a failure to
// reach the backend.
func (e *Engine) finishWithoutResponse(w http.ResponseWriter, r *http.Request, ctx context.Context, record *requestlog.Record, rule routing.Rule, start time.Time, err error) {
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		record.StatusCode = http.StatusGatewayTimeout
		record.Outcome = requestlog.OutcomeTimedOut
		record.Error = fmt.Sprintf("route deadline %s exceeded", rule.Timeout)
		WriteError(w, NewGatewayTimeoutError(
			fmt.Sprintf("backend did not respond within %s", rule.Timeout),
		))
	case r.Context().Err() != nil:
		// Nothing can be written to a gone client.
		record.Outcome = requestlog.OutcomeClientDisconnected
		record.Error = "client disconnected before backend reply"
	default:
		record.StatusCode = http.StatusBadGateway
		record.Outcome = requestlog.OutcomeBackendError
		record.Error = err.Error()
		WriteError(w, NewBadGatewayError("failed to reach backend: "+err.Error()))
	}
	e.finalize(record, start)
}

// finalize emits the request record and metrics exactly once per
// accepted request.
func (e *Engine) finalize(record *requestlog.Record, start time.Time) {
	duration := time.Since(start)
	record.DurationMs = duration.Milliseconds()

	e.requests.Log(*record)
	e.metrics.RecordRequest(
		record.MatchedRoute,
		record.Method,
		record.StatusCode,
		string(record.Outcome),
		duration,
		record.BytesIn,
		record.BytesOut,
	)

	if e.logResponses {
		e.logger.Debug("response relayed",
			"request_id", record.RequestID,
			"status", record.StatusCode,
			"bytes_out", record.BytesOut,
			"streamed", record.Streamed,
			"outcome", record.Outcome,
		)
	}

	switch record.Outcome {
	case requestlog.OutcomeTimedOut:
		e.logger.Warn("request timed out",
			"request_id", record.RequestID,
			"route", record.MatchedRoute,
			"duration_ms", record.DurationMs,
		)
	case requestlog.OutcomeBackendError:
		e.logger.Error("backend error",
			"request_id", record.RequestID,
			"route", record.MatchedRoute,
			"error", record.Error,
		)
	}
}

// buildBackendRequest clones the inbound request for the backend: same
// method, path, and query, buffered body, headers minus hop-by-hop,
// and the Host rewritten to the backend's.
func (e *Engine) buildBackendRequest(ctx context.Context, r *http.Request, body *requestBody) (*http.Request, error) {
	target := *e.backend
	target.Path = joinURLPath(e.backend.Path, r.URL.Path)
	target.RawQuery = r.URL.RawQuery

	outReq, err := http.NewRequestWithContext(ctx, r.Method, target.String(), bytes.NewReader(body.raw))
	if err != nil {
		return nil, err
	}

	copyProxyHeaders(outReq.Header, r.Header)
	outReq.ContentLength = int64(len(body.raw))

	if clientIP, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && clientIP != "" {
		if prior := r.Header.Get("X-Forwarded-For"); prior != "" {
			clientIP = prior + ", " + clientIP
		}
		outReq.Header.Set("X-Forwarded-For", clientIP)
	}

	return outReq, nil
}

// copyProxyHeaders copies src into dst, dropping hop-by-hop headers and
// any header named by a Connection header.
func copyProxyHeaders(dst, src http.Header) {
	drop := make(map[string]bool, len(hopByHopHeaders))
	for _, name := range hopByHopHeaders {
		drop[name] = true
	}
	for _, value := range src.Values("Connection") {
		for _, field := range strings.Split(value, ",") {
			field = textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(field))
			if field != "" {
				drop[field] = true
			}
		}
	}

	for name, values := range src {
		if drop[textproto.CanonicalMIMEHeaderKey(name)] {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

// isStreamingResponse reports whether the backend response should be
// relayed chunk by chunk: SSE, NDJSON, or chunked transfer encoding.
func isStreamingResponse(resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "text/event-stream") ||
		strings.HasPrefix(contentType, "application/x-ndjson") {
		return true
	}
	for _, enc := range resp.TransferEncoding {
		if enc == "chunked" {
			return true
		}
	}
	return false
}

// relayStream copies the backend body to the client, flushing after
// every write so chunks are forwarded as they arrive.
func relayStream(w http.ResponseWriter, body io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, streamCopyBufferSize)

	var written int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			nw, writeErr := w.Write(buf[:n])
			written += int64(nw)
			if writeErr != nil {
				return written, writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// joinURLPath joins the backend base path with the request path without
// doubling slashes.
func joinURLPath(base, req string) string {
	switch {
	case base == "" || base == "/":
		return req
	case strings.HasSuffix(base, "/") && strings.HasPrefix(req, "/"):
		return base + strings.TrimPrefix(req, "/")
	case !strings.HasSuffix(base, "/") && !strings.HasPrefix(req, "/"):
		return base + "/" + req
	default:
		return base + req
	}
}
