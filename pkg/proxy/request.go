package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// MaxRequestBodySize is the maximum allowed request body size (10MB).
const MaxRequestBodySize = 10 * 1024 * 1024

// requestBody holds the buffered request body together with the fields
// probed from it. The body is buffered before forwarding so the proxy
// can count inbound bytes and detect streaming intent regardless of
// what the backend does with the request.
type requestBody struct {
	raw    []byte
	model  string
	stream bool
}

// readRequestBody buffers the request body and probes it for the
// "model" and "stream" fields of OpenAI-style JSON payloads. Bodies
// that are not JSON are forwarded as-is with both fields zero; the
// probe never rejects a request the backend might accept.
func readRequestBody(r *http.Request) (*requestBody, error) {
	if r.Body == nil {
		return &requestBody{}, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(raw) > MaxRequestBodySize {
		return nil, fmt.Errorf("request body exceeds maximum size of %d bytes", MaxRequestBodySize)
	}

	body := &requestBody{raw: raw}
	if len(raw) == 0 {
		return body, nil
	}

	var probe struct {
		Model  string `json:"model"`
		Stream bool   `json:"stream"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil {
		body.model = probe.Model
		body.stream = probe.Stream
	}

	return body, nil
}
