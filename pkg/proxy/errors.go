package proxy

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is an OpenAI-compatible error envelope. All error
// conditions produced by the proxy itself use this shape so OpenAI SDKs
// can surface them; backend errors are relayed verbatim instead.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error fields of an ErrorResponse.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error: "server_error", "bad_gateway", or
	// "gateway_timeout".
	Type string `json:"type"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error type constants matching the OpenAI API specification.
const (
	ErrorTypeServerError    = "server_error"
	ErrorTypeBadGateway     = "bad_gateway"
	ErrorTypeGatewayTimeout = "gateway_timeout"
)

// Error code constants.
const (
	CodeInternalError  = "internal_error"
	CodeBackendError   = "backend_error"
	CodeBackendTimeout = "backend_timeout"
)

// NewServerError creates an error response for internal errors (500).
func NewServerError(message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    ErrorTypeServerError,
		Code:    CodeInternalError,
	}}
}

// NewBadGatewayError creates an error response for backend failures (502).
func NewBadGatewayError(message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    ErrorTypeBadGateway,
		Code:    CodeBackendError,
	}}
}

// NewGatewayTimeoutError creates an error response for route deadline
// expiry (504).
func NewGatewayTimeoutError(message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    ErrorTypeGatewayTimeout,
		Code:    CodeBackendTimeout,
	}}
}

// HTTPStatusCode returns the HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeBadGateway:
		return http.StatusBadGateway
	case ErrorTypeGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes an error response as JSON with the status code
// implied by its type. Callers must not have written headers yet.
func WriteError(w http.ResponseWriter, errResp *ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errResp.Error.HTTPStatusCode())
	_ = json.NewEncoder(w).Encode(errResp)
}
