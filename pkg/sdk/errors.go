package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sentinel errors matching the service's error codes.
// Use errors.Is() to check.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrEncodingFailed    = errors.New("narrative encoding failed")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrUnauthorized      = errors.New("unauthorized")
)

// APIError is a structured error returned by the consdex service.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Code is the machine-readable error code from the response envelope,
	// empty when the body was not the standard envelope.
	Code string
	// Message is the human-readable error text.
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("consdex: http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("consdex: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap maps the wire error onto the package sentinels so callers can use
// errors.Is without inspecting codes.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	switch e.Code {
	case "not_found":
		return ErrNotFound
	case "validation_failed":
		return ErrInvalidArgument
	case "encoding_failed":
		return ErrEncodingFailed
	case "corrupted_vector":
		return ErrDimensionMismatch
	default:
		return nil
	}
}

// decodeAPIError reads a non-2xx response into an *APIError. Bodies that
// are not the standard envelope (a proxy page, an empty reply) surface as
// the raw text, truncated.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Code != "" {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
		return apiErr
	}

	apiErr.Message = truncate(strings.TrimSpace(string(body)), 300)
	return apiErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
