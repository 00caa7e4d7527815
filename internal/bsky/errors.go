package bsky

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoSession is returned by client methods when no credential is held.
var ErrNoSession = errors.New("no session credential")

// ConfigurationError reports a missing required startup value.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + e.Field
}

// AuthenticationError reports a rejected session exchange.
type AuthenticationError struct {
	Status  int
	Code    string
	Message string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + describe(e.Status, e.Code, e.Message)
}

// RemoteServiceError wraps any failure of a remote XRPC call: a non-2xx
// status, an undecodable body, or a transport error (Err).
type RemoteServiceError struct {
	Endpoint string
	Status   int
	Code     string
	Message  string
	Err      error
}

func (e *RemoteServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	return e.Endpoint + ": " + describe(e.Status, e.Code, e.Message)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// xrpcError is the error body shape used by XRPC services.
type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// describe prefers the server-reported error text and falls back to the
// HTTP status text.
func describe(status int, code, message string) string {
	parts := make([]string, 0, 3)
	if status != 0 {
		parts = append(parts, fmt.Sprintf("%d %s", status, http.StatusText(status)))
	}
	if code != "" {
		parts = append(parts, code)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "unknown error"
	}
	return strings.Join(parts, ": ")
}
