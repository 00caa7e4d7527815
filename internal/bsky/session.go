package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultHost is the public PDS entryway used when no host is configured.
const DefaultHost = "https://bsky.social"

const createSessionNSID = "com.atproto.server.createSession"

// Session is the result of a password session exchange. AccessJwt is the
// bearer credential; it is never refreshed.
type Session struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
}

// Authenticate exchanges identifier and secret for a session on host.
// If httpClient is nil, http.DefaultClient is used.
func Authenticate(ctx context.Context, httpClient *http.Client, host, identifier, secret string) (Session, error) {
	switch {
	case strings.TrimSpace(host) == "":
		return Session{}, &ConfigurationError{Field: "host"}
	case strings.TrimSpace(identifier) == "":
		return Session{}, &ConfigurationError{Field: "identifier"}
	case secret == "":
		return Session{}, &ConfigurationError{Field: "secret"}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	payload, err := json.Marshal(map[string]string{"identifier": identifier, "password": secret})
	if err != nil {
		return Session{}, err
	}
	endpoint := strings.TrimRight(host, "/") + "/xrpc/" + createSessionNSID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Session{}, fmt.Errorf("invalid host: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Session{}, &AuthenticationError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Session{}, &AuthenticationError{Status: resp.StatusCode, Message: err.Error()}
	}

	var out struct {
		Session
		xrpcError
	}
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.xrpcError.Error != "" {
		return Session{}, &AuthenticationError{
			Status:  resp.StatusCode,
			Code:    out.xrpcError.Error,
			Message: out.xrpcError.Message,
		}
	}
	if decodeErr != nil {
		return Session{}, &AuthenticationError{Status: resp.StatusCode, Message: "decode session: " + decodeErr.Error()}
	}
	if out.AccessJwt == "" {
		return Session{}, &AuthenticationError{Status: resp.StatusCode, Message: "response has no accessJwt"}
	}
	return out.Session, nil
}
