package bsky

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	srv, rec := newFakeService(t, http.StatusOK,
		`{"accessJwt":"acc","refreshJwt":"ref","handle":"alice.test","did":"did:plc:abc"}`)

	sess, err := Authenticate(context.Background(), srv.Client(), srv.URL+"/", "alice.test", "app-pass")
	require.NoError(t, err)

	assert.Equal(t, "acc", sess.AccessJwt)
	assert.Equal(t, "did:plc:abc", sess.DID)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/xrpc/com.atproto.server.createSession", rec.path)
	assert.Equal(t, "alice.test", rec.body["identifier"])
	assert.Equal(t, "app-pass", rec.body["password"])
	assert.Empty(t, rec.auth)
}

func TestAuthenticateMissingConfig(t *testing.T) {
	tests := []struct {
		host, id, secret string
		field            string
	}{
		{"", "alice.test", "pw", "host"},
		{DefaultHost, "", "pw", "identifier"},
		{DefaultHost, "alice.test", "", "secret"},
	}
	for _, tt := range tests {
		_, err := Authenticate(context.Background(), nil, tt.host, tt.id, tt.secret)
		var cerr *ConfigurationError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, tt.field, cerr.Field)
	}
}

func TestAuthenticateRejected(t *testing.T) {
	srv, _ := newFakeService(t, http.StatusUnauthorized,
		`{"error":"AuthenticationRequired","message":"Invalid identifier or password"}`)

	_, err := Authenticate(context.Background(), srv.Client(), srv.URL, "alice.test", "bad")
	var aerr *AuthenticationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, http.StatusUnauthorized, aerr.Status)
	assert.Contains(t, err.Error(), "Invalid identifier or password")
}

func TestAuthenticateStatusTextFallback(t *testing.T) {
	srv, _ := newFakeService(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := Authenticate(context.Background(), srv.Client(), srv.URL, "alice.test", "pw")
	var aerr *AuthenticationError
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, err.Error(), "Bad Gateway")
}

func TestAuthenticateErrorFieldOnSuccessStatus(t *testing.T) {
	srv, _ := newFakeService(t, http.StatusOK, `{"error":"AccountTakedown","message":"Account has been taken down"}`)

	_, err := Authenticate(context.Background(), srv.Client(), srv.URL, "alice.test", "pw")
	var aerr *AuthenticationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "AccountTakedown", aerr.Code)
}

func TestAuthenticateMissingToken(t *testing.T) {
	srv, _ := newFakeService(t, http.StatusOK, `{"handle":"alice.test"}`)

	_, err := Authenticate(context.Background(), srv.Client(), srv.URL, "alice.test", "pw")
	var aerr *AuthenticationError
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, err.Error(), "accessJwt")
}
