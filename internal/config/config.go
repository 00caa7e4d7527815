// Package config loads process configuration from the environment.
//
// Environment Variables:
//   - BSKY_HOST: base URL of the XRPC service (default: https://bsky.social)
//   - BSKY_IDENTIFIER: account handle or DID (required)
//   - BSKY_APP_PASSWORD: account password or app password (required)
//   - BSKY_HTTP_TIMEOUT: outbound request timeout in seconds (default: 30)
//   - PORT: listen port for the http transport (default: 3000)
//   - MCP_TOKEN: bearer token guarding /mcp endpoints (optional)
//   - TLS_CERT_FILE, TLS_KEY_FILE: serve HTTPS when both are set (optional)
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"bsky-mcp/internal/bsky"
)

// Config contains startup values. It is read once and never mutated.
type Config struct {
	Host        string
	Identifier  string
	Secret      string
	HTTPTimeout time.Duration

	Port     string
	Token    string
	CertFile string
	KeyFile  string
}

// Load reads an optional dotenv file and then the environment. Variables
// already present in the environment take precedence over the file. An
// empty envFile means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return Config{
		Host:        getEnv("BSKY_HOST", bsky.DefaultHost),
		Identifier:  os.Getenv("BSKY_IDENTIFIER"),
		Secret:      os.Getenv("BSKY_APP_PASSWORD"),
		HTTPTimeout: time.Duration(getEnvInt("BSKY_HTTP_TIMEOUT", 30)) * time.Second,
		Port:        getEnv("PORT", "3000"),
		Token:       os.Getenv("MCP_TOKEN"),
		CertFile:    os.Getenv("TLS_CERT_FILE"),
		KeyFile:     os.Getenv("TLS_KEY_FILE"),
	}, nil
}

// Validate reports the first missing required value.
func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return &bsky.ConfigurationError{Field: "BSKY_HOST"}
	case c.Identifier == "":
		return &bsky.ConfigurationError{Field: "BSKY_IDENTIFIER"}
	case c.Secret == "":
		return &bsky.ConfigurationError{Field: "BSKY_APP_PASSWORD"}
	}
	return nil
}

// TLS reports whether both certificate and key are configured.
func (c Config) TLS() bool { return c.CertFile != "" && c.KeyFile != "" }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
