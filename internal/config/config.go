package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Intuit OAuth2 endpoints. Shared by sandbox and production; only the
// API host differs per environment.
const (
	AuthURL  = "https://appcenter.intuit.com/connect/oauth2"
	TokenURL = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"

	// Scope covers the accounting API (customers, accounts, queries).
	Scope = "com.intuit.quickbooks.accounting"

	productionAPIHost = "https://quickbooks.api.intuit.com"
	sandboxAPIHost    = "https://sandbox-quickbooks.api.intuit.com"
)

// Config holds everything the server needs, sourced from the environment.
type Config struct {
	ClientID     string
	ClientSecret string
	RealmID      string
	Environment  string // "sandbox" or "production"
	MinorVersion string
	CallbackPort int
	TokenPath    string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// FromEnv builds a Config from QBO_* environment variables, applying
// defaults where the variable is unset.
func FromEnv() (Config, error) {
	cfg := Config{
		ClientID:     os.Getenv("QBO_CLIENT_ID"),
		ClientSecret: os.Getenv("QBO_CLIENT_SECRET"),
		RealmID:      os.Getenv("QBO_REALM_ID"),
		Environment:  env("QBO_ENVIRONMENT", "production"),
		MinorVersion: env("QBO_MINOR_VERSION", "70"),
		TokenPath:    os.Getenv("QBO_TOKEN_PATH"),
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return Config{}, fmt.Errorf("QBO_CLIENT_ID and QBO_CLIENT_SECRET are required")
	}
	if cfg.RealmID == "" {
		return Config{}, fmt.Errorf("QBO_REALM_ID is required")
	}
	if cfg.Environment != "sandbox" && cfg.Environment != "production" {
		return Config{}, fmt.Errorf("QBO_ENVIRONMENT must be \"sandbox\" or \"production\", got %q", cfg.Environment)
	}

	port := env("QBO_CALLBACK_PORT", "8725")
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return Config{}, fmt.Errorf("QBO_CALLBACK_PORT must be a valid port, got %q", port)
	}
	cfg.CallbackPort = p

	if cfg.TokenPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve user config dir: %w", err)
		}
		cfg.TokenPath = filepath.Join(dir, "qbo-mcp", "tokens.json")
	}

	return cfg, nil
}

// APIBaseURL returns the QuickBooks API host for the configured
// environment.
func (c Config) APIBaseURL() string {
	if c.Environment == "sandbox" {
		return sandboxAPIHost
	}
	return productionAPIHost
}

// RedirectURL is the local callback target registered with the provider.
func (c Config) RedirectURL() string {
	return fmt.Sprintf("http://localhost:%d/callback", c.CallbackPort)
}
