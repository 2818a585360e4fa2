// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	JiraClientID     string
	JiraClientSecret string
	AppURL           string
	BackendURL       string
	ListenAddr       string
	DBPath           string
	SecretKey        []byte
	CORSOrigins      []string
	GitHubToken      string
}

// HasJiraCredentials returns true when both JiraClientID and JiraClientSecret
// are non-empty. The composition root registers the Jira OAuth provider only
// when this holds; otherwise the auth endpoint answers with setup instructions.
func (c *Config) HasJiraCredentials() bool {
	return c.JiraClientID != "" && c.JiraClientSecret != ""
}

// JiraRedirectURL returns the OAuth callback URL registered with Atlassian.
func (c *Config) JiraRedirectURL() string {
	return c.AppURL + "/api/integrations/oauth/callback/jira"
}

// Load reads configuration from environment variables and returns a validated Config.
// Jira credentials (JIRA_CLIENT_ID, JIRA_CLIENT_SECRET) are optional; without them
// the Jira connect flow reports setup instructions instead of an authorization URL.
//
// APP_URL (or NEXT_PUBLIC_APP_URL) is the origin browsers use to reach pmhub: the
// OAuth redirect URI and the /settings redirects are built from it. Set it when
// pmhub runs behind a proxy; otherwise it defaults to the listen address, with
// an unspecified host replaced by localhost.
//
// Other optional variables with defaults: PMHUB_LISTEN_ADDR (127.0.0.1:8080),
// PMHUB_DB_PATH (pmhub.db). PMHUB_CORS_ORIGINS may not contain "*" because the
// API allows credentialed cross-origin requests.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("PMHUB_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	appURL := defaultAppURL(listenAddr)
	if v, ok := os.LookupEnv("APP_URL"); ok && v != "" {
		appURL = v
	} else if v, ok := os.LookupEnv("NEXT_PUBLIC_APP_URL"); ok && v != "" {
		appURL = v
	}
	appURL = strings.TrimRight(appURL, "/")
	if u, err := url.Parse(appURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("APP_URL must be an absolute URL, got %q", appURL)
	}

	backendURL := strings.TrimRight(os.Getenv("PYTHON_BACKEND_URL"), "/")
	if backendURL != "" {
		if u, err := url.Parse(backendURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("PYTHON_BACKEND_URL must be an absolute URL, got %q", backendURL)
		}
	}

	dbPath := "pmhub.db"
	if v, ok := os.LookupEnv("PMHUB_DB_PATH"); ok {
		dbPath = v
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("PMHUB_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("PMHUB_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("PMHUB_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		secretKey = key
	}

	corsOrigins := []string{}
	if v, ok := os.LookupEnv("PMHUB_CORS_ORIGINS"); ok && v != "" {
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				return nil, fmt.Errorf("PMHUB_CORS_ORIGINS must list explicit origins: %q is not allowed with credentialed requests", origin)
			}
			if origin != "" {
				corsOrigins = append(corsOrigins, origin)
			}
		}
	}

	return &Config{
		JiraClientID:     os.Getenv("JIRA_CLIENT_ID"),
		JiraClientSecret: os.Getenv("JIRA_CLIENT_SECRET"),
		AppURL:           appURL,
		BackendURL:       backendURL,
		ListenAddr:       listenAddr,
		DBPath:           dbPath,
		SecretKey:        secretKey,
		CORSOrigins:      corsOrigins,
		GitHubToken:      os.Getenv("PMHUB_GITHUB_TOKEN"),
	}, nil
}

// defaultAppURL derives the public URL from the listen address so redirects
// land on this server when no APP_URL is given.
func defaultAppURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil || port == "" {
		return "http://localhost:8080"
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
