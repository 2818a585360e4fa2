package model

import "time"

// IntegrationConfig is the credential record for a connected third-party tool.
// There is at most one per provider.
type IntegrationConfig struct {
	Provider      Provider
	AccessToken   string
	RefreshToken  string
	ExpiresAt     time.Time
	Scopes        []string
	WorkspaceID   string
	WorkspaceName string
	WorkspaceURL  string
	AccountID     string
	AccountName   string
	AccountEmail  string
	ConnectedAt   time.Time
	UpdatedAt     time.Time
}

// IsExpired reports whether the access token has expired as of now.
// A zero ExpiresAt means the provider did not report an expiry.
func (c IntegrationConfig) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// TokenSet is the result of an OAuth2 authorization-code exchange.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	Scopes       []string
}

// Workspace is a provider site the authorized account can reach, e.g. an
// Atlassian cloud site.
type Workspace struct {
	ID     string
	Name   string
	URL    string
	Scopes []string
}

// Identity describes the account that authorized the connection and the
// workspaces it can access.
type Identity struct {
	AccountID  string
	Name       string
	Email      string
	Workspaces []Workspace
}
