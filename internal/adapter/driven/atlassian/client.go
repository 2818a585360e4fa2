// Package atlassian implements the OAuthProvider port for Jira Cloud using
// Atlassian's OAuth 2.0 (3LO) authorization server.
package atlassian

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OAuthProvider = (*Client)(nil)

const (
	defaultAuthURL    = "https://auth.atlassian.com/authorize"
	defaultTokenURL   = "https://auth.atlassian.com/oauth/token"
	defaultAPIBaseURL = "https://api.atlassian.com"

	// maxErrorBody bounds how much of an upstream error body is kept for logs.
	maxErrorBody = 512
)

// DefaultScopes are requested on every Jira authorization.
var DefaultScopes = []string{"read:jira-work", "read:jira-user", "write:jira-work", "offline_access"}

// Config holds the OAuth app registration and endpoint overrides.
// Zero-valued endpoints default to Atlassian's production URLs.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	AuthURL    string
	TokenURL   string
	APIBaseURL string

	// HTTPClient is used for both the token exchange and API calls.
	// Defaults to a client with a 15s timeout.
	HTTPClient *http.Client
}

// Client implements driven.OAuthProvider for Jira.
type Client struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

// NewClient creates a Jira OAuth client from cfg.
func NewClient(cfg Config) *Client {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	apiBaseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: apiBaseURL,
		httpClient: httpClient,
	}
}

// Provider returns model.ProviderJira.
func (c *Client) Provider() model.Provider {
	return model.ProviderJira
}

// AuthCodeURL builds the Atlassian consent URL. audience and prompt are
// required by Atlassian's 3LO flow.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("audience", "api.atlassian.com"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for an access/refresh token pair.
func (c *Client) Exchange(ctx context.Context, code string) (*model.TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging jira authorization code: %w", err)
	}

	tokens := &model.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}
	if !token.Expiry.IsZero() {
		tokens.ExpiresAt = token.Expiry.UTC()
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		tokens.Scopes = strings.Fields(scope)
	}

	return tokens, nil
}

// meResponse is the subset of GET /me used by pmhub.
type meResponse struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// resourceResponse is one entry of GET /oauth/token/accessible-resources.
type resourceResponse struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Scopes []string `json:"scopes"`
}

// FetchIdentity calls GET /me and GET /oauth/token/accessible-resources with
// the freshly issued token. Either failure aborts the whole lookup.
func (c *Client) FetchIdentity(ctx context.Context, tokens model.TokenSet) (*model.Identity, error) {
	httpClient := c.authorizedClient(ctx, tokens)

	var me meResponse
	if err := c.getJSON(ctx, httpClient, "/me", &me); err != nil {
		return nil, fmt.Errorf("fetching jira user profile: %w", err)
	}

	var resources []resourceResponse
	if err := c.getJSON(ctx, httpClient, "/oauth/token/accessible-resources", &resources); err != nil {
		return nil, fmt.Errorf("fetching jira accessible resources: %w", err)
	}

	identity := &model.Identity{
		AccountID:  me.AccountID,
		Name:       me.Name,
		Email:      me.Email,
		Workspaces: make([]model.Workspace, 0, len(resources)),
	}
	for _, r := range resources {
		identity.Workspaces = append(identity.Workspaces, model.Workspace{
			ID:     r.ID,
			Name:   r.Name,
			URL:    r.URL,
			Scopes: r.Scopes,
		})
	}

	return identity, nil
}

// authorizedClient returns an http.Client that attaches the bearer token and
// refreshes it through the token endpoint when it has expired.
func (c *Client) authorizedClient(ctx context.Context, tokens model.TokenSet) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return c.oauth.Client(ctx, &oauth2.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		Expiry:       tokens.ExpiresAt,
	})
}

func (c *Client) getJSON(ctx context.Context, httpClient *http.Client, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("GET %s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
