// Package application contains use-case orchestration services.
package application

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

const (
	// StateTTL is how long an authorization request may take before its
	// state can no longer be redeemed.
	StateTTL = 10 * time.Minute

	stateBytes = 32
)

// UpstreamError marks a failure talking to the provider (token exchange or
// identity lookup), as opposed to a rejected callback.
type UpstreamError struct {
	Provider model.Provider
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// AuthRequest is a started authorization: the URL to send the browser to and
// the state it must bring back.
type AuthRequest struct {
	URL       string
	State     string
	ExpiresAt time.Time
}

// OAuthService runs the OAuth2 authorization-code flow for PM tool
// integrations: it issues single-use states, validates callbacks, exchanges
// codes for tokens and persists the resulting IntegrationConfig.
type OAuthService struct {
	providers    *ProviderRegistry
	states       driven.OAuthStateStore
	integrations driven.IntegrationStore
	tools        driven.PMToolStore
	logger       *slog.Logger
	now          func() time.Time
}

// NewOAuthService creates a new OAuthService with all required dependencies.
func NewOAuthService(
	providers *ProviderRegistry,
	states driven.OAuthStateStore,
	integrations driven.IntegrationStore,
	tools driven.PMToolStore,
	logger *slog.Logger,
) *OAuthService {
	return &OAuthService{
		providers:    providers,
		states:       states,
		integrations: integrations,
		tools:        tools,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// BeginAuth starts an authorization for provider. It returns
// driven.ErrProviderNotConfigured when the provider has no client credentials,
// driven.ErrUnknownProvider for names pmhub does not know,
// driven.ErrOAuthNotSupported for providers without an OAuth connector and
// driven.ErrEncryptionKeyNotSet when the resulting tokens could not be stored.
func (s *OAuthService) BeginAuth(ctx context.Context, provider model.Provider) (*AuthRequest, error) {
	p, err := s.lookup(provider)
	if err != nil {
		return nil, err
	}
	if !s.integrations.Enabled() {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	state, err := generateState()
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := model.OAuthState{
		State:     state,
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: now.Add(StateTTL),
	}
	if err := s.states.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("begin %s auth: %w", provider, err)
	}

	s.logger.Info("oauth authorization started", "provider", provider, "expires_at", record.ExpiresAt)

	return &AuthRequest{
		URL:       p.AuthCodeURL(state),
		State:     state,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// HandleCallback completes an authorization. state is the value from the
// callback query; cookieState is the value bound to the browser when the
// authorization began. The state is consumed before the token exchange, so a
// replayed callback never reaches the provider.
func (s *OAuthService) HandleCallback(ctx context.Context, provider model.Provider, code, state, cookieState string) (*model.IntegrationConfig, error) {
	p, err := s.lookup(provider)
	if err != nil {
		return nil, err
	}
	// The code is single-use; never spend it on tokens that cannot be kept.
	if !s.integrations.Enabled() {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	if cookieState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(cookieState)) != 1 {
		return nil, driven.ErrStateMismatch
	}

	record, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if record.IsExpired(s.now()) {
		return nil, driven.ErrStateExpired
	}
	if record.Provider != provider {
		return nil, driven.ErrStateMismatch
	}

	tokens, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, &UpstreamError{Provider: provider, Err: err}
	}

	identity, err := p.FetchIdentity(ctx, *tokens)
	if err != nil {
		return nil, &UpstreamError{Provider: provider, Err: err}
	}

	now := s.now()
	cfg := model.IntegrationConfig{
		Provider:     provider,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		Scopes:       tokens.Scopes,
		AccountID:    identity.AccountID,
		AccountName:  identity.Name,
		AccountEmail: identity.Email,
		ConnectedAt:  now,
		UpdatedAt:    now,
	}
	if len(identity.Workspaces) > 0 {
		ws := identity.Workspaces[0]
		cfg.WorkspaceID = ws.ID
		cfg.WorkspaceName = ws.Name
		cfg.WorkspaceURL = ws.URL
	}

	if err := s.integrations.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("store %s integration: %w", provider, err)
	}

	if err := s.tools.SetStatusByProvider(ctx, provider, model.ToolStatusConnected); err != nil {
		s.logger.Warn("failed to mark tools connected", "provider", provider, "error", err)
	}

	s.logger.Info("integration connected",
		"provider", provider,
		"workspace_id", cfg.WorkspaceID,
		"workspaces", len(identity.Workspaces),
	)

	return &cfg, nil
}

// List returns every connected integration.
func (s *OAuthService) List(ctx context.Context) ([]model.IntegrationConfig, error) {
	return s.integrations.List(ctx)
}

// Disconnect removes the stored integration for provider and marks its tools
// disconnected.
func (s *OAuthService) Disconnect(ctx context.Context, provider model.Provider) error {
	if !provider.Valid() {
		return driven.ErrUnknownProvider
	}

	if err := s.integrations.Delete(ctx, provider); err != nil {
		return err
	}

	if err := s.tools.SetStatusByProvider(ctx, provider, model.ToolStatusDisconnected); err != nil {
		s.logger.Warn("failed to mark tools disconnected", "provider", provider, "error", err)
	}

	s.logger.Info("integration disconnected", "provider", provider)
	return nil
}

// ConfiguredProviders returns the providers that can start an authorization.
func (s *OAuthService) ConfiguredProviders() []model.Provider {
	return s.providers.Names()
}

// StartJanitor purges expired states every interval until ctx is canceled.
func (s *OAuthService) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.states.PurgeExpired(ctx, s.now())
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Error("purge expired oauth states failed", "error", err)
				}
				continue
			}
			if n > 0 {
				s.logger.Debug("purged expired oauth states", "count", n)
			}
		}
	}
}

func (s *OAuthService) lookup(provider model.Provider) (driven.OAuthProvider, error) {
	if !provider.Valid() {
		return nil, driven.ErrUnknownProvider
	}
	if !provider.SupportsOAuth() {
		return nil, driven.ErrOAuthNotSupported
	}
	p := s.providers.Get(provider)
	if p == nil {
		return nil, driven.ErrProviderNotConfigured
	}
	return p, nil
}

// generateState returns 32 random bytes from crypto/rand, hex encoded.
func generateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
