package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pmhub/internal/application"
	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

type oauthFixture struct {
	svc          *application.OAuthService
	provider     *mockProvider
	states       *mockStateStore
	integrations *mockIntegrationStore
	tools        *mockToolStore
}

func newOAuthFixture(t *testing.T) *oauthFixture {
	t.Helper()
	f := &oauthFixture{
		provider:     &mockProvider{name: model.ProviderJira},
		states:       newMockStateStore(),
		integrations: newMockIntegrationStore(),
		tools:        newMockToolStore(),
	}
	f.svc = application.NewOAuthService(
		application.NewProviderRegistry(f.provider),
		f.states,
		f.integrations,
		f.tools,
		discardLogger(),
	)
	return f
}

func TestOAuthService_BeginAuth(t *testing.T) {
	f := newOAuthFixture(t)

	req, err := f.svc.BeginAuth(context.Background(), model.ProviderJira)
	require.NoError(t, err)

	assert.Len(t, req.State, 64, "32 random bytes, hex encoded")
	assert.Contains(t, req.URL, "state="+req.State)
	assert.WithinDuration(t, time.Now().Add(application.StateTTL), req.ExpiresAt, 5*time.Second)
	assert.Equal(t, 1, f.states.len())
}

func TestOAuthService_BeginAuth_StatesAreUnique(t *testing.T) {
	f := newOAuthFixture(t)
	seen := make(map[string]bool)

	for range 50 {
		req, err := f.svc.BeginAuth(context.Background(), model.ProviderJira)
		require.NoError(t, err)
		require.False(t, seen[req.State], "duplicate state issued")
		seen[req.State] = true
	}
}

func TestOAuthService_BeginAuth_NotConfigured(t *testing.T) {
	states := newMockStateStore()
	svc := application.NewOAuthService(
		application.NewProviderRegistry(),
		states,
		newMockIntegrationStore(),
		newMockToolStore(),
		discardLogger(),
	)

	_, err := svc.BeginAuth(context.Background(), model.ProviderJira)
	assert.ErrorIs(t, err, driven.ErrProviderNotConfigured)
	assert.Equal(t, 0, states.len())
}

func TestOAuthService_BeginAuth_UnknownProvider(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.svc.BeginAuth(context.Background(), model.Provider("monday"))
	assert.ErrorIs(t, err, driven.ErrUnknownProvider)
}

func TestOAuthService_HandleCallback_Success(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()

	req, err := f.svc.BeginAuth(ctx, model.ProviderJira)
	require.NoError(t, err)

	cfg, err := f.svc.HandleCallback(ctx, model.ProviderJira, "code-123", req.State, req.State)
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.provider.exchangeCalls.Load(), "exactly one token exchange")
	assert.Equal(t, "access-code-123", cfg.AccessToken)
	assert.Equal(t, "cloud-1", cfg.WorkspaceID, "first accessible resource wins")
	assert.Equal(t, "acme", cfg.WorkspaceName)
	assert.Equal(t, "dana@example.com", cfg.AccountEmail)

	stored, err := f.integrations.Get(ctx, model.ProviderJira)
	require.NoError(t, err)
	assert.Equal(t, "refresh-code-123", stored.RefreshToken)
	assert.Equal(t, model.ToolStatusConnected, f.tools.statuses[model.ProviderJira])
}

func TestOAuthService_HandleCallback_NoWorkspaces(t *testing.T) {
	f := newOAuthFixture(t)
	f.provider.identity = &model.Identity{AccountID: "acc-1"}
	ctx := context.Background()

	req, err := f.svc.BeginAuth(ctx, model.ProviderJira)
	require.NoError(t, err)

	cfg, err := f.svc.HandleCallback(ctx, model.ProviderJira, "code", req.State, req.State)
	require.NoError(t, err)
	assert.Empty(t, cfg.WorkspaceID)
}

func TestOAuthService_HandleCallback_StateIsSingleUse(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()

	req, err := f.svc.BeginAuth(ctx, model.ProviderJira)
	require.NoError(t, err)

	_, err = f.svc.HandleCallback(ctx, model.ProviderJira, "code", req.State, req.State)
	require.NoError(t, err)

	_, err = f.svc.HandleCallback(ctx, model.ProviderJira, "code", req.State, req.State)
	assert.ErrorIs(t, err, driven.ErrStateNotFound)
	assert.Equal(t, int32(1), f.provider.exchangeCalls.Load(), "replay must not reach the provider")
}

func TestOAuthService_HandleCallback_ExpiredState(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, f.states.Save(ctx, model.OAuthState{
		State:     "stale",
		Provider:  model.ProviderJira,
		CreatedAt: past,
		ExpiresAt: past.Add(application.StateTTL),
	}))

	_, err := f.svc.HandleCallback(ctx, model.ProviderJira, "code", "stale", "stale")
	assert.ErrorIs(t, err, driven.ErrStateExpired)
	assert.Equal(t, int32(0), f.provider.exchangeCalls.Load())
	assert.Equal(t, 0, f.states.len(), "expired state is still consumed")
}

func TestOAuthService_HandleCallback_CookieMismatch(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()

	req, err := f.svc.BeginAuth(ctx, model.ProviderJira)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie string
	}{
		{name: "missing cookie", cookie: ""},
		{name: "different cookie", cookie: "someone-else"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.HandleCallback(ctx, model.ProviderJira, "code", req.State, tc.cookie)
			assert.ErrorIs(t, err, driven.ErrStateMismatch)
		})
	}

	assert.Equal(t, int32(0), f.provider.exchangeCalls.Load())
	assert.Equal(t, 1, f.states.len(), "a rejected cookie leaves the state redeemable")
}

func TestOAuthService_HandleCallback_UnknownState(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.svc.HandleCallback(context.Background(), model.ProviderJira, "code", "forged", "forged")
	assert.ErrorIs(t, err, driven.ErrStateNotFound)
	assert.Equal(t, int32(0), f.provider.exchangeCalls.Load())
}

func TestOAuthService_HandleCallback_StateForOtherProvider(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, f.states.Save(ctx, model.OAuthState{
		State:     "linear-state",
		Provider:  model.ProviderLinear,
		CreatedAt: now,
		ExpiresAt: now.Add(application.StateTTL),
	}))

	_, err := f.svc.HandleCallback(ctx, model.ProviderJira, "code", "linear-state", "linear-state")
	assert.ErrorIs(t, err, driven.ErrStateMismatch)
	assert.Equal(t, int32(0), f.provider.exchangeCalls.Load())
}

func TestOAuthService_HandleCallback_ExchangeFails(t *testing.T) {
	f := newOAuthFixture(t)
	f.provider.exchangeErr = errBoom
	ctx := context.Background()

	req, err := f.svc.BeginAuth(ctx, model.ProviderJira)
	require.NoError(t, err)

	_, err = f.svc.HandleCallback(ctx, model.ProviderJira, "code", req.State, req.State)

	var upstream *application.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, model.ProviderJira, upstream.Provider)
	assert.ErrorIs(t, err, errBoom)

	_, err = f.integrations.Get(ctx, model.ProviderJira)
	assert.ErrorIs(t, err, driven.ErrIntegrationNotFound)
}

func TestOAuthService_HandleCallback_IdentityFails(t *testing.T) {
	f := newOAuthFixture(t)
	f.provider.identityErr = errBoom
	ctx := context.Background()

	req, err := f.svc.BeginAuth(ctx, model.ProviderJira)
	require.NoError(t, err)

	_, err = f.svc.HandleCallback(ctx, model.ProviderJira, "code", req.State, req.State)

	var upstream *application.UpstreamError
	assert.ErrorAs(t, err, &upstream)
	assert.Equal(t, int32(1), f.provider.exchangeCalls.Load())
}

func TestOAuthService_HandleCallback_StoreFails(t *testing.T) {
	f := newOAuthFixture(t)
	f.integrations.saveErr = errBoom
	ctx := context.Background()

	req, err := f.svc.BeginAuth(ctx, model.ProviderJira)
	require.NoError(t, err)

	_, err = f.svc.HandleCallback(ctx, model.ProviderJira, "code", req.State, req.State)
	assert.ErrorIs(t, err, errBoom)
}

func TestOAuthService_BeginAuth_StorageDisabled(t *testing.T) {
	f := newOAuthFixture(t)
	f.integrations.disabled = true

	_, err := f.svc.BeginAuth(context.Background(), model.ProviderJira)

	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
	assert.Equal(t, 0, f.states.len(), "no state is issued")
}

func TestOAuthService_HandleCallback_StorageDisabledSkipsExchange(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()

	req, err := f.svc.BeginAuth(ctx, model.ProviderJira)
	require.NoError(t, err)

	// The key went away between the redirect and the callback.
	f.integrations.disabled = true

	_, err = f.svc.HandleCallback(ctx, model.ProviderJira, "code", req.State, req.State)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
	assert.Equal(t, int32(0), f.provider.exchangeCalls.Load())
}

func TestOAuthService_BeginAuth_ProviderWithoutOAuth(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.svc.BeginAuth(context.Background(), model.ProviderLinear)

	assert.ErrorIs(t, err, driven.ErrOAuthNotSupported)
}

func TestOAuthService_Disconnect(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, f.integrations.Save(ctx, model.IntegrationConfig{Provider: model.ProviderJira}))

	require.NoError(t, f.svc.Disconnect(ctx, model.ProviderJira))

	assert.Equal(t, model.ToolStatusDisconnected, f.tools.statuses[model.ProviderJira])
	assert.ErrorIs(t, f.svc.Disconnect(ctx, model.ProviderJira), driven.ErrIntegrationNotFound)
	assert.ErrorIs(t, f.svc.Disconnect(ctx, model.Provider("monday")), driven.ErrUnknownProvider)
}

func TestOAuthService_StartJanitorPurgesExpired(t *testing.T) {
	f := newOAuthFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	past := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, f.states.Save(ctx, model.OAuthState{State: "old", Provider: model.ProviderJira, ExpiresAt: past}))
	_, err := f.svc.BeginAuth(ctx, model.ProviderJira)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		f.svc.StartJanitor(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return f.states.len() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestOAuthService_ConfiguredProviders(t *testing.T) {
	f := newOAuthFixture(t)

	assert.Equal(t, []model.Provider{model.ProviderJira}, f.svc.ConfiguredProviders())
}
