package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- OAuth provider ---

type mockProvider struct {
	name          model.Provider
	exchangeCalls atomic.Int32
	exchangeErr   error
	identityErr   error
	identity      *model.Identity
}

func (m *mockProvider) Provider() model.Provider { return m.name }

func (m *mockProvider) AuthCodeURL(state string) string {
	return "https://auth.example.com/authorize?state=" + state
}

func (m *mockProvider) Exchange(_ context.Context, code string) (*model.TokenSet, error) {
	m.exchangeCalls.Add(1)
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	return &model.TokenSet{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
		Scopes:       []string{"read:jira-work"},
	}, nil
}

func (m *mockProvider) FetchIdentity(_ context.Context, _ model.TokenSet) (*model.Identity, error) {
	if m.identityErr != nil {
		return nil, m.identityErr
	}
	if m.identity != nil {
		return m.identity, nil
	}
	return &model.Identity{
		AccountID: "acc-1",
		Name:      "Dana Scott",
		Email:     "dana@example.com",
		Workspaces: []model.Workspace{
			{ID: "cloud-1", Name: "acme", URL: "https://acme.atlassian.net"},
			{ID: "cloud-2", Name: "acme-sandbox", URL: "https://acme-sandbox.atlassian.net"},
		},
	}, nil
}

// --- OAuth state store ---

type mockStateStore struct {
	mu     sync.Mutex
	states map[string]model.OAuthState
}

func newMockStateStore() *mockStateStore {
	return &mockStateStore{states: make(map[string]model.OAuthState)}
}

func (m *mockStateStore) Save(_ context.Context, s model.OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.State] = s
	return nil
}

func (m *mockStateStore) Consume(_ context.Context, state string) (*model.OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[state]
	if !ok {
		return nil, driven.ErrStateNotFound
	}
	delete(m.states, state)
	return &s, nil
}

func (m *mockStateStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, s := range m.states {
		if s.IsExpired(now) {
			delete(m.states, k)
			n++
		}
	}
	return n, nil
}

func (m *mockStateStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

// --- Integration store ---

type mockIntegrationStore struct {
	mu       sync.Mutex
	configs  map[model.Provider]model.IntegrationConfig
	saveErr  error
	disabled bool
}

func newMockIntegrationStore() *mockIntegrationStore {
	return &mockIntegrationStore{configs: make(map[model.Provider]model.IntegrationConfig)}
}

func (m *mockIntegrationStore) Enabled() bool { return !m.disabled }

func (m *mockIntegrationStore) Save(_ context.Context, cfg model.IntegrationConfig) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.Provider] = cfg
	return nil
}

func (m *mockIntegrationStore) Get(_ context.Context, provider model.Provider) (*model.IntegrationConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[provider]
	if !ok {
		return nil, driven.ErrIntegrationNotFound
	}
	return &cfg, nil
}

func (m *mockIntegrationStore) List(_ context.Context) ([]model.IntegrationConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.IntegrationConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		out = append(out, cfg)
	}
	return out, nil
}

func (m *mockIntegrationStore) Delete(_ context.Context, provider model.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[provider]; !ok {
		return driven.ErrIntegrationNotFound
	}
	delete(m.configs, provider)
	return nil
}

// --- PM tool store ---

type syncUpdate struct {
	ID        string
	Status    model.ToolStatus
	TaskCount int
}

type mockToolStore struct {
	mu        sync.Mutex
	tools     []model.PMTool
	updates   []syncUpdate
	statuses  map[model.Provider]model.ToolStatus
	byID      map[string]model.ToolStatus
	listErr   error
	addErr    error
	removeErr error
}

func newMockToolStore(tools ...model.PMTool) *mockToolStore {
	return &mockToolStore{
		tools:    tools,
		statuses: make(map[model.Provider]model.ToolStatus),
		byID:     make(map[string]model.ToolStatus),
	}
}

func (m *mockToolStore) Add(_ context.Context, tool model.PMTool) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = append(m.tools, tool)
	return nil
}

func (m *mockToolStore) Get(_ context.Context, id string) (*model.PMTool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tools {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, driven.ErrPMToolNotFound
}

func (m *mockToolStore) ListAll(_ context.Context) ([]model.PMTool, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PMTool(nil), m.tools...), nil
}

func (m *mockToolStore) Remove(_ context.Context, id string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tools {
		if t.ID == id {
			m.tools = append(m.tools[:i], m.tools[i+1:]...)
			return nil
		}
	}
	return driven.ErrPMToolNotFound
}

func (m *mockToolStore) UpdateSync(_ context.Context, id string, status model.ToolStatus, taskCount int, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, syncUpdate{ID: id, Status: status, TaskCount: taskCount})
	return nil
}

func (m *mockToolStore) SetStatus(_ context.Context, id string, status model.ToolStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id] = status
	return nil
}

func (m *mockToolStore) statusOf(id string) model.ToolStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

func (m *mockToolStore) SetStatusByProvider(_ context.Context, provider model.Provider, status model.ToolStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[provider] = status
	return nil
}

func (m *mockToolStore) update(id string) (syncUpdate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.updates {
		if u.ID == id {
			return u, true
		}
	}
	return syncUpdate{}, false
}

// --- Tool syncer ---

type mockSyncer struct {
	mu    sync.Mutex
	calls []string
	sync  func(ctx context.Context, tool model.PMTool) (int, error)
}

func (m *mockSyncer) Sync(ctx context.Context, tool model.PMTool) (int, error) {
	m.mu.Lock()
	m.calls = append(m.calls, tool.ID)
	m.mu.Unlock()
	if m.sync != nil {
		return m.sync(ctx, tool)
	}
	return tool.TaskCount, nil
}

func (m *mockSyncer) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// --- Analysis backend ---

type mockBackend struct {
	result  *model.AnalysisResult
	err     error
	pingErr error
	calls   atomic.Int32
}

func (m *mockBackend) Analyze(_ context.Context, _ model.AnalysisRequest) (*model.AnalysisResult, error) {
	m.calls.Add(1)
	return m.result, m.err
}

func (m *mockBackend) Ping(_ context.Context) error {
	return m.pingErr
}

var errBoom = errors.New("boom")
