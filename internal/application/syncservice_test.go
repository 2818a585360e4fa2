package application_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pmhub/internal/application"
	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

func seededTools() []model.PMTool {
	return []model.PMTool{
		{ID: "t-jira", Name: "Jira", Provider: model.ProviderJira, Status: model.ToolStatusDisconnected},
		{ID: "t-linear", Name: "Linear", Provider: model.ProviderLinear, Status: model.ToolStatusConnected, TaskCount: 10},
		{ID: "t-asana", Name: "Asana", Provider: model.ProviderAsana, Status: model.ToolStatusConnected, TaskCount: 20},
		{ID: "t-github", Name: "GitHub", Provider: model.ProviderGitHub, Status: model.ToolStatusConnected,
			Settings: map[string]string{"repository": "acme/app"}},
	}
}

func TestSyncService_SyncAll_PerToolFailureIsolated(t *testing.T) {
	store := newMockToolStore(seededTools()...)
	fallback := &mockSyncer{sync: func(_ context.Context, tool model.PMTool) (int, error) {
		if tool.Provider == model.ProviderAsana {
			return 0, errBoom
		}
		return tool.TaskCount + 1, nil
	}}
	github := &mockSyncer{sync: func(context.Context, model.PMTool) (int, error) { return 42, nil }}

	svc := application.NewSyncService(store, fallback, discardLogger())
	svc.Route(model.ProviderGitHub, "repository", github)

	results, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "t-jira", results[0].ToolID, "results keep store order")
	assert.Equal(t, model.SyncStatusSkipped, results[0].Status)

	assert.Equal(t, model.SyncStatusSuccess, results[1].Status)
	assert.Equal(t, 11, results[1].ItemsSynced)

	assert.Equal(t, model.SyncStatusFailed, results[2].Status)
	assert.Equal(t, "boom", results[2].Error)

	assert.Equal(t, model.SyncStatusSuccess, results[3].Status)
	assert.Equal(t, 42, results[3].ItemsSynced)

	assert.ElementsMatch(t, []string{"t-linear", "t-asana"}, fallback.called())
	assert.Equal(t, []string{"t-github"}, github.called())

	u, ok := store.update("t-asana")
	require.True(t, ok)
	assert.Equal(t, model.ToolStatusError, u.Status)

	u, ok = store.update("t-linear")
	require.True(t, ok)
	assert.Equal(t, model.ToolStatusConnected, u.Status)
	assert.Equal(t, 11, u.TaskCount)

	_, ok = store.update("t-jira")
	assert.False(t, ok, "skipped tools are not updated")
}

func TestSyncService_MarksToolSyncingWhileRunning(t *testing.T) {
	store := newMockToolStore(model.PMTool{
		ID: "t-linear", Name: "Linear", Provider: model.ProviderLinear, Status: model.ToolStatusConnected,
	})
	var during model.ToolStatus
	syncer := &mockSyncer{sync: func(_ context.Context, tool model.PMTool) (int, error) {
		during = store.statusOf(tool.ID)
		return 3, nil
	}}

	svc := application.NewSyncService(store, syncer, discardLogger())
	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.ToolStatusSyncing, during)
	u, ok := store.update("t-linear")
	require.True(t, ok)
	assert.Equal(t, model.ToolStatusConnected, u.Status)
}

func TestSyncService_RouteRequiresSetting(t *testing.T) {
	store := newMockToolStore(model.PMTool{
		ID: "t-gh", Name: "GitHub", Provider: model.ProviderGitHub, Status: model.ToolStatusConnected,
	})
	fallback := &mockSyncer{}
	github := &mockSyncer{}

	svc := application.NewSyncService(store, fallback, discardLogger())
	svc.Route(model.ProviderGitHub, "repository", github)

	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Empty(t, github.called())
	assert.Equal(t, []string{"t-gh"}, fallback.called())
}

func TestSyncService_SyncAll_RunsConcurrently(t *testing.T) {
	var tools []model.PMTool
	for i := range 4 {
		tools = append(tools, model.PMTool{
			ID: string(rune('a' + i)), Name: string(rune('A' + i)),
			Provider: model.ProviderLinear, Status: model.ToolStatusConnected,
		})
	}
	store := newMockToolStore(tools...)

	var inFlight, peak atomic.Int32
	fallback := &mockSyncer{sync: func(context.Context, model.PMTool) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		inFlight.Add(-1)
		return 1, nil
	}}

	svc := application.NewSyncService(store, fallback, discardLogger())
	svc.SetConcurrency(4)

	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Greater(t, peak.Load(), int32(1))
}

func TestSyncService_ToolTimeout(t *testing.T) {
	store := newMockToolStore(model.PMTool{
		ID: "slow", Name: "Slow", Provider: model.ProviderTrello, Status: model.ToolStatusConnected,
	})
	fallback := &mockSyncer{sync: func(ctx context.Context, _ model.PMTool) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}}

	svc := application.NewSyncService(store, fallback, discardLogger())
	svc.SetToolTimeout(20 * time.Millisecond)

	results, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.SyncStatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "deadline exceeded")
}

func TestSyncService_ListError(t *testing.T) {
	store := newMockToolStore()
	store.listErr = errors.New("db closed")

	svc := application.NewSyncService(store, &mockSyncer{}, discardLogger())

	_, err := svc.SyncAll(context.Background())
	assert.ErrorContains(t, err, "db closed")
}
