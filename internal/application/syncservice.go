package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

const (
	// DefaultSyncConcurrency bounds how many tools sync at once.
	DefaultSyncConcurrency = 4

	// DefaultToolSyncTimeout bounds a single tool's sync.
	DefaultToolSyncTimeout = 20 * time.Second
)

// syncRoute selects a syncer for tools of one provider. When setting is
// non-empty the route only applies to tools that carry that setting.
type syncRoute struct {
	setting string
	syncer  driven.ToolSyncer
}

// SyncService syncs every PM tool concurrently. A failing tool is recorded in
// its own SyncResult and never aborts the others.
type SyncService struct {
	store       driven.PMToolStore
	routes      map[model.Provider]syncRoute
	fallback    driven.ToolSyncer
	concurrency int
	toolTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewSyncService creates a SyncService. fallback handles every tool without
// a more specific syncer registered via Route.
func NewSyncService(store driven.PMToolStore, fallback driven.ToolSyncer, logger *slog.Logger) *SyncService {
	return &SyncService{
		store:       store,
		routes:      make(map[model.Provider]syncRoute),
		fallback:    fallback,
		concurrency: DefaultSyncConcurrency,
		toolTimeout: DefaultToolSyncTimeout,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Route registers syncer for provider. If setting is non-empty, only tools
// whose Settings contain a non-empty value for it use syncer.
func (s *SyncService) Route(provider model.Provider, setting string, syncer driven.ToolSyncer) {
	s.routes[provider] = syncRoute{setting: setting, syncer: syncer}
}

// SetConcurrency overrides DefaultSyncConcurrency. Values below 1 are ignored.
func (s *SyncService) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// SetToolTimeout overrides DefaultToolSyncTimeout.
func (s *SyncService) SetToolTimeout(d time.Duration) {
	if d > 0 {
		s.toolTimeout = d
	}
}

// SyncAll syncs every stored tool and returns one result per tool, in store
// order. Disconnected tools are reported as skipped.
func (s *SyncService) SyncAll(ctx context.Context) ([]model.SyncResult, error) {
	tools, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pm tools: %w", err)
	}

	results := make([]model.SyncResult, len(tools))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, tool := range tools {
		g.Go(func() error {
			results[i] = s.syncOne(ctx, tool)
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, r := range results {
		if r.Status == model.SyncStatusFailed {
			failed++
		}
	}
	s.logger.Info("pm tool sync finished", "tools", len(results), "failed", failed)

	return results, nil
}

func (s *SyncService) syncOne(ctx context.Context, tool model.PMTool) model.SyncResult {
	result := model.SyncResult{
		ToolID:   tool.ID,
		Name:     tool.Name,
		Provider: tool.Provider,
	}

	if tool.Status == model.ToolStatusDisconnected {
		result.Status = model.SyncStatusSkipped
		result.SyncedAt = s.now()
		return result
	}

	if err := s.store.SetStatus(ctx, tool.ID, model.ToolStatusSyncing); err != nil {
		s.logger.Warn("failed to mark tool syncing", "tool", tool.Name, "error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.toolTimeout)
	defer cancel()

	start := time.Now()
	count, err := s.syncerFor(tool).Sync(ctx, tool)
	result.Duration = time.Since(start)
	result.SyncedAt = s.now()

	status := model.ToolStatusConnected
	if err != nil {
		s.logger.Warn("pm tool sync failed", "tool", tool.Name, "provider", tool.Provider, "error", err)
		result.Status = model.SyncStatusFailed
		result.Error = err.Error()
		status = model.ToolStatusError
	} else {
		result.Status = model.SyncStatusSuccess
		result.ItemsSynced = count
	}

	// The parent ctx may already be done; the outcome is still recorded.
	if uerr := s.store.UpdateSync(context.WithoutCancel(ctx), tool.ID, status, count, result.SyncedAt); uerr != nil {
		s.logger.Error("failed to record sync result", "tool", tool.Name, "error", uerr)
	}

	return result
}

func (s *SyncService) syncerFor(tool model.PMTool) driven.ToolSyncer {
	route, ok := s.routes[tool.Provider]
	if !ok {
		return s.fallback
	}
	if route.setting != "" && tool.Settings[route.setting] == "" {
		return s.fallback
	}
	return route.syncer
}
