package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// ErrToolNameRequired is returned by Add when the name is blank.
var ErrToolNameRequired = errors.New("tool name is required")

// PMToolService manages the PM tools shown in the workspace.
type PMToolService struct {
	store        driven.PMToolStore
	integrations driven.IntegrationStore
	logger       *slog.Logger
	now          func() time.Time
}

// NewPMToolService creates a PMToolService.
func NewPMToolService(store driven.PMToolStore, integrations driven.IntegrationStore, logger *slog.Logger) *PMToolService {
	return &PMToolService{
		store:        store,
		integrations: integrations,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// List returns all tools.
func (s *PMToolService) List(ctx context.Context) ([]model.PMTool, error) {
	return s.store.ListAll(ctx)
}

// Add registers a new tool. Jira tools start connected only when a Jira
// integration is already stored; other providers need no authorization and
// start connected.
func (s *PMToolService) Add(ctx context.Context, name string, provider model.Provider, settings map[string]string) (*model.PMTool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrToolNameRequired
	}
	if !provider.Valid() {
		return nil, driven.ErrUnknownProvider
	}

	status := model.ToolStatusConnected
	if provider == model.ProviderJira {
		if _, err := s.integrations.Get(ctx, provider); err != nil {
			status = model.ToolStatusDisconnected
		}
	}

	tool := model.PMTool{
		ID:        uuid.New().String(),
		Name:      name,
		Provider:  provider,
		Status:    status,
		Settings:  settings,
		CreatedAt: s.now(),
	}
	if err := s.store.Add(ctx, tool); err != nil {
		return nil, fmt.Errorf("add pm tool: %w", err)
	}

	s.logger.Info("pm tool added", "id", tool.ID, "name", tool.Name, "provider", provider)
	return &tool, nil
}

// Remove deletes the tool with the given id.
func (s *PMToolService) Remove(ctx context.Context, id string) error {
	if err := uuid.Validate(id); err != nil {
		return driven.ErrPMToolNotFound
	}
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	s.logger.Info("pm tool removed", "id", id)
	return nil
}
