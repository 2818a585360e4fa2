package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

// PMToolStore defines the driven port for PM tool persistence.
type PMToolStore interface {
	Add(ctx context.Context, tool model.PMTool) error
	Get(ctx context.Context, id string) (*model.PMTool, error)
	ListAll(ctx context.Context) ([]model.PMTool, error)
	Remove(ctx context.Context, id string) error

	// UpdateSync records the outcome of a sync. taskCount is only written
	// when status is ToolStatusConnected.
	UpdateSync(ctx context.Context, id string, status model.ToolStatus, taskCount int, syncedAt time.Time) error

	// SetStatus updates the status of a single tool.
	// Returns ErrPMToolNotFound if no tool has the id.
	SetStatus(ctx context.Context, id string, status model.ToolStatus) error

	// SetStatusByProvider updates the status of every tool for the provider.
	SetStatusByProvider(ctx context.Context, provider model.Provider, status model.ToolStatus) error
}
