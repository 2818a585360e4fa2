package driven

import (
	"context"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

// ToolSyncer pulls work items for a single PM tool and returns how many were
// synced.
type ToolSyncer interface {
	Sync(ctx context.Context, tool model.PMTool) (int, error)
}
