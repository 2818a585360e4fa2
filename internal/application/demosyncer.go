package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ToolSyncer = (*DemoSyncer)(nil)

// DemoSyncer stands in for providers without a real client. It waits a random
// latency, then reports the tool's task count drifted by a small random amount.
type DemoSyncer struct {
	rng        *Random
	maxLatency time.Duration
}

// NewDemoSyncer creates a DemoSyncer. maxLatency of zero disables the wait.
func NewDemoSyncer(rng *Random, maxLatency time.Duration) *DemoSyncer {
	return &DemoSyncer{rng: rng, maxLatency: maxLatency}
}

// Sync simulates a provider round trip. It returns ctx.Err() if ctx is
// canceled during the wait.
func (d *DemoSyncer) Sync(ctx context.Context, tool model.PMTool) (int, error) {
	if wait := d.rng.Duration(d.maxLatency); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return 0, err
	}

	return max(0, tool.TaskCount+d.rng.IntBetween(-5, 15)), nil
}
