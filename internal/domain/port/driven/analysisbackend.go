package driven

import (
	"context"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

// AnalysisBackend is the remote strategic-analysis service.
type AnalysisBackend interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
