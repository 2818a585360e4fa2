package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

// OAuthStateStore persists pending authorization states.
type OAuthStateStore interface {
	Save(ctx context.Context, state model.OAuthState) error

	// Consume atomically removes and returns the state. Returns
	// ErrStateNotFound if it does not exist (or was already consumed).
	Consume(ctx context.Context, state string) (*model.OAuthState, error)

	// PurgeExpired deletes every state that expired before now and returns
	// the number removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
