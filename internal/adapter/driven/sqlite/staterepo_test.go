package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

var stateTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func TestStateRepo_SaveAndConsume(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStateRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, model.OAuthState{
		State:     "state-1",
		Provider:  model.ProviderJira,
		CreatedAt: stateTime,
		ExpiresAt: stateTime.Add(10 * time.Minute),
	}))

	got, err := repo.Consume(ctx, "state-1")
	require.NoError(t, err)
	assert.Equal(t, "state-1", got.State)
	assert.Equal(t, model.ProviderJira, got.Provider)
	assert.Equal(t, stateTime, got.CreatedAt)
	assert.Equal(t, stateTime.Add(10*time.Minute), got.ExpiresAt)
}

func TestStateRepo_ConsumeIsSingleUse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStateRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, model.OAuthState{
		State:     "state-1",
		Provider:  model.ProviderJira,
		CreatedAt: stateTime,
		ExpiresAt: stateTime.Add(time.Minute),
	}))

	_, err := repo.Consume(ctx, "state-1")
	require.NoError(t, err)

	_, err = repo.Consume(ctx, "state-1")
	require.ErrorIs(t, err, driven.ErrStateNotFound)
}

func TestStateRepo_ConsumeUnknown(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStateRepo(db)

	got, err := repo.Consume(context.Background(), "nope")
	assert.Nil(t, got)
	require.ErrorIs(t, err, driven.ErrStateNotFound)
}

func TestStateRepo_PurgeExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStateRepo(db)
	ctx := context.Background()

	for i, ttl := range []time.Duration{-time.Minute, time.Second, time.Hour} {
		require.NoError(t, repo.Save(ctx, model.OAuthState{
			State:     []string{"old", "soon", "fresh"}[i],
			Provider:  model.ProviderJira,
			CreatedAt: stateTime,
			ExpiresAt: stateTime.Add(ttl),
		}))
	}

	n, err := repo.PurgeExpired(ctx, stateTime.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.Consume(ctx, "fresh")
	require.NoError(t, err)
}
