package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OAuthStateStore = (*StateRepo)(nil)

// StateRepo is the SQLite implementation of the OAuthStateStore port.
type StateRepo struct {
	db *DB
}

// NewStateRepo creates a new StateRepo backed by the given DB.
func NewStateRepo(db *DB) *StateRepo {
	return &StateRepo{db: db}
}

// Save inserts a pending state. State values are unique.
func (r *StateRepo) Save(ctx context.Context, state model.OAuthState) error {
	const query = `INSERT INTO oauth_states (state, provider, created_at, expires_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		state.State,
		string(state.Provider),
		formatTime(state.CreatedAt),
		formatTime(state.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("save oauth state for %q: %w", state.Provider, err)
	}
	return nil
}

// Consume deletes the state and returns it in a single statement, so two
// concurrent callbacks carrying the same state cannot both redeem it.
func (r *StateRepo) Consume(ctx context.Context, state string) (*model.OAuthState, error) {
	const query = `DELETE FROM oauth_states WHERE state = ? RETURNING state, provider, created_at, expires_at`

	var (
		s                    model.OAuthState
		provider             string
		createdAt, expiresAt string
	)
	err := r.db.Writer.QueryRowContext(ctx, query, state).Scan(&s.State, &provider, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}
	s.Provider = model.Provider(provider)

	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if s.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	return &s, nil
}

// PurgeExpired deletes states whose expiry is at or before now.
func (r *StateRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM oauth_states WHERE expires_at <= ?`

	result, err := r.db.Writer.ExecContext(ctx, query, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("purge expired oauth states: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return n, nil
}
