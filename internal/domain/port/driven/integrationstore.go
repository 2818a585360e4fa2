package driven

import (
	"context"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

// IntegrationStore defines the driven port for encrypted integration credential
// persistence. The adapter layer is responsible for encryption/decryption; this
// interface operates on plaintext tokens at the domain boundary.
type IntegrationStore interface {
	// Enabled reports whether tokens can be stored. When false, Save, Get and
	// List return ErrEncryptionKeyNotSet.
	Enabled() bool

	// Save stores or replaces the integration for cfg.Provider.
	// Returns ErrEncryptionKeyNotSet if the adapter was constructed without an encryption key.
	Save(ctx context.Context, cfg model.IntegrationConfig) error

	// Get retrieves the integration for the given provider.
	// Returns ErrIntegrationNotFound if the provider is not connected.
	Get(ctx context.Context, provider model.Provider) (*model.IntegrationConfig, error)

	// List returns all connected integrations ordered by provider.
	List(ctx context.Context) ([]model.IntegrationConfig, error)

	// Delete removes the integration for the given provider.
	// Returns ErrIntegrationNotFound if the provider is not connected.
	Delete(ctx context.Context, provider model.Provider) error
}
