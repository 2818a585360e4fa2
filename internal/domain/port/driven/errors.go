package driven

import "errors"

// Sentinel errors shared by driven adapters and application services.
var (
	// ErrEncryptionKeyNotSet is returned by IntegrationStore operations when
	// PMHUB_SECRET_KEY has not been configured.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set PMHUB_SECRET_KEY")

	ErrIntegrationNotFound = errors.New("integration not found")
	ErrStateNotFound       = errors.New("oauth state not found")
	ErrStateExpired        = errors.New("oauth state expired")
	ErrStateMismatch       = errors.New("oauth state mismatch")
	ErrPMToolNotFound      = errors.New("pm tool not found")
	ErrPMToolAlreadyExists = errors.New("pm tool already exists")
	ErrUnknownProvider     = errors.New("unknown provider")

	// ErrOAuthNotSupported is returned for known providers that have no OAuth
	// connector; their PM tools are demo-synced only.
	ErrOAuthNotSupported = errors.New("provider does not support oauth")

	// ErrProviderNotConfigured is returned when a provider is known but its
	// client credentials are absent from the environment.
	ErrProviderNotConfigured = errors.New("provider not configured")
)
