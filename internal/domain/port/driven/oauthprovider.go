package driven

import (
	"context"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

// OAuthProvider defines the driven port for a third-party OAuth2
// authorization server and the identity endpoints behind it.
type OAuthProvider interface {
	// Provider returns the provider this client authorizes against.
	Provider() model.Provider

	// AuthCodeURL builds the authorization-server URL the browser is sent to.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for tokens. It performs exactly
	// one request against the token endpoint.
	Exchange(ctx context.Context, code string) (*model.TokenSet, error)

	// FetchIdentity resolves the authorized account and its workspaces.
	FetchIdentity(ctx context.Context, tokens model.TokenSet) (*model.Identity, error)
}
