package model

import "time"

// OAuthState is the server-side record of a pending authorization request.
// State is the opaque value round-tripped through the provider redirect.
type OAuthState struct {
	State     string
	Provider  Provider
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the state can no longer be redeemed.
func (s OAuthState) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
