package auth

// Package auth contains domain-level types for sign-in, sessions and screens.
// It is pure and free of framework/adapter concerns.

import "time"

// ProviderApple is the backend provider identifier for Sign in with Apple credentials.
const ProviderApple = "apple.com"

// Scope is an attribute the identity provider is asked to share.
type Scope string

const (
	ScopeEmail    Scope = "email"
	ScopeFullName Scope = "name"
)

// Title is an optional pair of display strings attached to a user.
// Nothing populates it yet; it is carried so profile screens can render it later.
type Title struct {
	Primary   string
	Secondary string
}

// User is the locally observed signed-in user.
// An empty Email means the backend reported none (anonymous users never have one).
type User struct {
	UID   string
	Email string
	Title *Title
}

// Principal is what the auth backend reports for a signed-in user.
type Principal struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email,omitempty"`
	ProviderID   string    `json:"provider_id,omitempty"`
	IsAnonymous  bool      `json:"is_anonymous"`
	IDToken      string    `json:"id_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// User maps the principal into the locally held user shape.
func (p Principal) User() User {
	return User{UID: p.UID, Email: p.Email}
}

// SessionState is a consistent snapshot of the session.
// IsLoggedIn is true iff User is non-nil.
type SessionState struct {
	User       *User
	IsLoggedIn bool
}

// FederatedCredential is the backend-recognized proof of identity built from a provider token.
type FederatedCredential struct {
	ProviderID string
	IDToken    string
	RawNonce   string
}

// AuthorizationRequest is handed to the platform authorization controller.
// Only the digest of the nonce leaves the process; the raw value stays with the orchestrator.
type AuthorizationRequest struct {
	Scopes      []Scope
	NonceDigest string
	State       string
}

// AuthorizationCredential is returned by the platform when the user approves a request.
type AuthorizationCredential struct {
	IdentityToken    []byte
	User             string
	Email            string
	AuthorizedScopes []Scope
	// State echoes AuthorizationRequest.State when the controller supports it.
	State string
}
