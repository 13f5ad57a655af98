package ports

// Package ports defines interfaces (hexagonal ports) for sign-in and session behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/stalkcentral/internal/domain/auth"
)

// AuthBackend is the managed authentication backend that owns sessions.
type AuthBackend interface {
	// SignInAnonymously creates a session for a new anonymous principal.
	SignInAnonymously(ctx context.Context) (domainauth.Principal, error)

	// SignInWithCredential exchanges a federated credential for a session.
	// Implementations must reject the credential when sha256(RawNonce) differs from the
	// nonce claim the provider signed.
	SignInWithCredential(ctx context.Context, cred domainauth.FederatedCredential) (domainauth.Principal, error)

	// SignOut ends the current session. Signing out with no session is a no-op.
	SignOut(ctx context.Context) error

	// AddStateListener registers fn for state-change notifications. fn receives the
	// current principal, or nil when signed out. The current state is delivered once
	// right after registration. The returned func removes the listener.
	AddStateListener(fn func(*domainauth.Principal)) (remove func())
}

// SessionStore persists the signed-in principal across restarts.
type SessionStore interface {
	Load(ctx context.Context) (domainauth.Principal, error)
	Save(ctx context.Context, p domainauth.Principal) error
	Clear(ctx context.Context) error
}
