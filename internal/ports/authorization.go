package ports

import (
	"context"

	domainauth "github.com/target/stalkcentral/internal/domain/auth"
)

// AuthorizationController drives the identity provider's authorization prompt.
type AuthorizationController interface {
	// PerformRequest shows the provider prompt anchored to the window returned by anchor.
	// The outcome is reported later through delegate, possibly on another goroutine.
	PerformRequest(
		ctx context.Context,
		req domainauth.AuthorizationRequest,
		delegate AuthorizationDelegate,
		anchor PresentationAnchorProvider,
	) error
}

// AuthorizationDelegate receives the outcome of an authorization request.
type AuthorizationDelegate interface {
	AuthorizationSucceeded(ctx context.Context, cred domainauth.AuthorizationCredential) error
	AuthorizationFailed(ctx context.Context, err error) error
}

// PresentationAnchorProvider supplies the surface the provider prompt is anchored to.
type PresentationAnchorProvider interface {
	// PresentationAnchor returns a live, currently displayed window.
	PresentationAnchor() (Window, error)
}

// Window is a top-level display surface.
type Window interface {
	// SetRoot replaces the root screen using the given transition.
	SetRoot(screen domainauth.Screen, transition domainauth.Transition) error
	// PresentAuthorization shows the provider's authorization page as a modal.
	PresentAuthorization(authURL string) error
	// Live reports whether the window is currently displayed.
	Live() bool
}

// Dispatcher runs callbacks on the main queue in submission order.
type Dispatcher interface {
	Post(fn func())
}
