package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	apperrors "github.com/target/stalkcentral/internal/errors"
	"github.com/target/stalkcentral/internal/observability/metrics"
	"github.com/target/stalkcentral/internal/observability/statsd"
	"github.com/target/stalkcentral/internal/ports"
)

// SessionCoordinatorOptions groups dependencies for SessionCoordinator.
type SessionCoordinatorOptions struct {
	Backend ports.AuthBackend
	// Anchor supplies the window the active screen is rendered into.
	Anchor  ports.PresentationAnchorProvider
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// SessionCoordinator owns the current-user state and keeps the displayed screen in
// sync with the backend's state-change notifications.
type SessionCoordinator struct {
	backend ports.AuthBackend
	anchor  ports.PresentationAnchorProvider
	metrics statsd.Sink
	logger  *slog.Logger

	mu       sync.Mutex
	state    domainauth.SessionState
	rendered domainauth.ScreenKind
	gen      uint64
	notified bool
	remove   func()
	onChange func(domainauth.SessionState)
}

// NewSessionCoordinator constructs a SessionCoordinator. It starts logged out and
// renders nothing until Subscribe is called.
func NewSessionCoordinator(opts SessionCoordinatorOptions) (*SessionCoordinator, error) {
	if opts.Backend == nil {
		return nil, errors.New("session coordinator: backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCoordinator{
		backend: opts.Backend,
		anchor:  opts.Anchor,
		metrics: opts.Metrics,
		logger:  logger.With("component", "session"),
	}, nil
}

// Subscribe registers for backend state changes. Each notification updates the state
// and swaps the root screen; the first one after subscribing renders without a
// transition, later ones cross-dissolve. onChange, if non-nil, observes every new state.
// Subscribing again replaces the previous subscription.
func (c *SessionCoordinator) Subscribe(onChange func(domainauth.SessionState)) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	prev := c.remove
	c.remove = nil
	c.notified = false
	c.onChange = onChange
	c.mu.Unlock()

	if prev != nil {
		prev()
	}

	remove := c.backend.AddStateListener(func(p *domainauth.Principal) {
		c.handle(gen, p)
	})

	c.mu.Lock()
	if c.gen == gen {
		c.remove = remove
		remove = nil
	}
	c.mu.Unlock()
	if remove != nil {
		remove()
	}
}

// Close drops the subscription. Notifications already queued are ignored.
func (c *SessionCoordinator) Close() {
	c.mu.Lock()
	c.gen++
	prev := c.remove
	c.remove = nil
	c.onChange = nil
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

func (c *SessionCoordinator) handle(gen uint64, p *domainauth.Principal) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = stateFor(p)
	state := cloneState(c.state)
	transition := domainauth.TransitionCrossDissolve
	if !c.notified {
		transition = domainauth.TransitionNone
		c.notified = true
	}
	screen := domainauth.ScreenFor(state)
	from := c.rendered
	c.rendered = screen.Kind
	onChange := c.onChange
	c.mu.Unlock()

	c.render(screen, transition)
	if from == "" {
		from = "none"
	}
	metrics.EmitSessionTransition(c.metrics, string(from), string(screen.Kind), transition.String())
	c.logger.Debug("session state changed",
		"logged_in", state.IsLoggedIn,
		"screen", screen.Kind,
		"transition", transition.String(),
	)

	if onChange != nil {
		onChange(state)
	}
}

func (c *SessionCoordinator) render(screen domainauth.Screen, transition domainauth.Transition) {
	if c.anchor == nil {
		return
	}
	window, err := c.anchor.PresentationAnchor()
	if err != nil {
		c.logger.Warn("no window to render session screen", "screen", screen.Kind, "error", err)
		return
	}
	if err := window.SetRoot(screen, transition); err != nil {
		c.logger.Warn("render session screen", "screen", screen.Kind, "error", err)
	}
}

// State returns a snapshot of the current session state.
func (c *SessionCoordinator) State() domainauth.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(c.state)
}

// LoginAnonymously asks the backend for an anonymous session. State changes arrive
// through the subscription, not from this call.
func (c *SessionCoordinator) LoginAnonymously(ctx context.Context) (domainauth.Principal, error) {
	p, err := c.backend.SignInAnonymously(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "anonymous login failed", "error", err)
		metrics.EmitResult(c.metrics, metrics.AnonymousLogin, metrics.ResultError, err)
		return domainauth.Principal{}, apperrors.Wrap(err, apperrors.ErrCodeBackendAnonymousLogin, "Could not continue as guest.")
	}
	c.logger.InfoContext(ctx, "logged in anonymously", "uid", p.UID)
	metrics.EmitResult(c.metrics, metrics.AnonymousLogin, metrics.ResultSuccess, nil)
	return p, nil
}

// SignInWithCredential exchanges a federated credential with the backend. State
// changes arrive through the subscription.
func (c *SessionCoordinator) SignInWithCredential(
	ctx context.Context,
	cred domainauth.FederatedCredential,
) (domainauth.Principal, error) {
	p, err := c.backend.SignInWithCredential(ctx, cred)
	if err != nil {
		c.logger.ErrorContext(ctx, "credential exchange failed", "provider", cred.ProviderID, "error", err)
		return domainauth.Principal{}, apperrors.Wrap(err, apperrors.ErrCodeBackendExchange, "Sign in was rejected.")
	}
	c.logger.InfoContext(ctx, "signed in", "provider", cred.ProviderID, "uid", p.UID)
	return p, nil
}

// Logout signs out of the backend and clears the local state at once. On failure
// the state is left untouched. Logging out while logged out succeeds.
func (c *SessionCoordinator) Logout(ctx context.Context) error {
	if err := c.backend.SignOut(ctx); err != nil {
		c.logger.ErrorContext(ctx, "logout failed", "error", err)
		metrics.EmitResult(c.metrics, metrics.Logout, metrics.ResultError, err)
		return apperrors.Wrap(err, apperrors.ErrCodeBackendSignOut, "Could not log out.")
	}

	c.mu.Lock()
	wasLoggedIn := c.state.IsLoggedIn
	c.state = domainauth.SessionState{}
	c.mu.Unlock()

	result := metrics.ResultSuccess
	if !wasLoggedIn {
		result = metrics.ResultNoop
	}
	metrics.EmitResult(c.metrics, metrics.Logout, result, nil)
	c.logger.InfoContext(ctx, "logged out", "was_logged_in", wasLoggedIn)
	return nil
}

func stateFor(p *domainauth.Principal) domainauth.SessionState {
	if p == nil || p.UID == "" {
		return domainauth.SessionState{}
	}
	u := p.User()
	return domainauth.SessionState{User: &u, IsLoggedIn: true}
}

func cloneState(s domainauth.SessionState) domainauth.SessionState {
	if s.User == nil {
		return domainauth.SessionState{}
	}
	u := *s.User
	if u.Title != nil {
		t := *u.Title
		u.Title = &t
	}
	return domainauth.SessionState{User: &u, IsLoggedIn: true}
}

// WindowAnchor is a PresentationAnchorProvider over a single window.
type WindowAnchor struct {
	Window ports.Window
}

// PresentationAnchor returns the window while it is live.
func (a WindowAnchor) PresentationAnchor() (ports.Window, error) {
	if a.Window == nil || !a.Window.Live() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidState, "no live window to present on")
	}
	return a.Window, nil
}
