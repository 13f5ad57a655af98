package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	"github.com/target/stalkcentral/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthBackend                = (*FakeBackend)(nil)
	_ ports.Window                     = (*RecordingWindow)(nil)
	_ ports.AuthorizationController    = (*ManualController)(nil)
	_ ports.AuthorizationDelegate      = (*RecordingDelegate)(nil)
	_ ports.PresentationAnchorProvider = StaticAnchor{}
)

// Frame is one SetRoot call observed by RecordingWindow.
type Frame struct {
	Screen     domainauth.Screen
	Transition domainauth.Transition
}

// RecordingWindow records every root swap and presented authorization URL.
type RecordingWindow struct {
	mu        sync.Mutex
	frames    []Frame
	presented []string
	hidden    bool

	// SetRootErr and PresentErr, when set, are returned by the respective calls.
	SetRootErr error
	PresentErr error
}

// NewRecordingWindow returns a live window.
func NewRecordingWindow() *RecordingWindow { return &RecordingWindow{} }

func (w *RecordingWindow) SetRoot(screen domainauth.Screen, transition domainauth.Transition) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.SetRootErr != nil {
		return w.SetRootErr
	}
	w.frames = append(w.frames, Frame{Screen: screen, Transition: transition})
	return nil
}

func (w *RecordingWindow) PresentAuthorization(authURL string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.PresentErr != nil {
		return w.PresentErr
	}
	w.presented = append(w.presented, authURL)
	return nil
}

func (w *RecordingWindow) Live() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.hidden
}

// Hide makes Live report false.
func (w *RecordingWindow) Hide() {
	w.mu.Lock()
	w.hidden = true
	w.mu.Unlock()
}

// Frames returns a copy of the recorded root swaps.
func (w *RecordingWindow) Frames() []Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Frame(nil), w.frames...)
}

// LastFrame returns the most recent root swap.
func (w *RecordingWindow) LastFrame() (Frame, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.frames) == 0 {
		return Frame{}, false
	}
	return w.frames[len(w.frames)-1], true
}

// Presented returns the authorization URLs shown so far.
func (w *RecordingWindow) Presented() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.presented...)
}

// StaticAnchor always returns Window, or Err when set.
type StaticAnchor struct {
	Window ports.Window
	Err    error
}

func (a StaticAnchor) PresentationAnchor() (ports.Window, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	if a.Window == nil {
		return nil, errors.New("no window")
	}
	return a.Window, nil
}

// RecordingDelegate records delegate callbacks and returns Result from each.
type RecordingDelegate struct {
	mu     sync.Mutex
	Creds  []domainauth.AuthorizationCredential
	Errs   []error
	Result error
}

func (d *RecordingDelegate) AuthorizationSucceeded(_ context.Context, cred domainauth.AuthorizationCredential) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Creds = append(d.Creds, cred)
	return d.Result
}

func (d *RecordingDelegate) AuthorizationFailed(_ context.Context, err error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Errs = append(d.Errs, err)
	return d.Result
}

// PendingRequest is a request captured by ManualController.
type PendingRequest struct {
	Request  domainauth.AuthorizationRequest
	Delegate ports.AuthorizationDelegate
	Anchor   ports.PresentationAnchorProvider
}

// ManualController captures requests so the test decides when and how each completes.
type ManualController struct {
	mu       sync.Mutex
	requests []PendingRequest

	// PerformErr, when set, is returned by PerformRequest and nothing is captured.
	PerformErr error
}

func (c *ManualController) PerformRequest(
	_ context.Context,
	req domainauth.AuthorizationRequest,
	delegate ports.AuthorizationDelegate,
	anchor ports.PresentationAnchorProvider,
) error {
	if c.PerformErr != nil {
		return c.PerformErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, PendingRequest{Request: req, Delegate: delegate, Anchor: anchor})
	return nil
}

// Requests returns the captured requests in order.
func (c *ManualController) Requests() []PendingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]PendingRequest(nil), c.requests...)
}

// Last returns the most recent captured request.
func (c *ManualController) Last() (PendingRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return PendingRequest{}, false
	}
	return c.requests[len(c.requests)-1], true
}

// FakeBackend is an in-memory AuthBackend. Listeners are invoked synchronously.
// The Err fields make the matching operation fail without changing state.
type FakeBackend struct {
	mu        sync.Mutex
	current   *domainauth.Principal
	listeners map[int]func(*domainauth.Principal)
	nextID    int

	AnonymousErr error
	ExchangeErr  error
	SignOutErr   error

	// Exchanges records every credential passed to SignInWithCredential.
	Exchanges []domainauth.FederatedCredential
}

// NewFakeBackend returns a signed-out backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{listeners: make(map[int]func(*domainauth.Principal))}
}

func (b *FakeBackend) SignInAnonymously(context.Context) (domainauth.Principal, error) {
	if b.AnonymousErr != nil {
		return domainauth.Principal{}, b.AnonymousErr
	}
	p := domainauth.Principal{UID: uuid.NewString(), IsAnonymous: true}
	b.publish(&p)
	return p, nil
}

func (b *FakeBackend) SignInWithCredential(_ context.Context, cred domainauth.FederatedCredential) (domainauth.Principal, error) {
	b.mu.Lock()
	b.Exchanges = append(b.Exchanges, cred)
	b.mu.Unlock()
	if b.ExchangeErr != nil {
		return domainauth.Principal{}, b.ExchangeErr
	}
	p := domainauth.Principal{
		UID:        "federated-" + cred.ProviderID,
		Email:      "user@example.com",
		ProviderID: cred.ProviderID,
		IDToken:    cred.IDToken,
	}
	b.publish(&p)
	return p, nil
}

func (b *FakeBackend) SignOut(context.Context) error {
	if b.SignOutErr != nil {
		return b.SignOutErr
	}
	b.mu.Lock()
	signedIn := b.current != nil
	b.mu.Unlock()
	if signedIn {
		b.publish(nil)
	}
	return nil
}

func (b *FakeBackend) AddStateListener(fn func(*domainauth.Principal)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	cur := b.snapshot()
	b.mu.Unlock()

	fn(cur)
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Set replaces the current principal and notifies listeners, as a token refresh
// or a change made on another device would.
func (b *FakeBackend) Set(p *domainauth.Principal) { b.publish(p) }

// Current returns a copy of the signed-in principal, or nil.
func (b *FakeBackend) Current() *domainauth.Principal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// ListenerCount reports registered listeners.
func (b *FakeBackend) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (b *FakeBackend) publish(p *domainauth.Principal) {
	b.mu.Lock()
	if p == nil {
		b.current = nil
	} else {
		cp := *p
		b.current = &cp
	}
	fns := make([]func(*domainauth.Principal), 0, len(b.listeners))
	for i := 0; i < b.nextID; i++ {
		if fn, ok := b.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	cur := b.snapshot()
	b.mu.Unlock()

	for _, fn := range fns {
		fn(cur)
	}
}

func (b *FakeBackend) snapshot() *domainauth.Principal {
	if b.current == nil {
		return nil
	}
	cp := *b.current
	return &cp
}
