// Package authstate fans backend state changes out to registered listeners.
package authstate

import (
	"sync"

	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	"github.com/target/stalkcentral/internal/ports"
	"github.com/target/stalkcentral/internal/runloop"
)

// Notifier tracks the current principal and delivers changes through a dispatcher.
// Listeners get the current state once on registration and again whenever the signed-in
// uid changes (including sign-out). Re-publishing the same uid is silent.
type Notifier struct {
	dispatcher ports.Dispatcher

	mu        sync.Mutex
	current   *domainauth.Principal
	listeners map[uint64]func(*domainauth.Principal)
	nextID    uint64
}

// NewNotifier constructs a Notifier. A nil dispatcher delivers inline.
func NewNotifier(dispatcher ports.Dispatcher) *Notifier {
	if dispatcher == nil {
		dispatcher = runloop.Immediate{}
	}
	return &Notifier{
		dispatcher: dispatcher,
		listeners:  make(map[uint64]func(*domainauth.Principal)),
	}
}

// Current returns a copy of the current principal, or nil when signed out.
func (n *Notifier) Current() *domainauth.Principal {
	n.mu.Lock()
	defer n.mu.Unlock()
	return clonePrincipal(n.current)
}

// Add registers fn and schedules delivery of the current state to it.
func (n *Notifier) Add(fn func(*domainauth.Principal)) func() {
	if fn == nil {
		return func() {}
	}

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	snapshot := clonePrincipal(n.current)
	n.mu.Unlock()

	n.dispatcher.Post(func() {
		if n.registered(id) {
			fn(snapshot)
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// Publish records p (nil for signed out) and notifies listeners when the uid changed.
// It reports whether a notification was sent.
func (n *Notifier) Publish(p *domainauth.Principal) bool {
	n.mu.Lock()
	if sameUID(n.current, p) {
		// Refresh token material without notifying.
		n.current = clonePrincipal(p)
		n.mu.Unlock()
		return false
	}
	n.current = clonePrincipal(p)
	targets := make(map[uint64]func(*domainauth.Principal), len(n.listeners))
	for id, fn := range n.listeners {
		targets[id] = fn
	}
	n.mu.Unlock()

	for id, fn := range targets {
		snapshot := clonePrincipal(p)
		n.dispatcher.Post(func() {
			if n.registered(id) {
				fn(snapshot)
			}
		})
	}
	return true
}

func (n *Notifier) registered(id uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.listeners[id]
	return ok
}

func sameUID(a, b *domainauth.Principal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID == b.UID
}

func clonePrincipal(p *domainauth.Principal) *domainauth.Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
