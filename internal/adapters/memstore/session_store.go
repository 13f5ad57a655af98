// Package memstore provides an in-memory SessionStore for single-process runs.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/target/stalkcentral/internal/domain/auth"
)

// ErrNotFound is returned when no session is stored.
var ErrNotFound = errors.New("session not found")

// SessionStore keeps the signed-in principal in memory. The zero value is ready to use.
type SessionStore struct {
	mu sync.Mutex
	p  *domainauth.Principal
}

// NewSessionStore creates an empty in-memory store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Load(_ context.Context) (domainauth.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.p == nil {
		return domainauth.Principal{}, ErrNotFound
	}
	if !s.p.ExpiresAt.IsZero() && time.Now().After(s.p.ExpiresAt) {
		s.p = nil
		return domainauth.Principal{}, ErrNotFound
	}
	return *s.p, nil
}

func (s *SessionStore) Save(_ context.Context, p domainauth.Principal) error {
	if p.UID == "" {
		return errors.New("principal UID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = &p
	return nil
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = nil
	return nil
}
