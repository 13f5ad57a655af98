package redis

// Package redis provides Redis-based adapters for the stalkcentral client.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
)

const defaultKey = "stalkcentral:session:current"

// SessionStore persists the signed-in principal in Redis.
// When the principal carries an ExpiresAt, the key expires with it.
type SessionStore struct {
	client redis.UniversalClient
	key    string
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{
		client: client,
		key:    defaultKey,
	}
}

// NewSessionStoreWithKey creates a Redis session store under a custom key, letting
// several client profiles share one Redis.
func NewSessionStoreWithKey(client redis.UniversalClient, key string) *SessionStore {
	if key == "" {
		key = defaultKey
	}
	return &SessionStore{
		client: client,
		key:    key,
	}
}

func (s *SessionStore) Save(ctx context.Context, p domainauth.Principal) error {
	if p.UID == "" {
		return errors.New("principal UID cannot be empty")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	var ttl time.Duration
	if !p.ExpiresAt.IsZero() {
		ttl = time.Until(p.ExpiresAt)
		if ttl <= 0 {
			return errors.New("session is expired")
		}
	}

	return s.client.Set(ctx, s.key, data, ttl).Err()
}

func (s *SessionStore) Load(ctx context.Context) (domainauth.Principal, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Principal{}, ErrNotFound
		}
		return domainauth.Principal{}, fmt.Errorf("redis get: %w", err)
	}

	var p domainauth.Principal
	if unmarshalErr := json.Unmarshal([]byte(data), &p); unmarshalErr != nil {
		return domainauth.Principal{}, fmt.Errorf("unmarshal principal: %w", unmarshalErr)
	}

	// Redis TTL normally removes the key first.
	if !p.ExpiresAt.IsZero() && time.Now().After(p.ExpiresAt) {
		if clearErr := s.Clear(ctx); clearErr != nil {
			return domainauth.Principal{}, fmt.Errorf("cleanup expired session: %w", clearErr)
		}
		return domainauth.Principal{}, ErrNotFound
	}

	return p, nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// ErrNotFound is returned when no session is stored.
type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }

var ErrNotFound error = notFoundError{}
