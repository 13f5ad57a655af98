package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
)

func TestSessionStore_RoundTrip(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, domainauth.Principal{UID: "u1"}))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_ExpiredIsDropped(t *testing.T) {
	var s SessionStore
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domainauth.Principal{UID: "u1", ExpiresAt: time.Now().Add(-time.Second)}))
	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_RejectsEmptyUID(t *testing.T) {
	err := NewSessionStore().Save(context.Background(), domainauth.Principal{})
	require.Error(t, err)
}
