package localauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/stalkcentral/internal/adapters/devauth"
	"github.com/target/stalkcentral/internal/adapters/memstore"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	"github.com/target/stalkcentral/internal/mocks"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	backend  *Backend
	store    *memstore.SessionStore
	provider *devauth.Provider
	events   []*domainauth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prov, err := devauth.NewProvider(devauth.Config{Subject: "apple-sub-1", Email: "kevin@example.com"})
	require.NoError(t, err)

	store := memstore.NewSessionStore()
	b, err := New(context.Background(), Config{
		Verifiers: map[string]TokenVerifier{
			domainauth.ProviderApple: NewStaticVerifier(prov.Issuer(), prov.ClientID(), prov.PublicKey()),
		},
		Store: store,
	})
	require.NoError(t, err)

	f := &fixture{backend: b, store: store, provider: prov}
	b.AddStateListener(func(p *domainauth.Principal) { f.events = append(f.events, p) })
	return f
}

func (f *fixture) credential(t *testing.T, rawNonce string) domainauth.FederatedCredential {
	t.Helper()
	tok, err := f.provider.MintToken(domainauth.DigestNonce(rawNonce), []domainauth.Scope{domainauth.ScopeEmail})
	require.NoError(t, err)
	return domainauth.FederatedCredential{
		ProviderID: domainauth.ProviderApple,
		IDToken:    tok,
		RawNonce:   rawNonce,
	}
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestBackend_SignInAnonymously(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.backend.SignInAnonymously(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, p.UID)
	assert.Empty(t, p.Email)
	assert.True(t, p.IsAnonymous)

	stored, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.UID, stored.UID)

	require.Len(t, f.events, 2)
	assert.Nil(t, f.events[0], "initial state is signed out")
	assert.Equal(t, p.UID, f.events[1].UID)
}

func TestBackend_AnonymousUIDsAreUnique(t *testing.T) {
	f := newFixture(t)
	a, err := f.backend.SignInAnonymously(context.Background())
	require.NoError(t, err)
	b, err := f.backend.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.UID, b.UID)
}

func TestBackend_SignInWithCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.backend.SignInWithCredential(ctx, f.credential(t, "raw-nonce-1"))
	require.NoError(t, err)
	assert.Equal(t, "kevin@example.com", p.Email)
	assert.Equal(t, domainauth.ProviderApple, p.ProviderID)
	assert.False(t, p.IsAnonymous)
	assert.Equal(t, federatedUID(domainauth.ProviderApple, "apple-sub-1"), p.UID)

	require.Len(t, f.events, 2)
	assert.Equal(t, p.UID, f.events[1].UID)
}

func TestBackend_SameSubjectSameUID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.backend.SignInWithCredential(ctx, f.credential(t, "n1"))
	require.NoError(t, err)
	require.NoError(t, f.backend.SignOut(ctx))
	b, err := f.backend.SignInWithCredential(ctx, f.credential(t, "n2"))
	require.NoError(t, err)

	assert.Equal(t, a.UID, b.UID)
}

func TestBackend_RejectsNonceMismatch(t *testing.T) {
	f := newFixture(t)
	cred := f.credential(t, "the-real-nonce")
	cred.RawNonce = "a-replayed-nonce"

	_, err := f.backend.SignInWithCredential(context.Background(), cred)
	require.ErrorIs(t, err, ErrNonceMismatch)
	assert.Len(t, f.events, 1, "no notification on rejected exchange")
}

func TestBackend_RejectsTokenWithoutNonce(t *testing.T) {
	f := newFixture(t)
	tok, err := f.provider.MintToken("", nil)
	require.NoError(t, err)

	_, err = f.backend.SignInWithCredential(context.Background(), domainauth.FederatedCredential{
		ProviderID: domainauth.ProviderApple,
		IDToken:    tok,
		RawNonce:   "anything",
	})
	require.ErrorIs(t, err, ErrNonceMismatch)
}

func TestBackend_RejectsForeignSignature(t *testing.T) {
	f := newFixture(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forger, err := devauth.NewProvider(devauth.Config{
		Subject:  "apple-sub-1",
		Issuer:   f.provider.Issuer(),
		ClientID: f.provider.ClientID(),
		Key:      otherKey,
	})
	require.NoError(t, err)
	tok, err := forger.MintToken(domainauth.DigestNonce("n"), nil)
	require.NoError(t, err)

	_, err = f.backend.SignInWithCredential(context.Background(), domainauth.FederatedCredential{
		ProviderID: domainauth.ProviderApple,
		IDToken:    tok,
		RawNonce:   "n",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify id_token")
}

func TestBackend_CredentialValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.backend.SignInWithCredential(ctx, domainauth.FederatedCredential{ProviderID: domainauth.ProviderApple, RawNonce: "n"})
	require.Error(t, err)

	_, err = f.backend.SignInWithCredential(ctx, domainauth.FederatedCredential{ProviderID: domainauth.ProviderApple, IDToken: "t"})
	require.Error(t, err)

	_, err = f.backend.SignInWithCredential(ctx, domainauth.FederatedCredential{ProviderID: "google.com", IDToken: "t", RawNonce: "n"})
	require.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestBackend_SignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.backend.SignInAnonymously(ctx)
	require.NoError(t, err)
	require.NoError(t, f.backend.SignOut(ctx))

	_, err = f.store.Load(ctx)
	require.ErrorIs(t, err, memstore.ErrNotFound)
	require.Len(t, f.events, 3)
	assert.Nil(t, f.events[2])
}

func TestBackend_SignOutWhenSignedOutIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.backend.SignOut(context.Background()))
	assert.Len(t, f.events, 1, "no notification when nothing changed")
}

func TestNew_RestoresPersistedSession(t *testing.T) {
	store := memstore.NewSessionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domainauth.Principal{UID: "persisted", IsAnonymous: true}))

	b, err := New(ctx, Config{Store: store})
	require.NoError(t, err)

	var first *domainauth.Principal
	b.AddStateListener(func(p *domainauth.Principal) { first = p })
	require.NotNil(t, first)
	assert.Equal(t, "persisted", first.UID)
}

func TestBackend_StoreFailureIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(domainauth.Principal{}, memstore.ErrNotFound)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	b, err := New(context.Background(), Config{Store: store})
	require.NoError(t, err)

	var events int
	b.AddStateListener(func(*domainauth.Principal) { events++ })

	_, err = b.SignInAnonymously(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, events, "state must not change when persistence fails")
}

func TestBackend_SignOutClearsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	persisted := domainauth.Principal{UID: "persisted"}
	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).Return(persisted, nil),
		store.EXPECT().Clear(gomock.Any()).Return(nil),
	)

	b, err := New(context.Background(), Config{Store: store})
	require.NoError(t, err)

	var last *domainauth.Principal
	b.AddStateListener(func(p *domainauth.Principal) { last = p })
	require.NotNil(t, last)

	require.NoError(t, b.SignOut(context.Background()))
	assert.Nil(t, last)
}
