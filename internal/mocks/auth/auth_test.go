package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
)

func TestFakeBackend_ListenerGetsCurrentStateOnRegister(t *testing.T) {
	b := NewFakeBackend()
	var got []*domainauth.Principal
	remove := b.AddStateListener(func(p *domainauth.Principal) { got = append(got, p) })

	require.Len(t, got, 1)
	assert.Nil(t, got[0])
	assert.Equal(t, 1, b.ListenerCount())

	remove()
	assert.Equal(t, 0, b.ListenerCount())
}

func TestFakeBackend_AnonymousThenSignOut(t *testing.T) {
	b := NewFakeBackend()
	ctx := context.Background()
	var got []*domainauth.Principal
	b.AddStateListener(func(p *domainauth.Principal) { got = append(got, p) })

	p, err := b.SignInAnonymously(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, p.UID)
	assert.Empty(t, p.Email)

	require.NoError(t, b.SignOut(ctx))
	require.NoError(t, b.SignOut(ctx))

	require.Len(t, got, 3, "second sign-out must not notify")
	assert.Equal(t, p.UID, got[1].UID)
	assert.Nil(t, got[2])
	assert.Nil(t, b.Current())
}

func TestFakeBackend_Errors(t *testing.T) {
	b := NewFakeBackend()
	b.ExchangeErr = errors.New("boom")
	ctx := context.Background()

	_, err := b.SignInWithCredential(ctx, domainauth.FederatedCredential{ProviderID: domainauth.ProviderApple})
	require.EqualError(t, err, "boom")
	assert.Len(t, b.Exchanges, 1)
	assert.Nil(t, b.Current())
}

func TestRecordingWindow(t *testing.T) {
	w := NewRecordingWindow()
	require.True(t, w.Live())

	require.NoError(t, w.SetRoot(domainauth.Screen{Kind: domainauth.ScreenLogin}, domainauth.TransitionNone))
	require.NoError(t, w.PresentAuthorization("https://idp/authorize"))

	last, ok := w.LastFrame()
	require.True(t, ok)
	assert.Equal(t, domainauth.ScreenLogin, last.Screen.Kind)
	assert.Equal(t, []string{"https://idp/authorize"}, w.Presented())

	w.Hide()
	assert.False(t, w.Live())
}

func TestStaticAnchor(t *testing.T) {
	_, err := StaticAnchor{}.PresentationAnchor()
	require.Error(t, err)

	w := NewRecordingWindow()
	got, err := StaticAnchor{Window: w}.PresentationAnchor()
	require.NoError(t, err)
	assert.Same(t, w, got)
}

func TestManualController(t *testing.T) {
	c := &ManualController{}
	d := &RecordingDelegate{}
	req := domainauth.AuthorizationRequest{State: "s1"}

	require.NoError(t, c.PerformRequest(context.Background(), req, d, nil))
	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "s1", last.Request.State)

	c.PerformErr = errors.New("unavailable")
	require.Error(t, c.PerformRequest(context.Background(), req, d, nil))
	assert.Len(t, c.Requests(), 1)
}
