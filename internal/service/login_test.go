package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/stalkcentral/internal/adapters/devauth"
	"github.com/target/stalkcentral/internal/adapters/localauth"
	"github.com/target/stalkcentral/internal/adapters/memstore"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	apperrors "github.com/target/stalkcentral/internal/errors"
	"github.com/target/stalkcentral/internal/mocks"
	authmocks "github.com/target/stalkcentral/internal/mocks/auth"
	"github.com/target/stalkcentral/internal/observability/metrics"
	"github.com/target/stalkcentral/internal/observability/statsd"
	"github.com/target/stalkcentral/internal/ports"
	"go.uber.org/mock/gomock"
)

type loginFixture struct {
	backend    *authmocks.FakeBackend
	window     *authmocks.RecordingWindow
	controller *authmocks.ManualController
	rec        *statsd.Recorder
	session    *SessionCoordinator
	login      *LoginOrchestrator
	results    []error
}

func newLoginFixture(t *testing.T, opts ...func(*LoginOrchestratorOptions)) *loginFixture {
	t.Helper()
	f := &loginFixture{
		backend:    authmocks.NewFakeBackend(),
		window:     authmocks.NewRecordingWindow(),
		controller: &authmocks.ManualController{},
		rec:        &statsd.Recorder{},
	}
	anchor := WindowAnchor{Window: f.window}

	session, err := NewSessionCoordinator(SessionCoordinatorOptions{Backend: f.backend, Anchor: anchor})
	require.NoError(t, err)
	session.Subscribe(nil)
	f.session = session

	o := LoginOrchestratorOptions{
		Controller: f.controller,
		Session:    session,
		Anchor:     anchor,
		Metrics:    f.rec,
		OnResult:   func(err error) { f.results = append(f.results, err) },
	}
	for _, fn := range opts {
		fn(&o)
	}
	f.login, err = NewLoginOrchestrator(o)
	require.NoError(t, err)
	return f
}

func (f *loginFixture) lastRequest(t *testing.T) authmocks.PendingRequest {
	t.Helper()
	req, ok := f.controller.Last()
	require.True(t, ok, "no authorization request performed")
	return req
}

// tokenFor returns a JWT-shaped identity token carrying digest as its nonce claim.
func tokenFor(t *testing.T, digest string) []byte {
	t.Helper()
	prov, err := devauth.NewProvider(devauth.Config{Subject: "apple-sub-1", Email: "kevin@example.com"})
	require.NoError(t, err)
	tok, err := prov.MintToken(digest, []domainauth.Scope{domainauth.ScopeEmail})
	require.NoError(t, err)
	return []byte(tok)
}

func TestNewLoginOrchestrator_Validation(t *testing.T) {
	_, err := NewLoginOrchestrator(LoginOrchestratorOptions{Session: &SessionCoordinator{}})
	require.Error(t, err)
	_, err = NewLoginOrchestrator(LoginOrchestratorOptions{Controller: &authmocks.ManualController{}})
	require.Error(t, err)
}

func TestLoginOrchestrator_BeginSignInIssuesNonceDigest(t *testing.T) {
	f := newLoginFixture(t, func(o *LoginOrchestratorOptions) {
		o.Rand = bytes.NewReader(make([]byte, 64))
	})

	require.NoError(t, f.login.BeginSignIn(context.Background()))

	req := f.lastRequest(t)
	rawNonce := strings.Repeat("0", domainauth.NonceLength)
	assert.Equal(t, domainauth.DigestNonce(rawNonce), req.Request.NonceDigest)
	assert.Len(t, req.Request.NonceDigest, 64)
	assert.Equal(t, []domainauth.Scope{domainauth.ScopeEmail}, req.Request.Scopes)
	assert.NotEmpty(t, req.Request.State)
	assert.Same(t, f.login, req.Delegate)
	assert.Equal(t, PhaseNonceIssued, f.login.Phase())
	assert.True(t, f.login.Busy())
}

func TestLoginOrchestrator_ExplicitScopes(t *testing.T) {
	f := newLoginFixture(t)

	require.NoError(t, f.login.BeginSignIn(context.Background(), domainauth.ScopeEmail, domainauth.ScopeFullName))
	assert.Equal(t, []domainauth.Scope{domainauth.ScopeEmail, domainauth.ScopeFullName}, f.lastRequest(t).Request.Scopes)
}

func TestLoginOrchestrator_SuccessExchangesRawNonce(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	require.NoError(t, f.login.BeginSignIn(ctx))
	req := f.lastRequest(t)

	err := f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{
		IdentityToken: tokenFor(t, req.Request.NonceDigest),
		State:         req.Request.State,
	})
	require.NoError(t, err)

	require.Len(t, f.backend.Exchanges, 1)
	cred := f.backend.Exchanges[0]
	assert.Equal(t, domainauth.ProviderApple, cred.ProviderID)
	assert.Equal(t, req.Request.NonceDigest, domainauth.DigestNonce(cred.RawNonce), "digest sent must be sha256 of the raw nonce exchanged")
	assert.Len(t, cred.RawNonce, domainauth.NonceLength)

	assert.Equal(t, PhaseIdle, f.login.Phase())
	assert.Equal(t, OutcomeSucceeded, f.login.LastOutcome())
	assert.False(t, f.login.Busy())
	require.Equal(t, []error{nil}, f.results)
	assert.Equal(t, int64(1), f.rec.Total(metrics.SignInAttempt))
}

func TestLoginOrchestrator_NonceIsConsumedOnce(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	require.NoError(t, f.login.BeginSignIn(ctx))
	req := f.lastRequest(t)
	cred := domainauth.AuthorizationCredential{
		IdentityToken: tokenFor(t, req.Request.NonceDigest),
		State:         req.Request.State,
	}

	require.NoError(t, f.login.AuthorizationSucceeded(ctx, cred))
	err := f.login.AuthorizationSucceeded(ctx, cred)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))
	assert.Len(t, f.backend.Exchanges, 1)
}

func TestLoginOrchestrator_CallbackWithoutAttemptIsInvalidState(t *testing.T) {
	f := newLoginFixture(t)

	var err error
	require.NotPanics(t, func() {
		err = f.login.AuthorizationSucceeded(context.Background(), domainauth.AuthorizationCredential{IdentityToken: []byte("tok")})
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.GetCode(err))
	assert.Empty(t, f.backend.Exchanges)
}

func TestLoginOrchestrator_SecondBeginInvalidatesFirst(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	require.NoError(t, f.login.BeginSignIn(ctx))
	first := f.lastRequest(t)
	require.NoError(t, f.login.BeginSignIn(ctx))
	second := f.lastRequest(t)
	require.NotEqual(t, first.Request.NonceDigest, second.Request.NonceDigest)

	err := f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{
		IdentityToken: tokenFor(t, first.Request.NonceDigest),
		State:         first.Request.State,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsStaleAttempt(err))
	assert.Empty(t, f.backend.Exchanges)
	assert.Equal(t, PhaseNonceIssued, f.login.Phase(), "current attempt survives a stale callback")

	require.NoError(t, f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{
		IdentityToken: tokenFor(t, second.Request.NonceDigest),
		State:         second.Request.State,
	}))
	require.Len(t, f.backend.Exchanges, 1)
	assert.Equal(t, second.Request.NonceDigest, domainauth.DigestNonce(f.backend.Exchanges[0].RawNonce))
}

func TestLoginOrchestrator_StaleNonceClaimWithoutState(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	require.NoError(t, f.login.BeginSignIn(ctx))
	first := f.lastRequest(t)
	require.NoError(t, f.login.BeginSignIn(ctx))

	err := f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{
		IdentityToken: tokenFor(t, first.Request.NonceDigest),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsStaleAttempt(err))
	assert.True(t, f.login.Busy())
}

func TestLoginOrchestrator_FailureForAbandonedAttemptIsStale(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	require.NoError(t, f.login.BeginSignIn(ctx))
	first := f.lastRequest(t)
	require.NoError(t, f.login.BeginSignIn(ctx))
	second := f.lastRequest(t)

	err := f.login.AuthorizationFailed(ctx, &domainauth.AuthorizationError{
		Code:  domainauth.AuthorizationCanceled,
		State: first.Request.State,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsStaleAttempt(err))
	assert.Equal(t, PhaseNonceIssued, f.login.Phase())
	assert.Equal(t, OutcomeNone, f.login.LastOutcome())
	assert.Empty(t, f.results)

	require.NoError(t, f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{
		IdentityToken: tokenFor(t, second.Request.NonceDigest),
		State:         second.Request.State,
	}))
	require.Len(t, f.backend.Exchanges, 1)
	assert.Equal(t, OutcomeSucceeded, f.login.LastOutcome())
}

func TestLoginOrchestrator_FailureForCurrentAttemptEndsIt(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	require.NoError(t, f.login.BeginSignIn(ctx))
	req := f.lastRequest(t)

	err := f.login.AuthorizationFailed(ctx, &domainauth.AuthorizationError{
		Code:  domainauth.AuthorizationCanceled,
		State: req.Request.State,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsUserCancelled(err))
	assert.False(t, f.login.Busy())
	assert.Equal(t, OutcomeCancelled, f.login.LastOutcome())

	err = f.login.AuthorizationFailed(ctx, &domainauth.AuthorizationError{
		Code:  domainauth.AuthorizationCanceled,
		State: req.Request.State,
	})
	assert.True(t, apperrors.IsStaleAttempt(err), "a repeated failure has no attempt left to end")
	require.Len(t, f.results, 1)
}

func TestLoginOrchestrator_UnansweredAttemptExpires(t *testing.T) {
	f := newLoginFixture(t, func(o *LoginOrchestratorOptions) {
		o.AttemptTimeout = time.Minute
	})
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.login.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, f.login.BeginSignIn(ctx))
	req := f.lastRequest(t)

	clock = clock.Add(59 * time.Second)
	assert.True(t, f.login.Busy())

	clock = clock.Add(time.Second)
	assert.False(t, f.login.Busy())
	assert.Equal(t, PhaseIdle, f.login.Phase())
	assert.Equal(t, OutcomeFailed, f.login.LastOutcome())
	assert.Equal(t, int64(1), f.rec.Total(metrics.SignInAttempt))

	err := f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{
		IdentityToken: tokenFor(t, req.Request.NonceDigest),
		State:         req.Request.State,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))
	assert.Empty(t, f.backend.Exchanges)
}

func TestLoginOrchestrator_OpaqueTokenSkipsNonceCheck(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	require.NoError(t, f.login.BeginSignIn(ctx))

	require.NoError(t, f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{
		IdentityToken: []byte("opaque-token"),
	}))
	require.Len(t, f.backend.Exchanges, 1)
	assert.Equal(t, "opaque-token", f.backend.Exchanges[0].IDToken)
}

func TestLoginOrchestrator_TokenErrors(t *testing.T) {
	tests := []struct {
		name  string
		token []byte
		code  apperrors.ErrorCode
	}{
		{name: "missing", token: nil, code: apperrors.ErrCodeTokenMissing},
		{name: "undecodable", token: []byte{0xff, 0xfe, 0xfd}, code: apperrors.ErrCodeTokenUndecodable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoginFixture(t)
			ctx := context.Background()
			require.NoError(t, f.login.BeginSignIn(ctx))

			err := f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{IdentityToken: tt.token})
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetCode(err))
			assert.Empty(t, f.backend.Exchanges)
			assert.False(t, f.login.Busy())
			assert.Equal(t, OutcomeFailed, f.login.LastOutcome())
			require.Len(t, f.results, 1)
		})
	}
}

func TestLoginOrchestrator_BackendRejection(t *testing.T) {
	f := newLoginFixture(t)
	f.backend.ExchangeErr = errors.New("INVALID_IDP_RESPONSE")
	ctx := context.Background()
	require.NoError(t, f.login.BeginSignIn(ctx))
	req := f.lastRequest(t)

	err := f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{
		IdentityToken: tokenFor(t, req.Request.NonceDigest),
		State:         req.Request.State,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeBackendExchange, apperrors.GetCode(err))
	assert.Equal(t, OutcomeFailed, f.login.LastOutcome())
	assert.False(t, f.login.Busy())
	assert.False(t, f.session.State().IsLoggedIn)
	require.Len(t, f.results, 1)
	require.Error(t, f.results[0])

	samples := f.rec.Named(metrics.SignInAttempt)
	require.Len(t, samples, 1)
	assert.Equal(t, "backend_exchange", samples[0].Tags["error_class"])
}

func TestLoginOrchestrator_AuthorizationFailedClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    apperrors.ErrorCode
		outcome Outcome
	}{
		{"cancelled", &domainauth.AuthorizationError{Code: domainauth.AuthorizationCanceled}, apperrors.ErrCodeUserCancelled, OutcomeCancelled},
		{"unknown", &domainauth.AuthorizationError{Code: domainauth.AuthorizationUnknown}, apperrors.ErrCodeProviderUnknown, OutcomeFailed},
		{"invalid response", &domainauth.AuthorizationError{Code: domainauth.AuthorizationInvalidResponse}, apperrors.ErrCodeInvalidResponse, OutcomeFailed},
		{"not handled", &domainauth.AuthorizationError{Code: domainauth.AuthorizationNotHandled}, apperrors.ErrCodeNotHandled, OutcomeFailed},
		{"failed", &domainauth.AuthorizationError{Code: domainauth.AuthorizationFailed}, apperrors.ErrCodeProviderFailed, OutcomeFailed},
		{"unrecognised code", &domainauth.AuthorizationError{Code: 4242}, apperrors.ErrCodeProviderUnknown, OutcomeFailed},
		{"foreign error", errors.New("socket closed"), apperrors.ErrCodeProviderUnknown, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoginFixture(t)
			ctx := context.Background()
			require.NoError(t, f.login.BeginSignIn(ctx))

			err := f.login.AuthorizationFailed(ctx, tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetCode(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.outcome, f.login.LastOutcome())
			assert.False(t, f.login.Busy())
			assert.Empty(t, f.backend.Exchanges)
		})
	}
}

func TestLoginOrchestrator_FailureClearsNonce(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	require.NoError(t, f.login.BeginSignIn(ctx))
	req := f.lastRequest(t)

	_ = f.login.AuthorizationFailed(ctx, &domainauth.AuthorizationError{Code: domainauth.AuthorizationCanceled})

	err := f.login.AuthorizationSucceeded(ctx, domainauth.AuthorizationCredential{
		IdentityToken: tokenFor(t, req.Request.NonceDigest),
		State:         req.Request.State,
	})
	assert.True(t, apperrors.IsInvalidState(err))
	samples := f.rec.Named(metrics.SignInAttempt)
	require.Len(t, samples, 1)
	assert.Equal(t, metrics.ResultCancelled, samples[0].Tags["result"])
}

func TestLoginOrchestrator_PerformRequestError(t *testing.T) {
	f := newLoginFixture(t)
	f.controller.PerformErr = errors.New("no provider available")

	err := f.login.BeginSignIn(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotHandled, apperrors.GetCode(err))
	assert.Equal(t, PhaseIdle, f.login.Phase())
	assert.Equal(t, OutcomeFailed, f.login.LastOutcome())
}

func TestLoginOrchestrator_PresentationAnchor(t *testing.T) {
	f := newLoginFixture(t)
	w, err := f.login.PresentationAnchor()
	require.NoError(t, err)
	assert.Same(t, f.window, w)

	f.window.Hide()
	_, err = f.login.PresentationAnchor()
	require.Error(t, err)

	bare, err := NewLoginOrchestrator(LoginOrchestratorOptions{Controller: f.controller, Session: f.session})
	require.NoError(t, err)
	_, err = bare.PresentationAnchor()
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestLoginOrchestrator_RequestCarriesAnchor(t *testing.T) {
	ctrl := gomock.NewController(t)
	controller := mocks.NewMockAuthorizationController(ctrl)
	session := authmocks.NewFakeBackend()
	coord, err := NewSessionCoordinator(SessionCoordinatorOptions{Backend: session})
	require.NoError(t, err)
	window := authmocks.NewRecordingWindow()

	login, err := NewLoginOrchestrator(LoginOrchestratorOptions{
		Controller: controller,
		Session:    coord,
		Anchor:     WindowAnchor{Window: window},
	})
	require.NoError(t, err)

	controller.EXPECT().
		PerformRequest(gomock.Any(), gomock.Any(), login, login).
		DoAndReturn(func(_ context.Context, req domainauth.AuthorizationRequest, _ ports.AuthorizationDelegate, anchor ports.PresentationAnchorProvider) error {
			w, err := anchor.PresentationAnchor()
			require.NoError(t, err)
			assert.Same(t, window, w)
			assert.Len(t, req.NonceDigest, 64)
			return nil
		})

	require.NoError(t, login.BeginSignIn(context.Background()))
}

// Federated sign-in end to end: dev provider, embedded backend, terminal-less window.
func TestFederatedSignInScenario(t *testing.T) {
	ctx := context.Background()
	prov, err := devauth.NewProvider(devauth.Config{Subject: "apple-sub-1", Email: "kevin@example.com"})
	require.NoError(t, err)
	backend, err := localauth.New(ctx, localauth.Config{
		Verifiers: map[string]localauth.TokenVerifier{
			domainauth.ProviderApple: localauth.NewStaticVerifier(prov.Issuer(), prov.ClientID(), prov.PublicKey()),
		},
		Store: memstore.NewSessionStore(),
	})
	require.NoError(t, err)

	window := authmocks.NewRecordingWindow()
	anchor := WindowAnchor{Window: window}
	session, err := NewSessionCoordinator(SessionCoordinatorOptions{Backend: backend, Anchor: anchor})
	require.NoError(t, err)
	session.Subscribe(nil)

	var result error = errors.New("no result")
	login, err := NewLoginOrchestrator(LoginOrchestratorOptions{
		Controller: prov,
		Session:    session,
		Anchor:     anchor,
		OnResult:   func(err error) { result = err },
	})
	require.NoError(t, err)

	require.NoError(t, login.BeginSignIn(ctx))

	require.NoError(t, result)
	state := session.State()
	require.True(t, state.IsLoggedIn)
	assert.Equal(t, "kevin@example.com", state.User.Email)

	frames := window.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, domainauth.ScreenLogin, frames[0].Screen.Kind)
	assert.Equal(t, domainauth.TransitionNone, frames[0].Transition)
	assert.Equal(t, domainauth.ScreenHome, frames[1].Screen.Kind)
	assert.Equal(t, domainauth.TransitionCrossDissolve, frames[1].Transition)

	require.NoError(t, session.Logout(ctx))
	assert.False(t, session.State().IsLoggedIn)
	last, _ := window.LastFrame()
	assert.Equal(t, domainauth.ScreenLogin, last.Screen.Kind)
}

func TestPhaseAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "nonce_issued", PhaseNonceIssued.String())
	assert.Equal(t, "exchange_submitted", PhaseExchangeSubmitted.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
	assert.Equal(t, "none", OutcomeNone.String())
}
