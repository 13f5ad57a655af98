package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	apperrors "github.com/target/stalkcentral/internal/errors"
	"github.com/target/stalkcentral/internal/observability/metrics"
	"github.com/target/stalkcentral/internal/observability/statsd"
	"github.com/target/stalkcentral/internal/ports"
)

const defaultAttemptTimeout = 10 * time.Minute

// Phase is the state of the current sign-in attempt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseNonceIssued
	PhaseCredentialReceived
	PhaseExchangeSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseNonceIssued:
		return "nonce_issued"
	case PhaseCredentialReceived:
		return "credential_received"
	case PhaseExchangeSubmitted:
		return "exchange_submitted"
	default:
		return fmt.Sprintf("phase_%d", int(p))
	}
}

// Outcome is how the most recent sign-in attempt ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSucceeded
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome_%d", int(o))
	}
}

// CredentialExchanger signs in with a federated credential. *SessionCoordinator implements it.
type CredentialExchanger interface {
	SignInWithCredential(ctx context.Context, cred domainauth.FederatedCredential) (domainauth.Principal, error)
}

// LoginOrchestratorOptions groups dependencies for LoginOrchestrator.
type LoginOrchestratorOptions struct {
	Controller ports.AuthorizationController
	Session    CredentialExchanger
	Anchor     ports.PresentationAnchorProvider
	// Scopes requested when BeginSignIn is called without any. Defaults to email.
	Scopes []domainauth.Scope
	// ProviderID names the provider in the federated credential. Defaults to apple.com.
	ProviderID string
	// OnResult receives the outcome of every attempt: nil on success.
	OnResult func(error)
	// AttemptTimeout ends an attempt that got no callback. Defaults to 10m; match the
	// controller's own request lifetime.
	AttemptTimeout time.Duration
	Metrics        statsd.Sink
	Logger         *slog.Logger
	// Rand is the nonce entropy source. Defaults to crypto/rand.
	Rand io.Reader
}

type attempt struct {
	state     string
	rawNonce  string
	digest    string
	scopes    []domainauth.Scope
	startedAt time.Time
}

// LoginOrchestrator runs federated sign-in attempts: it issues the nonce, drives the
// authorization controller and hands the resulting credential to the session.
// It implements ports.AuthorizationDelegate and ports.PresentationAnchorProvider.
//
// Only the most recent attempt is live. Starting a new one abandons the previous
// attempt, and a late callback for it is rejected with a stale-attempt error.
type LoginOrchestrator struct {
	controller ports.AuthorizationController
	session    CredentialExchanger
	anchor     ports.PresentationAnchorProvider
	scopes     []domainauth.Scope
	providerID string
	onResult   func(error)
	timeout    time.Duration
	metrics    statsd.Sink
	logger     *slog.Logger
	rand       io.Reader
	now        func() time.Time

	mu        sync.Mutex
	phase     Phase
	outcome   Outcome
	current   *attempt
	submitted string
}

var (
	_ ports.AuthorizationDelegate      = (*LoginOrchestrator)(nil)
	_ ports.PresentationAnchorProvider = (*LoginOrchestrator)(nil)
)

// NewLoginOrchestrator constructs a LoginOrchestrator.
func NewLoginOrchestrator(opts LoginOrchestratorOptions) (*LoginOrchestrator, error) {
	if opts.Controller == nil {
		return nil, errors.New("login orchestrator: authorization controller is required")
	}
	if opts.Session == nil {
		return nil, errors.New("login orchestrator: session is required")
	}
	o := &LoginOrchestrator{
		controller: opts.Controller,
		session:    opts.Session,
		anchor:     opts.Anchor,
		scopes:     slices.Clone(opts.Scopes),
		providerID: opts.ProviderID,
		onResult:   opts.OnResult,
		timeout:    opts.AttemptTimeout,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		rand:       opts.Rand,
		now:        time.Now,
	}
	if len(o.scopes) == 0 {
		o.scopes = []domainauth.Scope{domainauth.ScopeEmail}
	}
	if o.providerID == "" {
		o.providerID = domainauth.ProviderApple
	}
	if o.timeout <= 0 {
		o.timeout = defaultAttemptTimeout
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "login")
	if o.rand == nil {
		o.rand = rand.Reader
	}
	return o, nil
}

// BeginSignIn starts a new attempt: a fresh nonce replaces any in-flight one and the
// authorization controller is asked to prompt for scopes (the configured default
// when none are given).
func (o *LoginOrchestrator) BeginSignIn(ctx context.Context, scopes ...domainauth.Scope) error {
	if len(scopes) == 0 {
		scopes = o.scopes
	}
	raw, err := domainauth.GenerateNonce(o.rand, domainauth.NonceLength)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not start sign in.")
	}
	a := &attempt{
		state:     uuid.NewString(),
		rawNonce:  raw,
		digest:    domainauth.DigestNonce(raw),
		scopes:    slices.Clone(scopes),
		startedAt: o.now(),
	}

	o.mu.Lock()
	if o.current != nil {
		o.logger.InfoContext(ctx, "superseding in-flight sign-in attempt", "phase", o.phase.String())
	}
	o.current = a
	o.phase = PhaseNonceIssued
	o.mu.Unlock()

	req := domainauth.AuthorizationRequest{
		Scopes:      slices.Clone(a.scopes),
		NonceDigest: a.digest,
		State:       a.state,
	}
	if err := o.controller.PerformRequest(ctx, req, o, o); err != nil {
		o.mu.Lock()
		if o.current == a {
			o.current = nil
			o.phase = PhaseIdle
			o.outcome = OutcomeFailed
		}
		o.mu.Unlock()
		o.logger.WarnContext(ctx, "authorization request not performed", "error", err)
		metrics.EmitSignIn(o.metrics, metrics.SignInMetric{Provider: o.providerID, Result: metrics.ResultError, Err: err})
		return apperrors.Wrap(err, apperrors.ErrCodeNotHandled, "Sign in could not be presented.")
	}
	o.logger.DebugContext(ctx, "sign-in attempt started", "scopes", len(a.scopes))
	return nil
}

// AuthorizationSucceeded validates the credential against the in-flight attempt and
// exchanges it with the session. The in-flight nonce is consumed only when the
// credential passes the local checks.
func (o *LoginOrchestrator) AuthorizationSucceeded(ctx context.Context, cred domainauth.AuthorizationCredential) error {
	o.mu.Lock()
	o.expireLocked()
	a := o.current
	if a == nil {
		o.mu.Unlock()
		err := apperrors.New(apperrors.ErrCodeInvalidState, "A sign-in callback arrived but no sign-in was started.")
		o.logger.ErrorContext(ctx, "credential without sign-in attempt")
		return err
	}
	if cred.State != "" && cred.State != a.state {
		o.mu.Unlock()
		o.logger.WarnContext(ctx, "credential for abandoned attempt rejected")
		return apperrors.New(apperrors.ErrCodeStaleAttempt, "This sign-in was replaced by a newer one.")
	}

	o.phase = PhaseCredentialReceived
	token, checkErr := checkIdentityToken(cred.IdentityToken, a.digest)
	if checkErr != nil {
		if apperrors.IsStaleAttempt(checkErr) {
			o.phase = PhaseNonceIssued
			o.mu.Unlock()
			o.logger.WarnContext(ctx, "identity token bound to another nonce rejected")
			return checkErr
		}
		o.current = nil
		o.phase = PhaseIdle
		o.outcome = OutcomeFailed
		o.mu.Unlock()
		o.logger.ErrorContext(ctx, "unusable identity token", "error", checkErr)
		return o.finish(ctx, a, checkErr)
	}

	o.current = nil
	o.phase = PhaseExchangeSubmitted
	o.submitted = a.state
	o.mu.Unlock()

	_, err := o.session.SignInWithCredential(ctx, domainauth.FederatedCredential{
		ProviderID: o.providerID,
		IDToken:    token,
		RawNonce:   a.rawNonce,
	})
	if err != nil && apperrors.GetCode(err) != apperrors.ErrCodeBackendExchange {
		err = apperrors.Wrap(err, apperrors.ErrCodeBackendExchange, "Sign in was rejected.")
	}

	o.mu.Lock()
	if o.submitted == a.state {
		o.submitted = ""
		if o.current == nil {
			o.phase = PhaseIdle
		}
	}
	if err != nil {
		o.outcome = OutcomeFailed
	} else {
		o.outcome = OutcomeSucceeded
	}
	o.mu.Unlock()

	return o.finish(ctx, a, err)
}

// AuthorizationFailed classifies the controller's error, ends the in-flight attempt
// and returns the classified error. A failure naming another attempt's state leaves
// the in-flight attempt alone and is rejected as stale.
func (o *LoginOrchestrator) AuthorizationFailed(ctx context.Context, err error) error {
	classified := classifyAuthorizationError(err)

	o.mu.Lock()
	o.expireLocked()
	if state := failedState(err); state != "" && (o.current == nil || o.current.state != state) {
		o.mu.Unlock()
		o.logger.WarnContext(ctx, "failure for abandoned attempt ignored", "error", err)
		return apperrors.Wrap(err, apperrors.ErrCodeStaleAttempt, "This sign-in was replaced by a newer one.")
	}
	a := o.current
	o.current = nil
	if o.submitted == "" {
		o.phase = PhaseIdle
	}
	if apperrors.IsUserCancelled(classified) {
		o.outcome = OutcomeCancelled
	} else {
		o.outcome = OutcomeFailed
	}
	o.mu.Unlock()

	switch apperrors.GetCode(classified) {
	case apperrors.ErrCodeUserCancelled:
		o.logger.InfoContext(ctx, "sign-in cancelled by user")
	case apperrors.ErrCodeProviderUnknown:
		o.logger.WarnContext(ctx, "unknown error during sign-in", "error", err)
	case apperrors.ErrCodeInvalidResponse:
		o.logger.WarnContext(ctx, "invalid response during sign-in", "error", err)
	case apperrors.ErrCodeNotHandled:
		o.logger.WarnContext(ctx, "sign-in request not handled", "error", err)
	default:
		o.logger.WarnContext(ctx, "sign-in failed", "error", err)
	}

	return o.finish(ctx, a, classified)
}

func (o *LoginOrchestrator) finish(ctx context.Context, a *attempt, err error) error {
	m := metrics.SignInMetric{Provider: o.providerID, Result: metrics.ResultSuccess, Err: err}
	switch {
	case err == nil:
	case apperrors.IsUserCancelled(err):
		m.Result = metrics.ResultCancelled
	default:
		m.Result = metrics.ResultError
	}
	if a != nil {
		m.Duration = o.now().Sub(a.startedAt)
	}
	metrics.EmitSignIn(o.metrics, m)

	if o.onResult != nil {
		o.onResult(err)
	}
	if err == nil {
		o.logger.InfoContext(ctx, "sign-in completed")
	}
	return err
}

// PresentationAnchor returns the live window the provider prompt is anchored to.
func (o *LoginOrchestrator) PresentationAnchor() (ports.Window, error) {
	if o.anchor == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidState, "no presentation surface configured")
	}
	return o.anchor.PresentationAnchor()
}

// Phase reports the state of the current attempt.
func (o *LoginOrchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expireLocked()
	return o.phase
}

// LastOutcome reports how the most recent attempt ended.
func (o *LoginOrchestrator) LastOutcome() Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expireLocked()
	return o.outcome
}

// expireLocked drops an attempt still waiting for its callback after the timeout.
// o.mu must be held.
func (o *LoginOrchestrator) expireLocked() {
	a := o.current
	if a == nil || o.phase != PhaseNonceIssued || o.now().Sub(a.startedAt) < o.timeout {
		return
	}
	o.current = nil
	if o.submitted == "" {
		o.phase = PhaseIdle
	}
	o.outcome = OutcomeFailed
	o.logger.Warn("sign-in attempt expired without a callback", "timeout", o.timeout.String())
	metrics.EmitSignIn(o.metrics, metrics.SignInMetric{
		Provider: o.providerID,
		Result:   metrics.ResultTimeout,
		Duration: o.now().Sub(a.startedAt),
	})
}

// Busy reports whether an attempt is in flight; the login screen disables input meanwhile.
func (o *LoginOrchestrator) Busy() bool {
	return o.Phase() != PhaseIdle
}

// checkIdentityToken returns the token as text. A token that parses as a JWT must
// carry digest in its nonce claim; the signature is left to the backend.
func checkIdentityToken(raw []byte, digest string) (string, error) {
	if len(raw) == 0 {
		return "", apperrors.New(apperrors.ErrCodeTokenMissing, "The identity provider returned no identity token.")
	}
	if !utf8.Valid(raw) {
		return "", apperrors.New(apperrors.ErrCodeTokenUndecodable, "The identity token could not be read.")
	}
	token := string(raw)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return token, nil
	}
	if nonce, ok := claims["nonce"].(string); ok && nonce != digest {
		return "", apperrors.New(apperrors.ErrCodeStaleAttempt, "The identity token belongs to another sign-in.")
	}
	return token, nil
}

func failedState(err error) string {
	var authErr *domainauth.AuthorizationError
	if errors.As(err, &authErr) {
		return authErr.State
	}
	return ""
}

// classifyAuthorizationError maps an authorization controller failure onto an AppError.
func classifyAuthorizationError(err error) error {
	var authErr *domainauth.AuthorizationError
	if !errors.As(err, &authErr) {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderUnknown, "Sign in failed.")
	}
	switch authErr.Code {
	case domainauth.AuthorizationCanceled:
		return apperrors.Wrap(err, apperrors.ErrCodeUserCancelled, "Sign in was cancelled.")
	case domainauth.AuthorizationInvalidResponse:
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidResponse, "The identity provider sent an invalid response.")
	case domainauth.AuthorizationNotHandled:
		return apperrors.Wrap(err, apperrors.ErrCodeNotHandled, "Sign in was not handled.")
	case domainauth.AuthorizationFailed:
		return apperrors.Wrap(err, apperrors.ErrCodeProviderFailed, "Sign in failed.")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeProviderUnknown, "Sign in failed.")
	}
}
