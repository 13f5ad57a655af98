package oidc

// Package oidc drives an identity provider's authorization-code flow as a
// ports.AuthorizationController. The provider page is shown through the window and
// the redirect lands on the loopback HTTP server, which hands it to HandleCallback.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	"github.com/target/stalkcentral/internal/ports"
	"github.com/target/stalkcentral/internal/runloop"
	"golang.org/x/oauth2"
)

const defaultPendingTTL = 10 * time.Minute

// ErrUnknownState is returned by HandleCallback when the state parameter does not
// belong to a pending request (never issued, already answered, or expired).
var ErrUnknownState = errors.New("oidc: unknown or expired state")

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string // Optional for public clients using PKCE
	RedirectURL  string
	DiscoveryURL string
	// ResponseMode is sent as response_mode when set (e.g. "query" or "form_post").
	ResponseMode string
	// PendingTTL bounds how long an unanswered request is kept. Defaults to 10m.
	PendingTTL time.Duration
	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
	Dispatcher ports.Dispatcher
	Logger     *slog.Logger
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	JwksURI               string   `json:"jwks_uri"`
	SigningAlgs           []string `json:"id_token_signing_alg_values_supported,omitempty"`
}

type pendingRequest struct {
	delegate  ports.AuthorizationDelegate
	scopes    []domainauth.Scope
	verifier  string
	expiresAt time.Time
}

// Provider implements ports.AuthorizationController using OIDC/OAuth2.
type Provider struct {
	config       *oauth2.Config
	verifier     *gooidc.IDTokenVerifier
	httpClient   *http.Client
	responseMode string
	ttl          time.Duration
	dispatcher   ports.Dispatcher
	logger       *slog.Logger
	now          func() time.Time

	mu      sync.Mutex
	pending map[string]pendingRequest
}

var _ ports.AuthorizationController = (*Provider)(nil)

// NewProvider creates a new OIDC provider. Discovery is fetched once, bounded by ctx.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		httpClient:   httpClient,
		responseMode: config.ResponseMode,
		ttl:          config.PendingTTL,
		dispatcher:   config.Dispatcher,
		logger:       config.Logger,
		now:          time.Now,
		pending:      make(map[string]pendingRequest),
	}
	if p.ttl <= 0 {
		p.ttl = defaultPendingTTL
	}
	if p.dispatcher == nil {
		p.dispatcher = runloop.Immediate{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	discoverCtx := gooidc.ClientContext(ctx, httpClient)
	op, err := gooidc.NewProvider(discoverCtx, issuerFromDiscoveryURL(config.DiscoveryURL))
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})
	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

func issuerFromDiscoveryURL(u string) string {
	issuer := strings.TrimSuffix(u, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	return strings.TrimSuffix(issuer, ".well-known/openid-configuration")
}

// PerformRequest presents the provider's authorization page on the anchor's window.
// req.State is echoed back by the provider and keys the pending request; req.NonceDigest
// is sent as the nonce parameter so the issued id_token carries it.
func (p *Provider) PerformRequest(
	ctx context.Context,
	req domainauth.AuthorizationRequest,
	delegate ports.AuthorizationDelegate,
	anchor ports.PresentationAnchorProvider,
) error {
	if delegate == nil {
		return errors.New("delegate is required")
	}
	if req.State == "" {
		return errors.New("state is required")
	}
	if anchor == nil {
		return errors.New("presentation anchor is required")
	}
	window, err := anchor.PresentationAnchor()
	if err != nil {
		return fmt.Errorf("presentation anchor: %w", err)
	}

	verifier := oauth2.GenerateVerifier()
	authURL := p.authCodeURL(req, verifier)

	p.mu.Lock()
	p.pruneLocked()
	p.pending[req.State] = pendingRequest{
		delegate:  delegate,
		scopes:    append([]domainauth.Scope(nil), req.Scopes...),
		verifier:  verifier,
		expiresAt: p.now().Add(p.ttl),
	}
	p.mu.Unlock()

	if err := window.PresentAuthorization(authURL); err != nil {
		p.take(req.State)
		return fmt.Errorf("present authorization: %w", err)
	}
	p.logger.DebugContext(ctx, "oidc authorization presented", "scopes", len(req.Scopes))
	return nil
}

func (p *Provider) authCodeURL(req domainauth.AuthorizationRequest, verifier string) string {
	scopes := []string{gooidc.ScopeOpenID}
	for _, s := range req.Scopes {
		scopes = append(scopes, string(s))
	}
	cfg := *p.config
	cfg.Scopes = scopes

	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("response_type", "code"),
	}
	if req.NonceDigest != "" {
		opts = append(opts, oauth2.SetAuthURLParam("nonce", req.NonceDigest))
	}
	if p.responseMode != "" {
		opts = append(opts, oauth2.SetAuthURLParam("response_mode", p.responseMode))
	}
	return cfg.AuthCodeURL(req.State, opts...)
}

// Verifier checks identity tokens issued by the discovered provider to this client.
// The embedded backend reuses it so both sides trust the same keys.
func (p *Provider) Verifier() *gooidc.IDTokenVerifier { return p.verifier }

// Pending reports how many requests await a callback.
func (p *Provider) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	return len(p.pending)
}

// HandleCallback completes the request identified by params' state. The outcome is
// reported to that request's delegate on the dispatcher; a nil return means it was
// delivered, not that sign-in succeeded.
func (p *Provider) HandleCallback(ctx context.Context, params url.Values) error {
	state := params.Get("state")
	pr, ok := p.take(state)
	if !ok {
		return ErrUnknownState
	}

	if code := params.Get("error"); code != "" {
		p.fail(ctx, pr.delegate, state, &domainauth.AuthorizationError{
			Code:        classifyErrorParam(code),
			Description: firstNonEmpty(params.Get("error_description"), code),
		})
		return nil
	}

	code := params.Get("code")
	if code == "" {
		p.fail(ctx, pr.delegate, state, &domainauth.AuthorizationError{
			Code:        domainauth.AuthorizationInvalidResponse,
			Description: "authorization code is missing",
		})
		return nil
	}

	cred, authErr := p.exchange(ctx, code, pr)
	if authErr != nil {
		p.fail(ctx, pr.delegate, state, authErr)
		return nil
	}
	cred.State = state

	cbCtx := context.WithoutCancel(ctx)
	p.dispatcher.Post(func() {
		if err := pr.delegate.AuthorizationSucceeded(cbCtx, cred); err != nil {
			p.logger.DebugContext(cbCtx, "oidc credential rejected by delegate", "error", err)
		}
	})
	return nil
}

func (p *Provider) exchange(
	ctx context.Context,
	code string,
	pr pendingRequest,
) (domainauth.AuthorizationCredential, *domainauth.AuthorizationError) {
	cred := domainauth.AuthorizationCredential{AuthorizedScopes: pr.scopes}

	tok, err := p.config.Exchange(gooidc.ClientContext(ctx, p.httpClient), code, oauth2.VerifierOption(pr.verifier))
	if err != nil {
		return cred, &domainauth.AuthorizationError{
			Code:        domainauth.AuthorizationFailed,
			Description: fmt.Sprintf("exchange code for token: %v", err),
		}
	}

	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		// An empty identity token is reported to the delegate, which owns that error.
		p.logger.WarnContext(ctx, "oidc token response without id_token")
		return cred, nil
	}
	idTok, err := p.verifier.Verify(gooidc.ClientContext(ctx, p.httpClient), rawID)
	if err != nil {
		return cred, &domainauth.AuthorizationError{
			Code:        domainauth.AuthorizationInvalidResponse,
			Description: fmt.Sprintf("verify id_token: %v", err),
		}
	}
	var claims idTokenClaims
	if err := idTok.Claims(&claims); err != nil {
		return cred, &domainauth.AuthorizationError{
			Code:        domainauth.AuthorizationInvalidResponse,
			Description: fmt.Sprintf("parse id_token claims: %v", err),
		}
	}

	cred.IdentityToken = []byte(rawID)
	cred.User = claims.Sub
	cred.Email = claims.Email
	return cred, nil
}

func (p *Provider) fail(
	ctx context.Context,
	delegate ports.AuthorizationDelegate,
	state string,
	authErr *domainauth.AuthorizationError,
) {
	authErr.State = state
	cbCtx := context.WithoutCancel(ctx)
	p.dispatcher.Post(func() {
		if err := delegate.AuthorizationFailed(cbCtx, authErr); err != nil {
			p.logger.DebugContext(cbCtx, "oidc authorization failed", "error", err)
		}
	})
}

func (p *Provider) take(state string) (pendingRequest, bool) {
	if state == "" {
		return pendingRequest{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	pr, ok := p.pending[state]
	if !ok {
		return pendingRequest{}, false
	}
	delete(p.pending, state)
	if !p.now().Before(pr.expiresAt) {
		return pendingRequest{}, false
	}
	return pr, true
}

func (p *Provider) pruneLocked() {
	now := p.now()
	for state, pr := range p.pending {
		if !now.Before(pr.expiresAt) {
			delete(p.pending, state)
		}
	}
}

type idTokenClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

// classifyErrorParam maps an OAuth error response code to the platform's reasons.
func classifyErrorParam(code string) domainauth.AuthorizationErrorCode {
	switch code {
	case "access_denied", "user_cancelled_authorize", "user_cancelled_login":
		return domainauth.AuthorizationCanceled
	case "invalid_request", "invalid_grant":
		return domainauth.AuthorizationInvalidResponse
	case "unsupported_response_type", "unsupported_response_mode", "unauthorized_client", "invalid_scope":
		return domainauth.AuthorizationNotHandled
	case "server_error", "temporarily_unavailable":
		return domainauth.AuthorizationFailed
	default:
		return domainauth.AuthorizationUnknown
	}
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw := tok.Extra("id_token")
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
