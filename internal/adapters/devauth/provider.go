package devauth

// Package devauth provides a simple, config-driven AuthorizationController for local development.

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	"github.com/target/stalkcentral/internal/ports"
	"github.com/target/stalkcentral/internal/runloop"
)

const (
	defaultIssuer   = "https://dev.stalkcentral.local"
	defaultClientID = "stalkcentral-dev"
	defaultTokenTTL = 10 * time.Minute
)

// Config controls the dev provider behavior.
// Subject is required; everything else has a default.
type Config struct {
	Issuer   string
	ClientID string
	Subject  string
	Email    string
	TokenTTL time.Duration
	// FailWith, when set, makes every request fail with this code instead of succeeding.
	FailWith domainauth.AuthorizationErrorCode
	// Key signs identity tokens. A fresh 2048-bit key is generated when nil.
	Key        *rsa.PrivateKey
	Dispatcher ports.Dispatcher
	Logger     *slog.Logger
}

// Provider implements ports.AuthorizationController without a browser round-trip.
// It mints an RS256 identity token carrying the request's nonce digest and reports it to
// the delegate through the dispatcher, as a platform prompt would after approval.
type Provider struct {
	issuer     string
	clientID   string
	subject    string
	email      string
	ttl        time.Duration
	failWith   domainauth.AuthorizationErrorCode
	key        *rsa.PrivateKey
	keyID      string
	dispatcher ports.Dispatcher
	logger     *slog.Logger
}

var _ ports.AuthorizationController = (*Provider)(nil)

// NewProvider constructs a dev provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	key := cfg.Key
	if key == nil {
		var err error
		if key, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			return nil, fmt.Errorf("dev auth: generate signing key: %w", err)
		}
	}
	p := &Provider{
		issuer:     cfg.Issuer,
		clientID:   cfg.ClientID,
		subject:    cfg.Subject,
		email:      cfg.Email,
		ttl:        cfg.TokenTTL,
		failWith:   cfg.FailWith,
		key:        key,
		keyID:      uuid.NewString(),
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
	}
	if p.issuer == "" {
		p.issuer = defaultIssuer
	}
	if p.clientID == "" {
		p.clientID = defaultClientID
	}
	if p.ttl <= 0 {
		p.ttl = defaultTokenTTL
	}
	if p.dispatcher == nil {
		p.dispatcher = runloop.Immediate{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// Issuer is the iss claim of minted tokens.
func (p *Provider) Issuer() string { return p.issuer }

// ClientID is the aud claim of minted tokens.
func (p *Provider) ClientID() string { return p.clientID }

// PublicKey verifies minted tokens.
func (p *Provider) PublicKey() crypto.PublicKey { return &p.key.PublicKey }

// PerformRequest reports an immediate approval (or the configured failure) to delegate.
func (p *Provider) PerformRequest(
	ctx context.Context,
	req domainauth.AuthorizationRequest,
	delegate ports.AuthorizationDelegate,
	anchor ports.PresentationAnchorProvider,
) error {
	if delegate == nil {
		return errors.New("dev auth: delegate is required")
	}
	if anchor != nil {
		if _, err := anchor.PresentationAnchor(); err != nil {
			return fmt.Errorf("presentation anchor: %w", err)
		}
	}

	cbCtx := context.WithoutCancel(ctx)

	if p.failWith != 0 {
		authErr := &domainauth.AuthorizationError{
			Code:        p.failWith,
			Description: "configured dev failure",
			State:       req.State,
		}
		p.dispatcher.Post(func() {
			if err := delegate.AuthorizationFailed(cbCtx, authErr); err != nil {
				p.logger.DebugContext(cbCtx, "dev auth: delegate reported failure", "error", err)
			}
		})
		return nil
	}

	token, err := p.MintToken(req.NonceDigest, req.Scopes)
	if err != nil {
		return err
	}
	cred := domainauth.AuthorizationCredential{
		IdentityToken:    []byte(token),
		User:             p.subject,
		AuthorizedScopes: slices.Clone(req.Scopes),
		State:            req.State,
	}
	if slices.Contains(req.Scopes, domainauth.ScopeEmail) {
		cred.Email = p.email
	}
	p.dispatcher.Post(func() {
		if err := delegate.AuthorizationSucceeded(cbCtx, cred); err != nil {
			p.logger.WarnContext(cbCtx, "dev auth: credential rejected", "error", err)
		}
	})
	return nil
}

// MintToken signs an identity token bound to nonceDigest.
// The email claim is included only when ScopeEmail was requested.
func (p *Provider) MintToken(nonceDigest string, scopes []domainauth.Scope) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":             p.issuer,
		"aud":             p.clientID,
		"sub":             p.subject,
		"iat":             now.Unix(),
		"exp":             now.Add(p.ttl).Unix(),
		"nonce_supported": true,
	}
	if nonceDigest != "" {
		claims["nonce"] = nonceDigest
	}
	if p.email != "" && slices.Contains(scopes, domainauth.ScopeEmail) {
		claims["email"] = p.email
		claims["email_verified"] = true
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = p.keyID
	signed, err := tok.SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("dev auth: sign token: %w", err)
	}
	return signed, nil
}
