// Package localauth implements an embedded auth backend: it verifies federated identity
// tokens itself, assigns uids, and persists the current principal through a SessionStore.
package localauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/target/stalkcentral/internal/adapters/authstate"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	"github.com/target/stalkcentral/internal/ports"
)

// ProviderAnonymous marks principals created by SignInAnonymously.
const ProviderAnonymous = "anonymous"

// uidNamespace scopes deterministic uids derived from provider subjects.
var uidNamespace = uuid.MustParse("6f1c3c4e-8d7a-4b8e-9a51-2f9a4d8e7c10")

var (
	// ErrNonceMismatch is returned when sha256(raw nonce) differs from the token's nonce claim.
	ErrNonceMismatch = errors.New("nonce does not match identity token")
	// ErrUnsupportedProvider is returned for credentials from an unconfigured provider.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// TokenVerifier verifies a raw identity token. *gooidc.IDTokenVerifier satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*gooidc.IDToken, error)
}

// Config configures the backend. Verifiers maps provider ids to token verifiers.
type Config struct {
	Verifiers  map[string]TokenVerifier
	Store      ports.SessionStore
	Dispatcher ports.Dispatcher
	Logger     *slog.Logger
}

// Backend implements ports.AuthBackend.
type Backend struct {
	verifiers map[string]TokenVerifier
	store     ports.SessionStore
	notifier  *authstate.Notifier
	logger    *slog.Logger
}

var _ ports.AuthBackend = (*Backend)(nil)

// New constructs a Backend and restores any persisted principal from the store.
// A store read failure is logged and the backend starts signed out.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Store == nil {
		return nil, errors.New("localauth: session store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	verifiers := make(map[string]TokenVerifier, len(cfg.Verifiers))
	for id, v := range cfg.Verifiers {
		if v != nil {
			verifiers[id] = v
		}
	}

	b := &Backend{
		verifiers: verifiers,
		store:     cfg.Store,
		notifier:  authstate.NewNotifier(cfg.Dispatcher),
		logger:    logger,
	}

	if p, err := cfg.Store.Load(ctx); err == nil {
		b.notifier.Publish(&p)
		logger.InfoContext(ctx, "restored session", "uid", p.UID, "anonymous", p.IsAnonymous)
	} else {
		logger.DebugContext(ctx, "no persisted session", "error", err)
	}

	return b, nil
}

// SignInAnonymously creates an anonymous principal with a random uid and no email.
func (b *Backend) SignInAnonymously(ctx context.Context) (domainauth.Principal, error) {
	p := domainauth.Principal{
		UID:         uuid.NewString(),
		ProviderID:  ProviderAnonymous,
		IsAnonymous: true,
	}
	if err := b.store.Save(ctx, p); err != nil {
		return domainauth.Principal{}, fmt.Errorf("save session: %w", err)
	}
	b.notifier.Publish(&p)
	return p, nil
}

// SignInWithCredential verifies the identity token and its nonce binding, then signs in.
// The same provider subject always maps to the same uid.
func (b *Backend) SignInWithCredential(
	ctx context.Context,
	cred domainauth.FederatedCredential,
) (domainauth.Principal, error) {
	if cred.IDToken == "" {
		return domainauth.Principal{}, errors.New("identity token is required")
	}
	if cred.RawNonce == "" {
		return domainauth.Principal{}, errors.New("raw nonce is required")
	}
	verifier, ok := b.verifiers[cred.ProviderID]
	if !ok {
		return domainauth.Principal{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cred.ProviderID)
	}

	tok, err := verifier.Verify(ctx, cred.IDToken)
	if err != nil {
		return domainauth.Principal{}, fmt.Errorf("verify id_token: %w", err)
	}
	if tok.Nonce != domainauth.DigestNonce(cred.RawNonce) {
		return domainauth.Principal{}, ErrNonceMismatch
	}

	var claims struct {
		Email string `json:"email"`
	}
	if claimsErr := tok.Claims(&claims); claimsErr != nil {
		return domainauth.Principal{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}

	p := domainauth.Principal{
		UID:        federatedUID(cred.ProviderID, tok.Subject),
		Email:      claims.Email,
		ProviderID: cred.ProviderID,
		IDToken:    cred.IDToken,
	}
	if err := b.store.Save(ctx, p); err != nil {
		return domainauth.Principal{}, fmt.Errorf("save session: %w", err)
	}
	b.notifier.Publish(&p)
	return p, nil
}

// SignOut clears the current session. It is a no-op when nobody is signed in.
func (b *Backend) SignOut(ctx context.Context) error {
	if b.notifier.Current() == nil {
		return nil
	}
	if err := b.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	b.notifier.Publish(nil)
	return nil
}

// AddStateListener implements ports.AuthBackend.
func (b *Backend) AddStateListener(fn func(*domainauth.Principal)) func() {
	return b.notifier.Add(fn)
}

func federatedUID(providerID, subject string) string {
	return uuid.NewSHA1(uidNamespace, []byte(providerID+":"+subject)).String()
}
