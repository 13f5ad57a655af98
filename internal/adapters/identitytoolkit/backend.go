// Package identitytoolkit implements ports.AuthBackend over the Identity Toolkit REST API.
package identitytoolkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/target/stalkcentral/internal/adapters/authstate"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	apperrors "github.com/target/stalkcentral/internal/errors"
	"github.com/target/stalkcentral/internal/ports"
	itk "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const defaultRequestURI = "http://localhost"

// Config configures the backend.
type Config struct {
	APIKey string
	// Endpoint overrides the service base path (emulators, tests).
	Endpoint string
	// RequestURI is sent with verifyAssertion; the service only checks it is a valid URL.
	RequestURI string
	HTTPClient *http.Client
	Store      ports.SessionStore
	Dispatcher ports.Dispatcher
	Logger     *slog.Logger
	// ClientOptions are appended after the options derived from the fields above.
	ClientOptions []option.ClientOption
}

// Backend implements ports.AuthBackend.
type Backend struct {
	svc        *itk.Service
	requestURI string
	store      ports.SessionStore
	notifier   *authstate.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.AuthBackend = (*Backend)(nil)

// New constructs a Backend and restores any persisted principal from the store.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Store == nil {
		return nil, errors.New("identitytoolkit: session store is required")
	}
	if cfg.APIKey == "" && cfg.HTTPClient == nil {
		return nil, errors.New("identitytoolkit: API key is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	} else {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, cfg.ClientOptions...)

	svc, err := itk.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit: new service: %w", err)
	}

	b := &Backend{
		svc:        svc,
		requestURI: cfg.RequestURI,
		store:      cfg.Store,
		notifier:   authstate.NewNotifier(cfg.Dispatcher),
		logger:     logger,
		now:        time.Now,
	}
	if b.requestURI == "" {
		b.requestURI = defaultRequestURI
	}

	if p, loadErr := cfg.Store.Load(ctx); loadErr == nil {
		b.notifier.Publish(&p)
		logger.InfoContext(ctx, "restored session", "uid", p.UID, "anonymous", p.IsAnonymous)
	}
	return b, nil
}

// SignInAnonymously creates an anonymous account via signupNewUser.
func (b *Backend) SignInAnonymously(ctx context.Context) (domainauth.Principal, error) {
	resp, err := b.svc.Relyingparty.SignupNewUser(&itk.IdentitytoolkitRelyingpartySignupNewUserRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return domainauth.Principal{}, apperrors.MapBackendError(err)
	}
	if resp.LocalId == "" {
		return domainauth.Principal{}, apperrors.Internal("signupNewUser returned no localId")
	}

	p := domainauth.Principal{
		UID:          resp.LocalId,
		ProviderID:   "anonymous",
		IsAnonymous:  true,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    b.expiry(resp.ExpiresIn),
	}
	return b.commit(ctx, p)
}

// SignInWithCredential exchanges the provider token and raw nonce via verifyAssertion.
// The service hashes the raw nonce and compares it with the token's nonce claim.
func (b *Backend) SignInWithCredential(
	ctx context.Context,
	cred domainauth.FederatedCredential,
) (domainauth.Principal, error) {
	if cred.IDToken == "" {
		return domainauth.Principal{}, apperrors.ValidationField("id_token", "identity token is required")
	}
	if cred.RawNonce == "" {
		return domainauth.Principal{}, apperrors.ValidationField("nonce", "raw nonce is required")
	}

	body := url.Values{
		"id_token":   {cred.IDToken},
		"providerId": {cred.ProviderID},
		"nonce":      {cred.RawNonce},
	}
	resp, err := b.svc.Relyingparty.VerifyAssertion(&itk.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        b.requestURI,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return domainauth.Principal{}, apperrors.MapBackendError(err)
	}
	if resp.ErrorMessage != "" {
		return domainauth.Principal{}, apperrors.Validation(resp.ErrorMessage)
	}
	if resp.NeedConfirmation {
		return domainauth.Principal{}, apperrors.ValidationField("email", "account exists with a different credential")
	}

	providerID := resp.ProviderId
	if providerID == "" {
		providerID = cred.ProviderID
	}
	p := domainauth.Principal{
		UID:          resp.LocalId,
		Email:        resp.Email,
		ProviderID:   providerID,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    b.expiry(resp.ExpiresIn),
	}
	return b.commit(ctx, p)
}

// SignOut drops the local session; the REST API has no server-side sign-out.
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

func (b *Backend) commit(ctx context.Context, p domainauth.Principal) (domainauth.Principal, error) {
	if err := b.store.Save(ctx, p); err != nil {
		return domainauth.Principal{}, fmt.Errorf("save session: %w", err)
	}
	b.notifier.Publish(&p)
	b.logger.DebugContext(ctx, "identitytoolkit sign-in", "uid", p.UID, "provider", p.ProviderID)
	return p, nil
}

func (b *Backend) expiry(seconds int64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return b.now().Add(time.Duration(seconds) * time.Second)
}
