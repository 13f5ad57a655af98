package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/target/stalkcentral/config"
	"github.com/target/stalkcentral/internal/adapters/identitytoolkit"
	"github.com/target/stalkcentral/internal/adapters/localauth"
	"github.com/target/stalkcentral/internal/adapters/memstore"
	redisadapter "github.com/target/stalkcentral/internal/adapters/redis"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	"github.com/target/stalkcentral/internal/ports"
)

// BuildSessionStore creates the session store for the configured store mode.
// Redis mode requires a connected client.
//
//nolint:ireturn // the store implementation is chosen by configuration.
func BuildSessionStore(cfg config.BackendConfig, client redis.UniversalClient) (ports.SessionStore, error) {
	switch cfg.Store {
	case config.StoreModeRedis:
		if client == nil {
			return nil, errors.New("session store: redis client not configured")
		}
		return redisadapter.NewSessionStoreWithKey(client, cfg.SessionKey), nil
	case config.StoreModeMemory, "":
		return memstore.NewSessionStore(), nil
	default:
		return nil, fmt.Errorf("session store: unsupported mode %q", cfg.Store)
	}
}

// BackendConfig contains dependencies for the auth backend.
type BackendConfig struct {
	Backend config.BackendConfig
	// ProviderID is the provider the federated credential is exchanged under.
	ProviderID string
	// Auth supplies token verification keys to the embedded backend.
	Auth       AuthController
	Store      ports.SessionStore
	Dispatcher ports.Dispatcher
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// BuildBackend creates the auth backend for the configured backend mode.
//
//nolint:ireturn // the backend implementation is chosen by configuration.
func BuildBackend(ctx context.Context, cfg BackendConfig) (ports.AuthBackend, error) {
	if cfg.Store == nil {
		return nil, errors.New("backend: session store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend.Mode {
	case config.BackendModeLocal, "":
		return localauth.New(ctx, localauth.Config{
			Verifiers:  localVerifiers(ctx, cfg),
			Store:      cfg.Store,
			Dispatcher: cfg.Dispatcher,
			Logger:     logger.With("component", "localauth"),
		})
	case config.BackendModeIdentityToolkit:
		itkCfg := cfg.Backend.IdentityToolkit
		return identitytoolkit.New(ctx, identitytoolkit.Config{
			APIKey:     itkCfg.APIKey,
			Endpoint:   itkCfg.Endpoint,
			RequestURI: itkCfg.RequestURI,
			HTTPClient: cfg.HTTPClient,
			Store:      cfg.Store,
			Dispatcher: cfg.Dispatcher,
			Logger:     logger.With("component", "identitytoolkit"),
		})
	default:
		return nil, fmt.Errorf("backend: unsupported mode %q", cfg.Backend.Mode)
	}
}

// localVerifiers picks the keys the embedded backend trusts for the exchanged provider:
// the dev provider's signing key, the discovered OIDC provider's key set, or Apple's
// published keys when an Apple client id is configured.
func localVerifiers(ctx context.Context, cfg BackendConfig) map[string]localauth.TokenVerifier {
	providerID := cfg.ProviderID
	if providerID == "" {
		providerID = domainauth.ProviderApple
	}
	verifiers := make(map[string]localauth.TokenVerifier, 2)
	switch {
	case cfg.Auth.Dev != nil:
		dev := cfg.Auth.Dev
		verifiers[providerID] = localauth.NewStaticVerifier(dev.Issuer(), dev.ClientID(), dev.PublicKey())
	case cfg.Auth.OIDC != nil:
		verifiers[providerID] = cfg.Auth.OIDC.Verifier()
	}
	if id := cfg.Backend.AppleClientID; id != "" {
		verifiers[domainauth.ProviderApple] = localauth.NewAppleVerifier(ctx, id)
	}
	return verifiers
}
