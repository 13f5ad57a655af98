package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/target/stalkcentral/config"
	"github.com/target/stalkcentral/internal/adapters/devauth"
	"github.com/target/stalkcentral/internal/adapters/oidc"
	"github.com/target/stalkcentral/internal/ports"
)

// AuthConfig contains configuration for the authorization controller.
type AuthConfig struct {
	Auth       config.AuthConfig
	Dispatcher ports.Dispatcher
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// AuthController is the configured authorization controller. Exactly one of OIDC
// and Dev is set, matching the auth mode.
type AuthController struct {
	ports.AuthorizationController
	OIDC *oidc.Provider
	Dev  *devauth.Provider
}

// BuildAuthController creates the authorization controller for the configured auth mode.
func BuildAuthController(ctx context.Context, cfg AuthConfig) (AuthController, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuthController(cfg, logger)
	case config.AuthModeOAuth:
		return buildOAuthController(ctx, cfg, logger)
	default:
		return AuthController{}, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

func buildDevAuthController(cfg AuthConfig, logger *slog.Logger) (AuthController, error) {
	failWith, err := cfg.Auth.DevAuth.FailureCode()
	if err != nil {
		return AuthController{}, fmt.Errorf("dev auth: %w", err)
	}
	prov, err := devauth.NewProvider(devauth.Config{
		ClientID:   cfg.Auth.OAuth.ClientID,
		Subject:    cfg.Auth.DevAuth.Subject,
		Email:      cfg.Auth.DevAuth.Email,
		FailWith:   failWith,
		Dispatcher: cfg.Dispatcher,
		Logger:     logger,
	})
	if err != nil {
		return AuthController{}, fmt.Errorf("create dev auth provider: %w", err)
	}
	logger.Warn("using mock identity provider; do not use in production", "subject", cfg.Auth.DevAuth.Subject)
	return AuthController{AuthorizationController: prov, Dev: prov}, nil
}

func buildOAuthController(ctx context.Context, cfg AuthConfig, logger *slog.Logger) (AuthController, error) {
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.RedirectURL == "" {
		logger.Error("AuthModeOAuth selected but required config missing",
			"discovery_url_empty", oauth.DiscoveryURL == "",
			"client_id_empty", oauth.ClientID == "",
			"redirect_url_empty", oauth.RedirectURL == "",
		)
		return AuthController{}, errors.New("oauth: discovery url, client id and redirect url are required")
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		DiscoveryURL: oauth.DiscoveryURL,
		ResponseMode: oauth.ResponseMode,
		PendingTTL:   oauth.PendingTTL,
		HTTPClient:   cfg.HTTPClient,
		Dispatcher:   cfg.Dispatcher,
		Logger:       logger,
	})
	if err != nil {
		return AuthController{}, fmt.Errorf("create OIDC provider: %w", err)
	}
	return AuthController{AuthorizationController: prov, OIDC: prov}, nil
}
