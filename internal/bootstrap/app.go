package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/stalkcentral/config"
	"github.com/target/stalkcentral/internal/adapters/oidc"
	"github.com/target/stalkcentral/internal/adapters/terminal"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	apperrors "github.com/target/stalkcentral/internal/errors"
	httpx "github.com/target/stalkcentral/internal/http"
	"github.com/target/stalkcentral/internal/ports"
	"github.com/target/stalkcentral/internal/runloop"
	"github.com/target/stalkcentral/internal/service"
	"golang.org/x/sync/errgroup"
)

// AppDeps contains what BuildApp needs from the caller.
type AppDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Out receives the window's frames.
	Out io.Writer
	// Redis is required when the session store is redis.
	Redis redis.UniversalClient
	// HTTPClient is used for discovery, token and backend calls. Defaults to a 30s-timeout client.
	HTTPClient *http.Client
}

// App is the assembled sign-in client.
type App struct {
	Config  *config.AppConfig
	Logger  *slog.Logger
	Queue   *runloop.Queue
	Window  *terminal.Window
	Session *service.SessionCoordinator
	Login   *service.LoginOrchestrator
	Backend ports.AuthBackend
	Auth    AuthController
	Metrics MetricsSink
	// HTTP is nil when the http service is disabled.
	HTTP *HTTPServer
}

// BuildApp wires the window, backend, session coordinator and login orchestrator.
func BuildApp(ctx context.Context, deps AppDeps) (*App, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	a := &App{Config: cfg, Logger: logger}
	a.Queue = runloop.New(runloop.Options{Logger: logger.With("component", "runloop")})
	a.Window = terminal.New(terminal.Options{Out: deps.Out, Dissolve: cfg.UI.TransitionDuration})
	a.Metrics = BuildMetricsSink(ctx, cfg.Observability.Metrics, logger)

	var err error
	a.Auth, err = BuildAuthController(ctx, AuthConfig{
		Auth:       cfg.Auth,
		Dispatcher: a.Queue,
		HTTPClient: httpClient,
		Logger:     logger.With("component", "authorization"),
	})
	if err != nil {
		a.closeBuilt()
		return nil, err
	}

	store, err := BuildSessionStore(cfg.Backend, deps.Redis)
	if err != nil {
		a.closeBuilt()
		return nil, err
	}
	a.Backend, err = BuildBackend(ctx, BackendConfig{
		Backend:    cfg.Backend,
		ProviderID: cfg.Auth.ProviderID,
		Auth:       a.Auth,
		Store:      store,
		Dispatcher: a.Queue,
		HTTPClient: backendHTTPClient(cfg.Backend, deps.HTTPClient),
		Logger:     logger,
	})
	if err != nil {
		a.closeBuilt()
		return nil, fmt.Errorf("build backend: %w", err)
	}

	anchor := service.WindowAnchor{Window: a.Window}
	a.Session, err = service.NewSessionCoordinator(service.SessionCoordinatorOptions{
		Backend: a.Backend,
		Anchor:  anchor,
		Metrics: a.Metrics,
		Logger:  logger,
	})
	if err != nil {
		a.closeBuilt()
		return nil, err
	}
	a.Login, err = service.NewLoginOrchestrator(service.LoginOrchestratorOptions{
		Controller: a.Auth,
		Session:    a.Session,
		Anchor:     anchor,
		Scopes:     cfg.Auth.RequestedScopes(),
		ProviderID: cfg.Auth.ProviderID,
		OnResult:   a.reportResult,
		// Attempts live as long as the oidc provider keeps their pending request.
		AttemptTimeout: cfg.Auth.OAuth.PendingTTL,
		Metrics:        a.Metrics,
		Logger:         logger,
	})
	if err != nil {
		a.closeBuilt()
		return nil, err
	}

	if cfg.IsHTTPServerEnabled() {
		services := httpx.RouterServices{
			Session:    a.Session,
			Login:      a.Login,
			WindowLive: a.Window.Live,
			Logger:     logger,
		}
		if a.Auth.OIDC != nil {
			services.Callback = a.Auth.OIDC
			services.UnknownState = oidc.ErrUnknownState
		}
		a.HTTP, err = NewHTTPServer(HTTPServerConfig{HTTP: cfg.HTTP, Services: services, Logger: logger})
		if err != nil {
			a.closeBuilt()
			return nil, err
		}
	}
	return a, nil
}

// backendHTTPClient hands the identity toolkit adapter a client only when the caller
// supplied one, so the adapter keeps its API-key transport otherwise.
func backendHTTPClient(cfg config.BackendConfig, client *http.Client) *http.Client {
	if cfg.Mode != config.BackendModeIdentityToolkit || cfg.IdentityToolkit.APIKey != "" {
		return nil
	}
	return client
}

func (a *App) reportResult(err error) {
	switch {
	case err == nil:
		a.Logger.Info("sign in complete")
	case apperrors.IsUserCancelled(err):
		a.Logger.Info("sign in cancelled")
	case apperrors.IsStaleAttempt(err):
		a.Logger.Debug("ignored result of superseded sign in attempt")
	default:
		a.Logger.Warn("sign in failed", "error", err, "code", apperrors.GetCode(err))
	}
}

// Run drains the main queue, subscribes the session coordinator and serves HTTP until
// ctx is cancelled or any of them (or an extra task) fails.
func (a *App) Run(ctx context.Context, extra ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Queue.Run(gctx) })

	a.Session.Subscribe(func(state domainauth.SessionState) {
		a.Logger.Debug("session state changed", "logged_in", state.IsLoggedIn)
		if a.Config.UI.AutoPrompt && domainauth.ScreenFor(state).Kind == domainauth.ScreenLogin {
			if err := a.Login.BeginSignIn(gctx); err != nil {
				a.Logger.Warn("automatic sign in prompt failed", "error", err)
			}
		}
	})

	if a.HTTP != nil {
		g.Go(func() error { return a.HTTP.Run(gctx) })
	}
	for _, fn := range extra {
		g.Go(func() error { return fn(gctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.Session != nil {
		a.Session.Close()
	}
	a.closeBuilt()
}

func (a *App) closeBuilt() {
	if a.HTTP != nil {
		if err := a.HTTP.Close(); err != nil {
			a.Logger.Warn("close http listener", "error", err)
		}
	}
	if a.Queue != nil {
		a.Queue.Close()
	}
	if a.Window != nil {
		a.Window.Close()
	}
	if err := a.Metrics.Close(); err != nil {
		a.Logger.Warn("close metrics sink", "error", err)
	}
}
