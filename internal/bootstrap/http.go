package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/target/stalkcentral/config"
	httpx "github.com/target/stalkcentral/internal/http"
)

// HTTPServerConfig contains configuration for the loopback HTTP server.
type HTTPServerConfig struct {
	HTTP     config.HTTPConfig
	Services httpx.RouterServices
	Logger   *slog.Logger
}

// HTTPServer is a bound but not yet serving HTTP server.
type HTTPServer struct {
	server   *http.Server
	listener net.Listener
	shutdown time.Duration
	logger   *slog.Logger
}

// NewHTTPServer builds the handler chain and binds the listener. Binding happens here
// so the redirect address is known to be reachable before any sign-in starts.
func NewHTTPServer(cfg HTTPServerConfig) (*HTTPServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := cfg.HTTP.Addr
	// Guard against empty addr to avoid listening on every interface
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	return &HTTPServer{
		server: &http.Server{
			Handler:           buildHTTPHandler(logger, cfg.Services),
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
			IdleTimeout:       120 * time.Second,
		},
		listener: ln,
		shutdown: cfg.HTTP.ShutdownTimeout,
		logger:   logger,
	}, nil
}

func buildHTTPHandler(logger *slog.Logger, services httpx.RouterServices) http.Handler {
	if services.Logger == nil {
		services.Logger = logger
	}
	// Order: Recover -> Logging -> Router
	h := httpx.NewRouter(services)
	h = httpx.Logging(logger)(h)
	h = httpx.Recover(logger)(h)
	return h
}

// Addr returns the bound address.
func (s *HTTPServer) Addr() net.Addr { return s.listener.Addr() }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.listener.Addr().String())
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	timeout := s.shutdown
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Close releases the listener without serving. Used when startup fails after binding.
func (s *HTTPServer) Close() error {
	_ = s.server.Close()
	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
