package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Session SessionService
	Login   LoginService
	// Callback is nil unless the OIDC provider is in use.
	Callback     CallbackReceiver
	UnknownState error
	// WindowLive, when set, backs the health check.
	WindowLive func() bool
	Logger     *slog.Logger
}

// NewRouter creates the loopback router. Session endpoints only answer loopback peers.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	health := healthHandler(services.WindowLive)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	if services.Session != nil {
		registerAuthRoutes(mux, &AuthHandlers{
			Session:      services.Session,
			SignIn:       services.Login,
			Receiver:     services.Callback,
			UnknownState: services.UnknownState,
			Logger:       services.Logger,
		})
	}

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	local := LoopbackOnly()

	// The provider redirect arrives through the user's browser, which is also local.
	mux.Handle("GET /auth/callback", local(http.HandlerFunc(h.Callback)))
	mux.Handle("POST /auth/callback", local(http.HandlerFunc(h.Callback)))

	mux.Handle("GET /auth/status", local(http.HandlerFunc(h.Status)))
	mux.Handle("POST /auth/anonymous", local(http.HandlerFunc(h.Anonymous)))
	mux.Handle("POST /auth/logout", local(http.HandlerFunc(h.Logout)))
	if h.SignIn != nil {
		mux.Handle("POST /auth/login", local(http.HandlerFunc(h.Login)))
	}
}
