package httpx

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	"github.com/target/stalkcentral/internal/service"
)

// SessionService is the subset of *service.SessionCoordinator the handlers use.
type SessionService interface {
	State() domainauth.SessionState
	LoginAnonymously(ctx context.Context) (domainauth.Principal, error)
	Logout(ctx context.Context) error
}

// LoginService is the subset of *service.LoginOrchestrator the handlers use.
type LoginService interface {
	BeginSignIn(ctx context.Context, scopes ...domainauth.Scope) error
	Phase() service.Phase
	LastOutcome() service.Outcome
	Busy() bool
}

// CallbackReceiver completes an authorization request from the provider redirect.
// *oidc.Provider implements it.
type CallbackReceiver interface {
	HandleCallback(ctx context.Context, params url.Values) error
}

// AuthHandlers provides HTTP handlers for the session operations.
type AuthHandlers struct {
	Session  SessionService
	SignIn   LoginService
	Receiver CallbackReceiver
	// UnknownState is the sentinel Callback returns for a state it never issued.
	UnknownState error
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type userResponse struct {
	UID       string `json:"uid"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
}

type statusResponse struct {
	LoggedIn    bool          `json:"logged_in"`
	User        *userResponse `json:"user,omitempty"`
	Screen      string        `json:"screen"`
	Phase       string        `json:"phase,omitempty"`
	Busy        bool          `json:"busy"`
	LastOutcome string        `json:"last_outcome,omitempty"`
}

// Login starts a federated sign-in attempt.
// POST /auth/login?scope=email,name.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	scopes := parseScopes(r.URL.Query().Get("scope"))
	if err := h.SignIn.BeginSignIn(r.Context(), scopes...); err != nil {
		h.logger().WarnContext(r.Context(), "begin sign-in failed", "error", err)
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "pending",
		"phase":  h.SignIn.Phase().String(),
	})
}

// Callback receives the identity provider's redirect.
// GET /auth/callback?code=<code>&state=<state> or POST with response_mode=form_post.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	if h.Receiver == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("no provider callback is configured"),
		})
		return
	}
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}
	if r.Form.Get("state") == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	if err := h.Receiver.HandleCallback(r.Context(), r.Form); err != nil {
		if h.UnknownState != nil && errors.Is(err, h.UnknownState) {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_state", Err: err})
			return
		}
		h.logger().ErrorContext(r.Context(), "provider callback failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "callback_failed", Err: err})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := callbackPage.Execute(w, nil); err != nil {
		h.logger().DebugContext(r.Context(), "write callback page", "error", err)
	}
}

// Anonymous signs in as a guest.
// POST /auth/anonymous.
func (h *AuthHandlers) Anonymous(w http.ResponseWriter, r *http.Request) {
	p, err := h.Session.LoginAnonymously(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, userResponse{UID: p.UID, Email: p.Email, Anonymous: true})
}

// Logout signs out. Logging out while logged out succeeds.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Logout(r.Context()); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status reports the session and the current sign-in attempt.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, _ *http.Request) {
	state := h.Session.State()
	resp := statusResponse{
		LoggedIn: state.IsLoggedIn,
		Screen:   string(domainauth.ScreenFor(state).Kind),
	}
	if state.User != nil {
		resp.User = &userResponse{UID: state.User.UID, Email: state.User.Email}
	}
	if h.SignIn != nil {
		resp.Phase = h.SignIn.Phase().String()
		resp.Busy = h.SignIn.Busy()
		resp.LastOutcome = h.SignIn.LastOutcome().String()
	}
	WriteJSON(w, http.StatusOK, resp)
}

func parseScopes(raw string) []domainauth.Scope {
	var scopes []domainauth.Scope
	for _, s := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		scopes = append(scopes, domainauth.Scope(strings.ToLower(s)))
	}
	return scopes
}

var callbackPage = template.Must(template.New("callback").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>StalkCentral</title></head>
<body><p>Sign-in received. You can close this window and return to StalkCentral.</p></body></html>
`))
