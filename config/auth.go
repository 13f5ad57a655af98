package config

import (
	"fmt"
	"strings"
	"time"

	domainauth "github.com/target/stalkcentral/internal/domain/auth"
)

// AuthMode represents the identity provider used for federated sign-in.
type AuthMode string

const (
	// AuthModeOAuth uses the OIDC authorization-code flow against a real provider.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock mints identity tokens locally (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string        `env:"CLIENT_ID"     envDefault:"com.stalkcentral.signin"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	RedirectURL  string        `env:"REDIRECT_URL"  envDefault:"http://127.0.0.1:8080/auth/callback"`
	DiscoveryURL string        `env:"DISCOVERY_URL" envDefault:"https://appleid.apple.com/.well-known/openid-configuration"`
	ResponseMode string        `env:"RESPONSE_MODE" envDefault:"form_post"`
	PendingTTL   time.Duration `env:"PENDING_TTL"   envDefault:"10m"`
}

// DevAuthConfig controls the identity minted by the mock provider.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Subject string `env:"SUBJECT" envDefault:"dev-user"`
	Email   string `env:"EMAIL"   envDefault:"dev@example.com"`
	// FailWith makes every sign-in fail with the named code (canceled, unknown,
	// invalid_response, not_handled, failed). Empty means succeed.
	FailWith string `env:"FAIL_WITH"`
}

// FailureCode parses FailWith. Zero means no failure is configured.
func (c DevAuthConfig) FailureCode() (domainauth.AuthorizationErrorCode, error) {
	if strings.TrimSpace(c.FailWith) == "" {
		return 0, nil
	}
	return domainauth.ParseAuthorizationErrorCode(c.FailWith)
}

// AuthConfig groups all identity-provider configuration.
type AuthConfig struct {
	// Mode determines which authorization controller to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"mock"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Scopes requested from the provider on each sign-in.
	Scopes []string `env:"AUTH_SCOPES" envDefault:"email" envSeparator:","`

	// ProviderID names the provider when exchanging the credential with the backend.
	ProviderID string `env:"AUTH_PROVIDER_ID" envDefault:"apple.com"`
}

// Sanitize trims values and restores defaults that must not be empty.
func (c *AuthConfig) Sanitize() {
	scopes := make([]string, 0, len(c.Scopes))
	for _, s := range c.Scopes {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			scopes = append(scopes, s)
		}
	}
	c.Scopes = scopes
	if c.ProviderID = strings.TrimSpace(c.ProviderID); c.ProviderID == "" {
		c.ProviderID = domainauth.ProviderApple
	}
	if c.OAuth.PendingTTL <= 0 {
		c.OAuth.PendingTTL = 10 * time.Minute
	}
}

// RequestedScopes returns Scopes as domain scopes, defaulting to email.
func (c AuthConfig) RequestedScopes() []domainauth.Scope {
	if len(c.Scopes) == 0 {
		return []domainauth.Scope{domainauth.ScopeEmail}
	}
	out := make([]domainauth.Scope, 0, len(c.Scopes))
	for _, s := range c.Scopes {
		out = append(out, domainauth.Scope(s))
	}
	return out
}
