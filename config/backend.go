package config

import (
	"fmt"
	"strings"
)

// BackendMode selects the managed authentication backend.
type BackendMode string

const (
	// BackendModeLocal runs the embedded backend that verifies identity tokens itself.
	BackendModeLocal BackendMode = "local"
	// BackendModeIdentityToolkit uses the hosted Identity Toolkit REST API.
	BackendModeIdentityToolkit BackendMode = "identitytoolkit"
)

// UnmarshalText implements encoding.TextUnmarshaler for BackendMode.
func (b *BackendMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "local", "identitytoolkit":
		*b = BackendMode(v)
		return nil
	default:
		return fmt.Errorf("invalid BackendMode: %q (valid options: local, identitytoolkit)", v)
	}
}

// StoreMode selects where the signed-in principal is persisted.
type StoreMode string

const (
	StoreModeMemory StoreMode = "memory"
	StoreModeRedis  StoreMode = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreMode.
func (s *StoreMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis":
		*s = StoreMode(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreMode: %q (valid options: memory, redis)", v)
	}
}

// IdentityToolkitConfig configures the hosted backend.
type IdentityToolkitConfig struct {
	APIKey string `env:"API_KEY"`
	// Endpoint overrides the API base URL (emulators, tests).
	Endpoint   string `env:"ENDPOINT"`
	RequestURI string `env:"REQUEST_URI" envDefault:"http://localhost"`
}

// BackendConfig groups auth backend configuration.
type BackendConfig struct {
	Mode BackendMode `env:"BACKEND_MODE" envDefault:"local"`

	// AppleClientID is the audience the embedded backend expects in Apple identity
	// tokens. Defaults to OAUTH_CLIENT_ID when empty.
	AppleClientID string `env:"BACKEND_APPLE_CLIENT_ID"`

	IdentityToolkit IdentityToolkitConfig `envPrefix:"IDENTITY_TOOLKIT_"`

	// Store selects session persistence; redis keeps the session across restarts.
	Store      StoreMode `env:"SESSION_STORE"     envDefault:"memory"`
	SessionKey string    `env:"SESSION_REDIS_KEY" envDefault:"stalkcentral:session:current"`
}

// Sanitize applies guardrails to backend configuration values.
func (c *BackendConfig) Sanitize() {
	c.AppleClientID = strings.TrimSpace(c.AppleClientID)
	c.IdentityToolkit.APIKey = strings.TrimSpace(c.IdentityToolkit.APIKey)
	c.IdentityToolkit.Endpoint = strings.TrimSpace(c.IdentityToolkit.Endpoint)
	if c.SessionKey = strings.TrimSpace(c.SessionKey); c.SessionKey == "" {
		c.SessionKey = "stalkcentral:session:current"
	}
	if c.Mode == "" {
		c.Mode = BackendModeLocal
	}
	if c.Store == "" {
		c.Store = StoreModeMemory
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
