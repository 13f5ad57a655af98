package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the loopback HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeCLI runs the interactive terminal.
	ServiceModeCLI ServiceMode = "cli"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeCLI,
		ServiceModeHTTP,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeCLI:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: cli, http)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// UIConfig controls the terminal window.
type UIConfig struct {
	// TransitionDuration is how long a cross-dissolve takes.
	TransitionDuration time.Duration `env:"UI_TRANSITION_DURATION" envDefault:"300ms"`

	// AutoPrompt starts a sign-in as soon as the login screen appears.
	AutoPrompt bool `env:"UI_AUTO_PROMPT" envDefault:"false"`
}

// Sanitize applies guardrails to UI configuration values.
func (u *UIConfig) Sanitize() {
	if u.TransitionDuration < 0 {
		u.TransitionDuration = 0
	}
	if u.TransitionDuration > 5*time.Second {
		u.TransitionDuration = 5 * time.Second
	}
}
