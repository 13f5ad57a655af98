package auth

import (
	"fmt"
	"strings"
)

// AuthorizationErrorCode is the platform's reason for a failed authorization.
// Values follow the platform's numbering.
type AuthorizationErrorCode int

const (
	AuthorizationUnknown         AuthorizationErrorCode = 1000
	AuthorizationCanceled        AuthorizationErrorCode = 1001
	AuthorizationInvalidResponse AuthorizationErrorCode = 1002
	AuthorizationNotHandled      AuthorizationErrorCode = 1003
	AuthorizationFailed          AuthorizationErrorCode = 1004
)

func (c AuthorizationErrorCode) String() string {
	switch c {
	case AuthorizationUnknown:
		return "unknown"
	case AuthorizationCanceled:
		return "canceled"
	case AuthorizationInvalidResponse:
		return "invalid_response"
	case AuthorizationNotHandled:
		return "not_handled"
	case AuthorizationFailed:
		return "failed"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// ParseAuthorizationErrorCode parses the String form of a code.
func ParseAuthorizationErrorCode(s string) (AuthorizationErrorCode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown":
		return AuthorizationUnknown, nil
	case "canceled", "cancelled":
		return AuthorizationCanceled, nil
	case "invalid_response":
		return AuthorizationInvalidResponse, nil
	case "not_handled":
		return AuthorizationNotHandled, nil
	case "failed":
		return AuthorizationFailed, nil
	default:
		return 0, fmt.Errorf("invalid authorization error code: %q", s)
	}
}

// AuthorizationError is reported by an authorization controller when a request fails.
// State echoes the failed request's state; empty when the controller cannot tell.
type AuthorizationError struct {
	Code        AuthorizationErrorCode
	Description string
	State       string
}

func (e *AuthorizationError) Error() string {
	if e.Description == "" {
		return "authorization " + e.Code.String()
	}
	return "authorization " + e.Code.String() + ": " + e.Description
}
