package httpx

import (
	"net/http"

	apperrors "github.com/target/stalkcentral/internal/errors"
)

// statusByCode maps application error codes onto HTTP statuses.
//
//nolint:gochecknoglobals // static read-only lookup
var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeNotFound:              http.StatusNotFound,
	apperrors.ErrCodeValidation:            http.StatusBadRequest,
	apperrors.ErrCodeTimeout:               http.StatusGatewayTimeout,
	apperrors.ErrCodeCanceled:              http.StatusRequestTimeout,
	apperrors.ErrCodeUserCancelled:         http.StatusConflict,
	apperrors.ErrCodeInvalidResponse:       http.StatusBadGateway,
	apperrors.ErrCodeProviderUnknown:       http.StatusBadGateway,
	apperrors.ErrCodeProviderFailed:        http.StatusBadGateway,
	apperrors.ErrCodeNotHandled:            http.StatusServiceUnavailable,
	apperrors.ErrCodeTokenMissing:          http.StatusBadGateway,
	apperrors.ErrCodeTokenUndecodable:      http.StatusBadGateway,
	apperrors.ErrCodeBackendExchange:       http.StatusUnauthorized,
	apperrors.ErrCodeBackendAnonymousLogin: http.StatusBadGateway,
	apperrors.ErrCodeBackendSignOut:        http.StatusBadGateway,
	apperrors.ErrCodeInvalidState:          http.StatusConflict,
	apperrors.ErrCodeStaleAttempt:          http.StatusConflict,
}

// StatusForCode returns the HTTP status for an application error code, 500 when unmapped.
func StatusForCode(code apperrors.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
