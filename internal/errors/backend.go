package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"google.golang.org/api/googleapi"
)

type backendMessage struct {
	code    ErrorCode
	message string
}

// Identity Toolkit reports failures as an upper-case token at the start of the message,
// optionally followed by " : detail".
var identityToolkitMessages = map[string]backendMessage{
	"INVALID_IDP_RESPONSE": {
		code:    ErrCodeValidation,
		message: "The identity provider token was rejected.",
	},
	"INVALID_ID_TOKEN": {
		code:    ErrCodeValidation,
		message: "The identity token is invalid.",
	},
	"MISSING_OR_INVALID_NONCE": {
		code:    ErrCodeValidation,
		message: "The sign-in nonce did not match the identity token.",
	},
	"OPERATION_NOT_ALLOWED": {
		code:    ErrCodeValidation,
		message: "This sign-in method is disabled.",
	},
	"ADMIN_ONLY_OPERATION": {
		code:    ErrCodeValidation,
		message: "This sign-in method is disabled.",
	},
	"USER_DISABLED": {
		code:    ErrCodeValidation,
		message: "This account has been disabled.",
	},
	"USER_NOT_FOUND": {
		code:    ErrCodeNotFound,
		message: "Account not found.",
	},
	"TOO_MANY_ATTEMPTS_TRY_LATER": {
		code:    ErrCodeInternal,
		message: "Too many attempts. Please try again later.",
	},
}

// MapBackendError maps auth backend and storage errors to AppError instances.
// It handles:
// - context timeouts/cancellations → Timeout/Canceled
// - redis.Nil → NotFound
// - *googleapi.Error from Identity Toolkit → Validation/NotFound/Internal by message
//
// If the error is not recognized, it returns the original error.
func MapBackendError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	if errors.Is(err, redis.Nil) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "Session not found",
			Cause:   err,
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return mapAPIError(apiErr)
	}

	return err
}

func mapAPIError(apiErr *googleapi.Error) error {
	token := identityToolkitToken(apiErr.Message)
	if m, ok := identityToolkitMessages[token]; ok {
		return &AppError{Code: m.code, Message: m.message, Cause: apiErr, Field: token}
	}

	switch {
	case apiErr.Code == http.StatusNotFound:
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: apiErr}
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &AppError{Code: ErrCodeValidation, Message: "The auth backend rejected the request.", Cause: apiErr}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "The auth backend is unavailable. Please try again.",
			Cause:   apiErr,
		}
	}
}

// identityToolkitToken extracts "INVALID_IDP_RESPONSE" from "INVALID_IDP_RESPONSE : bad nonce".
func identityToolkitToken(msg string) string {
	msg = strings.TrimSpace(msg)
	if i := strings.IndexAny(msg, " :"); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
