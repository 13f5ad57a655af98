package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"google.golang.org/api/googleapi"
)

func TestMapBackendError_NilError(t *testing.T) {
	if err := MapBackendError(nil); err != nil {
		t.Errorf("MapBackendError(nil) = %v, want nil", err)
	}
}

func TestMapBackendError_ContextErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: ErrCodeTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("verify: %w", context.DeadlineExceeded), want: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, want: ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapBackendError(tt.err)
			if GetCode(got) != tt.want {
				t.Errorf("MapBackendError() code = %v, want %v", GetCode(got), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("MapBackendError() lost cause %v", tt.err)
			}
		})
	}
}

func TestMapBackendError_RedisNil(t *testing.T) {
	got := MapBackendError(fmt.Errorf("load: %w", redis.Nil))
	if GetCode(got) != ErrCodeNotFound {
		t.Errorf("MapBackendError(redis.Nil) = %v, want not_found", got)
	}
}

func TestMapBackendError_IdentityToolkit(t *testing.T) {
	tests := []struct {
		name      string
		apiErr    *googleapi.Error
		wantCode  ErrorCode
		wantField string
	}{
		{
			name:      "invalid idp response with detail",
			apiErr:    &googleapi.Error{Code: http.StatusBadRequest, Message: "INVALID_IDP_RESPONSE : Nonce is missing"},
			wantCode:  ErrCodeValidation,
			wantField: "INVALID_IDP_RESPONSE",
		},
		{
			name:      "operation not allowed",
			apiErr:    &googleapi.Error{Code: http.StatusBadRequest, Message: "OPERATION_NOT_ALLOWED"},
			wantCode:  ErrCodeValidation,
			wantField: "OPERATION_NOT_ALLOWED",
		},
		{
			name:      "user not found",
			apiErr:    &googleapi.Error{Code: http.StatusBadRequest, Message: "USER_NOT_FOUND"},
			wantCode:  ErrCodeNotFound,
			wantField: "USER_NOT_FOUND",
		},
		{
			name:     "unknown client error",
			apiErr:   &googleapi.Error{Code: http.StatusForbidden, Message: "PERMISSION_DENIED"},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "plain 404",
			apiErr:   &googleapi.Error{Code: http.StatusNotFound, Message: "nope"},
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "server error",
			apiErr:   &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "backend down"},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapBackendError(fmt.Errorf("verifyAssertion: %w", tt.apiErr))
			if GetCode(got) != tt.wantCode {
				t.Errorf("code = %v, want %v", GetCode(got), tt.wantCode)
			}
			if GetField(got) != tt.wantField {
				t.Errorf("field = %q, want %q", GetField(got), tt.wantField)
			}
			var apiErr *googleapi.Error
			if !errors.As(got, &apiErr) {
				t.Errorf("mapped error lost *googleapi.Error cause")
			}
		})
	}
}

func TestMapBackendError_StandardError(t *testing.T) {
	plain := errors.New("something else")
	if got := MapBackendError(plain); !errors.Is(got, plain) || GetCode(got) != "" {
		t.Errorf("MapBackendError(plain) = %v, want passthrough", got)
	}
}
