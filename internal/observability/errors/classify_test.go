package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/stalkcentral/internal/errors"
)

type customErr struct{}

func (*customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error", err: apperrors.New(apperrors.ErrCodeUserCancelled, "cancelled"), want: "user_cancelled"},
		{
			name: "wrapped app error",
			err:  fmt.Errorf("login: %w", apperrors.New(apperrors.ErrCodeBackendExchange, "rejected")),
			want: "backend_exchange",
		},
		{name: "pointer type", err: fmt.Errorf("wrap: %w", &customErr{}), want: "errors_customerr"},
		{name: "context", err: context.Canceled, want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
