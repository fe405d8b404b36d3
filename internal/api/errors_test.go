package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "auth sentinel", err: fmt.Errorf("loading: %w", ErrAuthRequired), want: KindAuthRequired},
		{name: "401", err: &AuthError{Method: "GET", Path: "/api/reports/me"}, want: KindAuthRequired},
		{name: "validation", err: &ValidationError{Field: "answer", Message: "required"}, want: KindValidation},
		{name: "remote", err: fmt.Errorf("x: %w", &RemoteError{StatusCode: 500}), want: KindRemote},
		{name: "transport", err: &TransportError{Err: errors.New("reset")}, want: KindTransport},
		{name: "other", err: errors.New("weird"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "required", UserMessage(&ValidationError{Field: "answer", Message: "required"}))
	assert.Equal(t,
		UserMessage(&RemoteError{StatusCode: 500}),
		UserMessage(&TransportError{Err: errors.New("reset")}),
	)
	assert.Equal(t, "AUTH_REQUIRED", KindAuthRequired.String())
}
