package portal_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "unauthorized", err: portal.NewUnauthorizedError(nil), check: portal.IsUnauthorized},
		{name: "unreachable", err: portal.NewUnreachableError(errors.New("refused"), nil), check: portal.IsUnreachable},
		{name: "validation", err: portal.NewValidationError("bad", nil), check: portal.IsValidation},
		{name: "server rejected", err: portal.NewServerRejectedError("no", nil), check: portal.IsServerRejected},
		{name: "not authenticated", err: portal.ErrNotAuthenticated, check: portal.IsNotAuthenticated},
		{name: "stale", err: portal.ErrStaleSession, check: portal.IsStale},
		{name: "invalid response", err: portal.NewInvalidResponseError(nil, nil), check: portal.IsInvalidResponse},
		{name: "opaque token", err: portal.ErrOpaqueToken, check: portal.IsOpaqueToken},
		{name: "wrapped", err: fmt.Errorf("resolve: %w", portal.NewUnauthorizedError(nil)), check: portal.IsUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestErrorClassificationMisses(t *testing.T) {
	assert.False(t, portal.IsUnauthorized(nil))
	assert.False(t, portal.IsUnauthorized(errors.New("session token rejected")))
	assert.False(t, portal.IsUnreachable(portal.NewUnauthorizedError(nil)))
	assert.False(t, portal.IsStale(portal.ErrValidation))
	assert.False(t, portal.IsInvalidResponse(portal.ErrOpaqueToken))
}

func TestDerivedErrorsDoNotMutateSentinels(t *testing.T) {
	err := portal.NewServerRejectedError("Invalid credentials.", map[string]any{"status": 400})

	var richErr *goerrors.Error
	assert.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "Invalid credentials.", richErr.Message)
	assert.Equal(t, 400, richErr.Metadata["status"])

	assert.Equal(t, "request rejected by account service", portal.ErrServerRejected.Message)
	assert.Empty(t, portal.ErrServerRejected.Metadata)
}

func TestUnreachableKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:8000: connection refused")
	err := portal.NewUnreachableError(cause, nil)

	var richErr *goerrors.Error
	assert.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, cause, richErr.Source)
}

func TestUserMessage(t *testing.T) {
	const fallback = "Something went wrong."

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "plain error", err: errors.New("socket closed"), expected: fallback},
		{name: "server message passes through", err: portal.NewServerRejectedError("Invalid old password", nil), expected: "Invalid old password"},
		{name: "generic server rejection", err: portal.NewServerRejectedError("", nil), expected: fallback},
		{name: "validation message passes through", err: portal.NewValidationError("Passwords don't match.", nil), expected: "Passwords don't match."},
		{name: "unauthorized", err: portal.NewUnauthorizedError(nil), expected: "Your session has ended. Please sign in."},
		{name: "not authenticated", err: portal.ErrNotAuthenticated, expected: "Your session has ended. Please sign in."},
		{name: "unreachable hides transport detail", err: portal.NewUnreachableError(errors.New("dial tcp"), nil), expected: "Unable to reach the campus services. Please check your connection and try again."},
		{name: "invalid response", err: portal.NewInvalidResponseError(errors.New("eof"), nil), expected: fallback},
		{name: "stale", err: portal.ErrStaleSession, expected: fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, portal.UserMessage(tt.err, fallback))
		})
	}
}
