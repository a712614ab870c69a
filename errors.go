package portal

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeUnauthorized     = "SESSION_UNAUTHORIZED"
	TextCodeUnreachable      = "ACCOUNT_SERVICE_UNREACHABLE"
	TextCodeValidation       = "SESSION_VALIDATION_FAILED"
	TextCodeServerRejected   = "ACCOUNT_REQUEST_REJECTED"
	TextCodeNotAuthenticated = "SESSION_NOT_AUTHENTICATED"
	TextCodeStaleSession     = "SESSION_GENERATION_STALE"
	TextCodeInvalidResponse  = "ACCOUNT_INVALID_RESPONSE"
	TextCodeOpaqueToken      = "SESSION_TOKEN_OPAQUE"
)

// ErrUnauthorized is returned when the account service rejects the token.
var ErrUnauthorized = goerrors.New("session token rejected", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(http.StatusUnauthorized)

// ErrUnreachable is returned when the account service cannot be reached.
var ErrUnreachable = goerrors.New("account service unreachable", goerrors.CategoryOperation).
	WithTextCode(TextCodeUnreachable).
	WithCode(http.StatusServiceUnavailable)

// ErrValidation is returned when input is rejected before any network call.
var ErrValidation = goerrors.New("invalid input", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrServerRejected is returned when a well formed request is refused by the
// account service business rules.
var ErrServerRejected = goerrors.New("request rejected by account service", goerrors.CategoryBadInput).
	WithTextCode(TextCodeServerRejected).
	WithCode(goerrors.CodeBadRequest)

// ErrNotAuthenticated is returned by operations that need an authenticated session.
var ErrNotAuthenticated = goerrors.New("session is not authenticated", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(http.StatusUnauthorized)

// ErrStaleSession is returned when an operation completed after the session
// it started on was replaced or signed out.
var ErrStaleSession = goerrors.New("session changed while the operation was in flight", goerrors.CategoryConflict).
	WithTextCode(TextCodeStaleSession).
	WithCode(goerrors.CodeConflict)

// ErrInvalidResponse is returned when the account service answer cannot be decoded.
var ErrInvalidResponse = goerrors.New("invalid response from account service", goerrors.CategoryInternal).
	WithTextCode(TextCodeInvalidResponse).
	WithCode(http.StatusBadGateway)

// ErrOpaqueToken is returned when a stored token cannot be decoded locally.
// Opaque tokens are still valid session tokens.
var ErrOpaqueToken = goerrors.New("token is not a decodable JWT", goerrors.CategoryBadInput).
	WithTextCode(TextCodeOpaqueToken).
	WithCode(goerrors.CodeBadRequest)

// NewUnreachableError wraps a transport failure as ErrUnreachable.
func NewUnreachableError(cause error, metadata map[string]any) error {
	return derive(ErrUnreachable, "", cause, metadata)
}

// NewUnauthorizedError returns ErrUnauthorized with request metadata.
func NewUnauthorizedError(metadata map[string]any) error {
	return derive(ErrUnauthorized, "", nil, metadata)
}

// NewServerRejectedError carries the account service message verbatim.
// An empty message keeps the generic one.
func NewServerRejectedError(message string, metadata map[string]any) error {
	return derive(ErrServerRejected, strings.TrimSpace(message), nil, metadata)
}

// NewValidationError reports a pre-flight validation failure.
func NewValidationError(message string, fields map[string]any) error {
	return derive(ErrValidation, message, nil, fields)
}

// NewInvalidResponseError wraps a decoding failure.
func NewInvalidResponseError(cause error, metadata map[string]any) error {
	return derive(ErrInvalidResponse, "", cause, metadata)
}

func derive(base *goerrors.Error, message string, cause error, metadata map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	if message != "" {
		clone.Message = message
	}
	if cause != nil {
		clone.Source = cause
	}
	if len(metadata) > 0 {
		return clone.WithMetadata(metadata)
	}
	return clone
}

// IsUnauthorized reports whether err is, or wraps, ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return hasTextCode(err, TextCodeUnauthorized)
}

// IsUnreachable reports whether err is, or wraps, ErrUnreachable.
func IsUnreachable(err error) bool {
	return hasTextCode(err, TextCodeUnreachable)
}

// IsValidation reports whether err is, or wraps, ErrValidation.
func IsValidation(err error) bool {
	return hasTextCode(err, TextCodeValidation)
}

// IsServerRejected reports whether err is, or wraps, ErrServerRejected.
func IsServerRejected(err error) bool {
	return hasTextCode(err, TextCodeServerRejected)
}

// IsNotAuthenticated reports whether err is, or wraps, ErrNotAuthenticated.
func IsNotAuthenticated(err error) bool {
	return hasTextCode(err, TextCodeNotAuthenticated)
}

// IsStale reports whether err is, or wraps, ErrStaleSession.
func IsStale(err error) bool {
	return hasTextCode(err, TextCodeStaleSession)
}

// IsInvalidResponse reports whether err is, or wraps, ErrInvalidResponse.
func IsInvalidResponse(err error) bool {
	return hasTextCode(err, TextCodeInvalidResponse)
}

// IsOpaqueToken reports whether err is, or wraps, ErrOpaqueToken.
func IsOpaqueToken(err error) bool {
	return hasTextCode(err, TextCodeOpaqueToken)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

const (
	msgSignIn = "Your session has ended. Please sign in."
	msgRetry  = "Unable to reach the campus services. Please check your connection and try again."
)

// UserMessage converts an account error into the text shown to the user.
// Raw service or transport errors are never exposed, only ServerRejected and
// Validation messages are passed through.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fallback
	}

	switch richErr.TextCode {
	case TextCodeUnauthorized, TextCodeNotAuthenticated:
		return msgSignIn
	case TextCodeUnreachable:
		return msgRetry
	case TextCodeServerRejected:
		if richErr.Message != "" && richErr.Message != ErrServerRejected.Message {
			return richErr.Message
		}
		return fallback
	case TextCodeValidation:
		if richErr.Message != "" && richErr.Message != ErrValidation.Message {
			return richErr.Message
		}
		return fallback
	default:
		return fallback
	}
}
