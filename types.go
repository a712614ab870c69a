package portal

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore persists the bearer token across process restarts.
// Implementations never inspect the token contents.
type TokenStore interface {
	// Read returns the persisted token, ok is false when none is stored
	Read() (token string, ok bool)
	// Write replaces the persisted token
	Write(token string) error
	// Clear removes the persisted token, clearing an empty store is not an error
	Clear() error
}

// IdentityResolver resolves a bearer token to the user it belongs to.
// It must fail with ErrUnauthorized when the account service rejects the
// token and with ErrUnreachable when the service cannot be reached.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*User, error)
}

// AccountService holds the account endpoints the Manager drives.
type AccountService interface {
	Login(ctx context.Context, credentials Credentials) (*LoginResponse, error)
	Register(ctx context.Context, registration Registration) (*User, error)
	Logout(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*User, error)
	ChangePassword(ctx context.Context, token string, change PasswordChange) error
}

// LoginResponse is the account service answer to a login request. Both
// fields must be present for the login to count as successful.
type LoginResponse struct {
	User  *User  `json:"user,omitempty"`
	Token string `json:"token,omitempty"`
}

// Notifier shows transient, non-blocking messages to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] PORTAL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] PORTAL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] PORTAL "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}

func (noopNotifier) Error(string) {}

// NotifierFuncs adapts a pair of functions to the Notifier interface.
type NotifierFuncs struct {
	OnSuccess func(message string)
	OnError   func(message string)
}

// Success implements Notifier.
func (n NotifierFuncs) Success(message string) {
	if n.OnSuccess != nil {
		n.OnSuccess(message)
	}
}

// Error implements Notifier.
func (n NotifierFuncs) Error(message string) {
	if n.OnError != nil {
		n.OnError(message)
	}
}
