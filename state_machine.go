package portal

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidTransition = "INVALID_SESSION_TRANSITION"

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// sessionTransitions is the transition graph of the session status. Moving to
// the current status is always allowed (profile updates, repeated logouts).
var sessionTransitions = map[Status]map[Status]struct{}{
	StatusUnresolved: {
		StatusResolving:     {},
		StatusAnonymous:     {},
		StatusAuthenticated: {},
	},
	StatusResolving: {
		StatusAuthenticated: {},
		StatusAnonymous:     {},
	},
	StatusAuthenticated: {
		StatusAnonymous: {},
	},
	StatusAnonymous: {
		StatusAuthenticated: {},
	},
}

// CanTransition reports whether the session may move from one status to another.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	targets, ok := sessionTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

func invalidTransition(from, to Status) error {
	clone := ErrInvalidTransition.Clone()
	if clone == nil {
		return ErrInvalidTransition
	}
	return clone.WithMetadata(map[string]any{
		"from": from.String(),
		"to":   to.String(),
	})
}

// ManagerOption customizes Manager construction.
type ManagerOption func(*Manager)

// WithLogger overrides the logger used by the Manager.
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNotifier sets where user facing messages are sent.
func WithNotifier(notifier Notifier) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish session events.
func WithActivitySink(sink ActivitySink) ManagerOption {
	return func(m *Manager) {
		m.activitySink = normalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithResolveTimeout bounds each identity resolution attempt. A timed out
// attempt counts as ErrUnreachable. Zero disables the local timeout.
func WithResolveTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		if timeout >= 0 {
			m.resolveTimeout = timeout
		}
	}
}

// WithResolveRetry retries bootstrap resolution when the account service is
// unreachable. Rejected tokens are never retried. The default is no retry.
func WithResolveRetry(retries int, backoff time.Duration) ManagerOption {
	return func(m *Manager) {
		if retries >= 0 {
			m.resolveRetries = retries
		}
		if backoff >= 0 {
			m.retryBackoff = backoff
		}
	}
}
