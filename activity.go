package portal

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSessionResolved      ActivityEventType = "session.resolved"
	ActivityEventSessionResolveFailed ActivityEventType = "session.resolve_failed"
	ActivityEventSessionStale         ActivityEventType = "session.stale_discarded"
	ActivityEventSessionRevoked       ActivityEventType = "session.revoked"
	ActivityEventLoginSuccess         ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure         ActivityEventType = "auth.login.failure"
	ActivityEventLogout               ActivityEventType = "auth.logout"
	ActivityEventRegisterSuccess      ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure      ActivityEventType = "auth.register.failure"
	ActivityEventProfileUpdated       ActivityEventType = "profile.updated"
	ActivityEventPasswordChanged      ActivityEventType = "password.changed"
)

// ActivityEvent captures audit-friendly information about a session action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     UserID
	Role       Role
	Status     Status
	Generation uint64
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
