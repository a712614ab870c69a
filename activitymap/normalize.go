// Package activitymap turns portal activity events into a flat record that
// can be written to logs or shipped to an audit collector.
package activitymap

import (
	"maps"
	"strings"
	"time"

	"github.com/goliatone/go-portal"
)

const (
	// MetadataKeyRole stores the role of the session user
	MetadataKeyRole = "role"
	// MetadataKeyStatus stores the session status after the event
	MetadataKeyStatus = "session_status"
	// MetadataKeyGeneration stores the session generation after the event
	MetadataKeyGeneration = "session_generation"
)

const (
	defaultChannel    = "portal"
	defaultObjectType = "session"
	defaultActorID    = "anonymous"
)

// Record is the transport agnostic shape of an activity event.
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization.
type Option func(*options)

type options struct {
	channel       string
	objectType    string
	actorFallback string
	now           func() time.Time
}

// WithChannel sets the channel of normalized records.
func WithChannel(channel string) Option {
	return func(o *options) {
		o.channel = strings.TrimSpace(channel)
	}
}

// WithObjectType sets the object type of normalized records.
func WithObjectType(objectType string) Option {
	return func(o *options) {
		o.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when the event has no user.
func WithActorFallback(actorID string) Option {
	return func(o *options) {
		o.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithClock sets the clock used for events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Normalize converts a portal.ActivityEvent into a Record.
func Normalize(event portal.ActivityEvent, opts ...Option) Record {
	o := options{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	actorID := strings.TrimSpace(event.UserID.String())
	if actorID == "" {
		actorID = o.actorFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = o.now()
	}

	return Record{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: o.objectType,
		Channel:    o.channel,
		Metadata:   metadata(event),
		OccurredAt: occurredAt.UTC(),
	}
}

func metadata(event portal.ActivityEvent) map[string]any {
	out := make(map[string]any, len(event.Metadata)+3)
	maps.Copy(out, event.Metadata)

	if event.Role != "" {
		out[MetadataKeyRole] = event.Role.String()
	}
	out[MetadataKeyStatus] = event.Status.String()
	out[MetadataKeyGeneration] = event.Generation

	return out
}
