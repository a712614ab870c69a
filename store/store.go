// Package store provides the durable TokenStore implementations used by the
// portal session manager. Stores hold the bearer token only, they never look
// inside it or talk to the network.
package store

import (
	"time"

	"github.com/goliatone/go-portal"
)

// DefaultKey is the slot name the token is stored under
const DefaultKey = "token"

const defaultOpTimeout = 5 * time.Second

var (
	_ portal.TokenStore = (*MemoryStore)(nil)
	_ portal.TokenStore = (*FileStore)(nil)
	_ portal.TokenStore = (*BunStore)(nil)
)

// Option customizes a store
type Option func(*options)

type options struct {
	key     string
	logger  portal.Logger
	timeout time.Duration
	now     func() time.Time
}

// WithKey stores the token under a custom slot name
func WithKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.key = key
		}
	}
}

// WithLogger sets the logger used to report read failures
func WithLogger(logger portal.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTimeout bounds each database call of a BunStore
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithClock injects the clock used for updated_at stamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		key:     DefaultKey,
		logger:  nopLogger{},
		timeout: defaultOpTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
