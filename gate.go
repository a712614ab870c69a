package portal

import (
	"context"
	"slices"
	"sync"
)

// Decision is the outcome of an access check for a view
type Decision int

const (
	// Pending means the session is still being resolved, show a waiting state
	Pending Decision = iota
	// RedirectToLogin means there is no session
	RedirectToLogin
	// RedirectToDefault means the user lacks the required role and should
	// be sent to their own landing view
	RedirectToDefault
	// Render means the view may be shown
	Render
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToDefault:
		return "redirect_to_default"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decide is the access gate. It is a pure function of the snapshot and the
// optional role allow-list; an empty list admits any authenticated user.
func Decide(s Snapshot, requiredRoles ...Role) Decision {
	switch s.Status {
	case StatusUnresolved, StatusResolving:
		return Pending
	case StatusAuthenticated:
	default:
		return RedirectToLogin
	}

	if s.User == nil {
		return RedirectToLogin
	}

	if len(requiredRoles) > 0 && !slices.Contains(requiredRoles, s.User.Role) {
		return RedirectToDefault
	}

	return Render
}

// Watch evaluates Decide on every committed snapshot and emits the decision
// when it changes, starting with the current one. Slow readers only miss
// intermediate values, the latest decision is always delivered. The channel
// closes when ctx is done.
func Watch(ctx context.Context, m *Manager, requiredRoles ...Role) <-chan Decision {
	roles := append([]Role(nil), requiredRoles...)
	out := make(chan Decision, 1)

	var (
		mu     sync.Mutex
		closed bool
		last   Decision
		primed bool
	)

	push := func(d Decision) {
		mu.Lock()
		defer mu.Unlock()
		if closed || (primed && d == last) {
			return
		}
		last, primed = d, true
		for {
			select {
			case out <- d:
				return
			default:
				select {
				case <-out:
				default:
				}
			}
		}
	}

	cancel := m.subscribe(func(s Snapshot) {
		push(Decide(s, roles...))
	}, true)

	go func() {
		<-ctx.Done()
		cancel()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out
}
