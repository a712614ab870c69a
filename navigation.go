package portal

import (
	"path"
	"strings"
)

const (
	PathLanding   = "/"
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
)

// Route describes a navigable view target
type Route struct {
	// Path is the cleaned target path
	Path string
	// Public routes render for every session, including pending ones
	Public bool
	// Roles restricts the route, empty means any authenticated user
	Roles []Role
	// Fallback is set when the target matched no route and was sent to /
	Fallback bool
}

// Outcome is the result of visiting a path with a given session
type Outcome struct {
	Route    Route
	Decision Decision
	// Location is where the view ends up: the route path on Render, the
	// redirect target otherwise. Empty while Pending.
	Location string
}

// Navigator maps portal paths to routes and decisions.
type Navigator struct {
	roles []Role
}

// NewNavigator returns a navigator for the given role subtrees, all portal
// roles when none are given.
func NewNavigator(roles ...Role) *Navigator {
	if len(roles) == 0 {
		roles = AllRoles()
	}
	return &Navigator{roles: append([]Role(nil), roles...)}
}

// Resolve maps a path to its route. Unmatched targets fall back to the
// landing page.
func (n *Navigator) Resolve(target string) Route {
	clean := cleanPath(target)

	switch clean {
	case PathLanding, PathLogin:
		return Route{Path: clean, Public: true}
	case PathDashboard:
		return Route{Path: clean}
	}

	for _, role := range n.roles {
		home := role.HomePath()
		if clean == home || strings.HasPrefix(clean, home+"/") {
			return Route{Path: clean, Roles: []Role{role}}
		}
	}

	return Route{Path: PathLanding, Public: true, Fallback: true}
}

// Visit runs the access gate for target against the snapshot.
func (n *Navigator) Visit(s Snapshot, target string) Outcome {
	route := n.Resolve(target)

	if route.Public {
		return Outcome{Route: route, Decision: Render, Location: route.Path}
	}

	decision := Decide(s, route.Roles...)
	out := Outcome{Route: route, Decision: decision}

	switch decision {
	case Render:
		out.Location = route.Path
	case RedirectToLogin:
		out.Location = PathLogin
	case RedirectToDefault:
		out.Location = PathDashboard
		if role, ok := s.Role(); ok {
			out.Location = role.HomePath()
		}
	}

	return out
}

// Home is the dashboard dispatch: it returns the subtree of the session role
// and whether navigation is needed to get there. Being anywhere inside the
// subtree already is a no-op.
func Home(s Snapshot, current string) (destination string, navigate bool) {
	role, ok := s.Role()
	if !ok {
		return "", false
	}

	home := role.HomePath()
	clean := cleanPath(current)
	if clean == home || strings.HasPrefix(clean, home+"/") {
		return home, false
	}

	return home, true
}

func cleanPath(target string) string {
	target = strings.TrimSpace(target)
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return PathLanding
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return path.Clean(target)
}
