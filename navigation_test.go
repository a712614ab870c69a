package portal_test

import (
	"testing"

	"github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
)

func TestNavigatorResolve(t *testing.T) {
	nav := portal.NewNavigator()

	tests := []struct {
		target   string
		expected portal.Route
	}{
		{target: "/", expected: portal.Route{Path: "/", Public: true}},
		{target: "", expected: portal.Route{Path: "/", Public: true}},
		{target: "/login", expected: portal.Route{Path: "/login", Public: true}},
		{target: "login?next=/admin", expected: portal.Route{Path: "/login", Public: true}},
		{target: "/dashboard", expected: portal.Route{Path: "/dashboard"}},
		{target: "/dashboard/", expected: portal.Route{Path: "/dashboard"}},
		{target: "/admin", expected: portal.Route{Path: "/admin", Roles: []portal.Role{portal.RoleAdmin}}},
		{target: "/faculty/attendance", expected: portal.Route{Path: "/faculty/attendance", Roles: []portal.Role{portal.RoleFaculty}}},
		{target: "/student/./timetable#today", expected: portal.Route{Path: "/student/timetable", Roles: []portal.Role{portal.RoleStudent}}},
		{target: "/parent/../admin/users", expected: portal.Route{Path: "/admin/users", Roles: []portal.Role{portal.RoleAdmin}}},
		{target: "/administrator", expected: portal.Route{Path: "/", Public: true, Fallback: true}},
		{target: "/nowhere", expected: portal.Route{Path: "/", Public: true, Fallback: true}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.expected, nav.Resolve(tt.target))
		})
	}
}

func TestNavigatorRestrictedSubtrees(t *testing.T) {
	nav := portal.NewNavigator(portal.RoleAdmin)

	assert.Equal(t, []portal.Role{portal.RoleAdmin}, nav.Resolve("/admin/users").Roles)
	assert.True(t, nav.Resolve("/student").Fallback)
}

func TestNavigatorVisit(t *testing.T) {
	nav := portal.NewNavigator()
	faculty := student()
	faculty.Role = portal.RoleFaculty

	anonymous := portal.Snapshot{Status: portal.StatusAnonymous}
	resolving := portal.Snapshot{Status: portal.StatusResolving, HasToken: true}
	signedIn := portal.Snapshot{Status: portal.StatusAuthenticated, User: faculty, HasToken: true}

	tests := []struct {
		name     string
		snap     portal.Snapshot
		target   string
		decision portal.Decision
		location string
	}{
		{name: "landing is public", snap: anonymous, target: "/", decision: portal.Render, location: "/"},
		{name: "login renders while resolving", snap: resolving, target: "/login", decision: portal.Render, location: "/login"},
		{name: "dashboard pending", snap: resolving, target: "/dashboard", decision: portal.Pending, location: ""},
		{name: "dashboard anonymous", snap: anonymous, target: "/dashboard", decision: portal.RedirectToLogin, location: "/login"},
		{name: "own subtree", snap: signedIn, target: "/faculty/schedule", decision: portal.Render, location: "/faculty/schedule"},
		{name: "other subtree", snap: signedIn, target: "/admin/users", decision: portal.RedirectToDefault, location: "/faculty"},
		{name: "unknown path falls back", snap: anonymous, target: "/reports", decision: portal.Render, location: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := nav.Visit(tt.snap, tt.target)
			assert.Equal(t, tt.decision, out.Decision)
			assert.Equal(t, tt.location, out.Location)
		})
	}
}

func TestHome(t *testing.T) {
	parent := student()
	parent.Role = portal.RoleParent
	snap := portal.Snapshot{Status: portal.StatusAuthenticated, User: parent, HasToken: true}

	dest, navigate := portal.Home(snap, "/dashboard")
	assert.Equal(t, "/parent", dest)
	assert.True(t, navigate)

	dest, navigate = portal.Home(snap, "/parent/progress")
	assert.Equal(t, "/parent", dest)
	assert.False(t, navigate)

	_, navigate = portal.Home(snap, "/parents")
	assert.True(t, navigate)

	dest, navigate = portal.Home(portal.Snapshot{Status: portal.StatusAnonymous}, "/dashboard")
	assert.Empty(t, dest)
	assert.False(t, navigate)
}
