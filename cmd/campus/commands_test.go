package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-portal"
	"github.com/goliatone/go-portal/accountsim"
	"github.com/goliatone/go-portal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authenticated(role portal.Role) portal.Snapshot {
	return portal.Snapshot{
		Status:   portal.StatusAuthenticated,
		User:     &portal.User{ID: "1", Role: role},
		HasToken: true,
	}
}

func TestVisitFollowsDashboardDispatch(t *testing.T) {
	out := visit(authenticated(portal.RoleFaculty), "/dashboard")
	assert.Equal(t, portal.Render, out.Decision)
	assert.Equal(t, "/faculty", out.Location)

	out = visit(authenticated(portal.RoleStudent), "/admin/users")
	assert.Equal(t, portal.RedirectToDefault, out.Decision)
	assert.Equal(t, "/student", out.Location)

	out = visit(portal.Snapshot{Status: portal.StatusAnonymous}, "/dashboard")
	assert.Equal(t, portal.RedirectToLogin, out.Decision)
	assert.Equal(t, portal.PathLogin, out.Location)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestSlogLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info")

	logger.Debug("hidden %d", 1)
	logger.Info("visible %d\n", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible 2")
	assert.Contains(t, buf.String(), "component=portal")
}

func TestOpenCommandAnonymous(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--store", "memory", "--log-level", "error", "open", "/parent"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "redirect_to_login")
	assert.Contains(t, out.String(), "/login")
}

func TestRolesCommandListsCatalog(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--store", "memory", "roles"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	for _, role := range portal.AllRoles() {
		assert.Contains(t, out.String(), role.Title())
		assert.Contains(t, out.String(), role.HomePath())
	}
}

func TestWhoamiShowsResolvedUser(t *testing.T) {
	t.Chdir(t.TempDir())

	sim := accountsim.New(accountsim.Config{SigningKey: []byte("cli-key"), BcryptCost: bcrypt.MinCost})
	var faculty *portal.User
	for _, reg := range accountsim.DemoUsers() {
		user, err := sim.AddUser(reg)
		require.NoError(t, err)
		if user.Role == portal.RoleFaculty {
			faculty = user
		}
	}
	require.NotNil(t, faculty)

	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()

	token, err := sim.IssueToken(faculty.ID)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, store.NewFileStore(path).Write(token))
	t.Setenv("CAMPUS_STORE_PATH", path)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--base-url", srv.URL + accountsim.DefaultPrefix, "--store", "file", "--log-level", "error", "whoami"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "authenticated")
	assert.Contains(t, out.String(), "Demo Faculty")
	assert.Contains(t, out.String(), "faculty@campus.test")
	assert.Contains(t, out.String(), "Expires")
}

func TestWhoamiAnonymous(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--store", "memory", "--log-level", "error", "whoami"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "anonymous")
	assert.NotContains(t, out.String(), "Email")
}
