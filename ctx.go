package portal

import "context"

var managerCtxKey = &contextKey{"manager"}
var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithManager sets the Manager in the given context
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerCtxKey, m)
}

// ManagerFromContext finds the Manager in the context.
func ManagerFromContext(ctx context.Context) (*Manager, bool) {
	m, ok := ctx.Value(managerCtxKey).(*Manager)
	return m, ok && m != nil
}

// WithUser sets the User in the given context
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey, user.Clone())
}

// UserFromContext finds the user from the context. When only a Manager is
// present the user of its current snapshot is returned.
func UserFromContext(ctx context.Context) (*User, bool) {
	if user, ok := ctx.Value(userCtxKey).(*User); ok && user != nil {
		return user, true
	}
	if m, ok := ManagerFromContext(ctx); ok {
		snap := m.Snapshot()
		if snap.IsAuthenticated() {
			return snap.User, true
		}
	}
	return nil, false
}

// Can reports whether the user in ctx holds any of the given roles
func Can(ctx context.Context, roles ...Role) bool {
	user, ok := UserFromContext(ctx)
	if !ok {
		return false
	}
	snap := Snapshot{Status: StatusAuthenticated, User: user, HasToken: true}
	return Decide(snap, roles...) == Render
}
