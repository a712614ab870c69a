// Package portal provides the session and access-control layer of the campus
// portal client: token persistence, identity resolution against the account
// service, the session state machine, and the gate that decides whether a view
// may render for the current session.
//
// Session lifecycle:
//   - A Manager owns the single session of the process. It starts Unresolved,
//     moves to Resolving when a persisted token exists, and settles on
//     Authenticated or Anonymous. Resolution failures of any kind fail closed:
//     the token is cleared and the session becomes Anonymous.
//   - Mutating operations (Login, Register, UpdateProfile, ChangePassword) are
//     serialized. Logout never waits: it bumps the session generation so that
//     completions of older operations are discarded instead of resurrecting a
//     signed-out session.
//
// Observing state:
//   - Readers only see committed Snapshot values. Subscribe delivers every
//     committed snapshot in order; Watch turns that stream into gate decisions.
//
// Access decisions:
//   - Decide is a pure function of a Snapshot and an optional role allow-list.
//     Navigator maps portal paths (/, /login, /dashboard, /{role}/*) to the
//     roles they require and to the redirect destination of each decision.
//
// Activity sinks:
//   - ActivitySink receives best-effort audit events for logins, logouts,
//     resolutions and profile changes. Sink errors are logged, never returned.
package portal
