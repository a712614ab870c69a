package portal

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const (
	msgLoginSuccess         = "Login successful!"
	msgLoginFailed          = "Login failed. Please try again."
	msgLoginInvalid         = "Login failed. Please check your credentials."
	msgLogoutSuccess        = "Logged out successfully"
	msgRegisterSuccess      = "Registration successful! Please log in."
	msgRegisterFailed       = "Registration failed. Please try again."
	msgProfileSuccess       = "Profile updated successfully!"
	msgProfileFailed        = "Profile update failed. Please try again."
	msgPasswordSuccess      = "Password changed successfully!"
	msgPasswordFailed       = "Password change failed. Please try again."
	msgSessionSaveFailed    = "Unable to save your session. Please try again."
	msgSessionChangedDuring = "Your session changed while the request was running."
)

// Manager owns the session of the process. It is the only writer of the
// session state; views, the gate, and other readers use Snapshot or Subscribe.
type Manager struct {
	store    TokenStore
	resolver IdentityResolver
	accounts AccountService

	logger         Logger
	notifier       Notifier
	activitySink   ActivitySink
	now            func() time.Time
	resolveTimeout time.Duration
	resolveRetries int
	retryBackoff   time.Duration

	// opMu serializes mutating operations, Logout does not take it
	opMu    sync.Mutex
	started atomic.Bool

	// pubMu orders commits with their delivery to subscribers
	pubMu sync.Mutex

	mu          sync.RWMutex
	token       string
	snapshot    Snapshot
	inflight    int
	subscribers map[uint64]func(Snapshot)
	nextSubID   uint64
}

// NewManager returns a Manager in the Unresolved status. Call Start to
// bootstrap the session from the persisted token.
func NewManager(store TokenStore, resolver IdentityResolver, accounts AccountService, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:          store,
		resolver:       resolver,
		accounts:       accounts,
		logger:         defLogger{},
		notifier:       noopNotifier{},
		activitySink:   noopActivitySink{},
		now:            time.Now,
		resolveTimeout: 10 * time.Second,
		retryBackoff:   500 * time.Millisecond,
		snapshot:       Snapshot{Status: StatusUnresolved},
		subscribers:    make(map[uint64]func(Snapshot)),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Snapshot returns the latest committed session state
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.clone()
}

// Subscribe registers fn to receive every committed snapshot, in commit
// order. fn runs synchronously with the commit: it must not block and must
// not call mutating Manager methods. The returned function unsubscribes.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	return m.subscribe(fn, false)
}

// subscribe registers fn. With replay, fn first receives the current
// snapshot; no commit can be published between that call and registration.
func (m *Manager) subscribe(fn func(Snapshot), replay bool) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	m.pubMu.Lock()
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	current := m.snapshot.clone()
	m.mu.Unlock()

	if replay {
		fn(current)
	}
	m.pubMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) HasRole(role Role) bool { return m.Snapshot().HasRole(role) }

func (m *Manager) HasAnyRole(roles ...Role) bool { return m.Snapshot().HasAnyRole(roles...) }

func (m *Manager) IsAdmin() bool { return m.HasRole(RoleAdmin) }

func (m *Manager) IsFaculty() bool { return m.HasRole(RoleFaculty) }

func (m *Manager) IsStudent() bool { return m.HasRole(RoleStudent) }

func (m *Manager) IsParent() bool { return m.HasRole(RoleParent) }

// Start bootstraps the session. Without a persisted token the session becomes
// Anonymous without calling the resolver. Otherwise the token is resolved and
// any failure, including an unreachable service, clears it (fail closed).
// Start runs once, later calls return the current snapshot.
func (m *Manager) Start(ctx context.Context) Snapshot {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.started.CompareAndSwap(false, true) {
		return m.Snapshot()
	}

	token, found := m.store.Read()
	if !found || token == "" {
		m.commit(func(s *Snapshot) error {
			s.Status = StatusAnonymous
			s.User = nil
			s.HasToken = false
			return nil
		})
		m.logger.Debug("no persisted token, session is anonymous")
		return m.Snapshot()
	}

	var (
		gen       uint64
		preempted bool
	)
	m.commit(func(s *Snapshot) error {
		if s.Status != StatusUnresolved {
			preempted = true
			return errSkipCommit
		}
		m.token = token
		s.Status = StatusResolving
		s.HasToken = true
		gen = s.Generation
		return nil
	})
	if preempted {
		m.logger.Info("session settled before bootstrap, skipping resolution")
		return m.Snapshot()
	}

	user, err := m.resolve(ctx, token)

	var stale bool
	m.commit(func(s *Snapshot) error {
		if s.Generation != gen {
			stale = true
			return errSkipCommit
		}

		if err == nil && (user == nil || !user.Role.IsValid()) {
			err = NewInvalidResponseError(nil, map[string]any{"reason": "resolved user has no valid role"})
		}

		if err != nil {
			m.token = ""
			if clearErr := m.store.Clear(); clearErr != nil {
				m.logger.Error("failed to clear rejected token: %v", clearErr)
			}
			s.Status = StatusAnonymous
			s.User = nil
			s.HasToken = false
			s.Generation++
			return nil
		}

		s.Status = StatusAuthenticated
		s.User = user.Clone()
		return nil
	})

	snap := m.Snapshot()

	switch {
	case stale:
		m.logger.Info("discarding resolution result, session changed during bootstrap")
		m.record(ctx, ActivityEventSessionStale, snap, map[string]any{"operation": "resolve"})
	case err != nil:
		m.logFailure("resolve session", err)
		m.record(ctx, ActivityEventSessionResolveFailed, snap, map[string]any{
			"unauthorized": IsUnauthorized(err),
			"unreachable":  IsUnreachable(err),
		})
	default:
		m.record(ctx, ActivityEventSessionResolved, snap, nil)
	}

	return snap
}

func (m *Manager) resolve(ctx context.Context, token string) (*User, error) {
	attempts := m.resolveRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		user, err := m.resolveOnce(ctx, token)
		if err == nil {
			return user, nil
		}
		lastErr = err

		if !IsUnreachable(err) || attempt == attempts {
			break
		}

		m.logger.Info("account service unreachable, retrying resolution (%d/%d)", attempt, attempts-1)
		select {
		case <-ctx.Done():
			return nil, NewUnreachableError(ctx.Err(), nil)
		case <-time.After(m.retryBackoff):
		}
	}

	return nil, lastErr
}

func (m *Manager) resolveOnce(ctx context.Context, token string) (*User, error) {
	if m.resolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.resolveTimeout)
		defer cancel()
	}

	user, err := m.resolver.Resolve(ctx, token)
	if err == nil {
		return user, nil
	}

	if IsUnauthorized(err) || IsUnreachable(err) {
		return nil, err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil, NewUnreachableError(err, map[string]any{"reason": "resolution timed out"})
	}

	return nil, err
}

// Login authenticates with the account service. The session becomes
// Authenticated only when the response carries both a user and a token,
// any other outcome leaves it Anonymous.
func (m *Manager) Login(ctx context.Context, credentials Credentials) Result {
	if err := credentials.Validate(); err != nil {
		return m.fail("login", err, msgLoginFailed)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.started.Store(true)

	gen := m.beginOperation()
	defer m.endOperation()

	resp, err := m.accounts.Login(ctx, credentials)
	if err == nil && (resp == nil || resp.User == nil || resp.Token == "") {
		err = NewInvalidResponseError(nil, map[string]any{"reason": "login response missing user or token"})
	}
	if err == nil && !resp.User.Role.IsValid() {
		err = NewInvalidResponseError(nil, map[string]any{"reason": "unknown role", "role": resp.User.Role})
	}

	if err != nil {
		m.commit(func(s *Snapshot) error {
			if s.Generation != gen {
				return errSkipCommit
			}
			m.toAnonymous(s)
			return nil
		})
		m.record(ctx, ActivityEventLoginFailure, m.Snapshot(), map[string]any{"identifier": credentials.Identifier})
		fallback := msgLoginFailed
		if IsInvalidResponse(err) {
			fallback = msgLoginInvalid
		}
		return m.fail("login", err, fallback)
	}

	commitErr := m.commit(func(s *Snapshot) error {
		if s.Generation != gen {
			return ErrStaleSession
		}
		if writeErr := m.store.Write(resp.Token); writeErr != nil {
			m.logger.Error("failed to persist session token: %v", writeErr)
			m.toAnonymous(s)
			return nil
		}
		m.token = resp.Token
		s.Status = StatusAuthenticated
		s.User = resp.User.Clone()
		s.HasToken = true
		s.Generation++
		return nil
	})

	snap := m.Snapshot()
	if IsStale(commitErr) {
		m.record(ctx, ActivityEventSessionStale, snap, map[string]any{"operation": "login"})
		return m.fail("login", commitErr, msgSessionChangedDuring)
	}
	if !snap.IsAuthenticated() {
		m.record(ctx, ActivityEventLoginFailure, snap, map[string]any{"identifier": credentials.Identifier})
		return m.fail("login", NewInvalidResponseError(nil, map[string]any{"reason": "token not persisted"}), msgSessionSaveFailed)
	}

	m.record(ctx, ActivityEventLoginSuccess, snap, nil)
	m.notifier.Success(msgLoginSuccess)
	return ok()
}

// Register creates an account. It never authenticates the session, callers
// are expected to Login afterwards.
func (m *Manager) Register(ctx context.Context, registration Registration) Result {
	if err := registration.Validate(); err != nil {
		return m.fail("register", err, msgRegisterFailed)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.beginOperation()
	defer m.endOperation()

	user, err := m.accounts.Register(ctx, registration)
	if err == nil && user == nil {
		err = NewInvalidResponseError(nil, map[string]any{"reason": "register response missing user"})
	}
	if err != nil {
		m.record(ctx, ActivityEventRegisterFailure, m.Snapshot(), map[string]any{"email": registration.Email})
		return m.fail("register", err, msgRegisterFailed)
	}

	m.record(ctx, ActivityEventRegisterSuccess, m.Snapshot(), map[string]any{
		"email":   user.Email,
		"user_id": user.ID,
	})
	m.notifier.Success(msgRegisterSuccess)
	return ok()
}

// Logout ends the session. The local teardown is unconditional and happens
// before the best effort call to the account service, operations still in
// flight are invalidated by the generation bump.
func (m *Manager) Logout(ctx context.Context) {
	var token string
	m.commit(func(s *Snapshot) error {
		token = m.token
		m.token = ""
		if err := m.store.Clear(); err != nil {
			m.logger.Error("failed to clear session token: %v", err)
		}
		s.Status = StatusAnonymous
		s.User = nil
		s.HasToken = false
		s.Generation++
		return nil
	})

	m.started.Store(true)

	if token != "" {
		if err := m.accounts.Logout(ctx, token); err != nil {
			m.logFailure("remote logout", err)
		}
	}

	m.record(ctx, ActivityEventLogout, m.Snapshot(), nil)
	m.notifier.Success(msgLogoutSuccess)
}

// UpdateProfile replaces the session user with the account service answer.
// The role is never changed locally. On failure the user is left untouched.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) Result {
	if err := update.Validate(); err != nil {
		return m.fail("update profile", err, msgProfileFailed)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	token, current, gen, authenticated := m.authenticatedState()
	if !authenticated {
		return m.fail("update profile", ErrNotAuthenticated, msgProfileFailed)
	}

	m.beginOperation()
	defer m.endOperation()

	updated, err := m.accounts.UpdateProfile(ctx, token, update)
	if err == nil && updated == nil {
		err = NewInvalidResponseError(nil, map[string]any{"reason": "profile response missing user"})
	}
	if err != nil {
		m.revokeOnUnauthorized(ctx, err, gen, "update_profile")
		return m.fail("update profile", err, msgProfileFailed)
	}

	commitErr := m.commit(func(s *Snapshot) error {
		if s.Generation != gen || s.Status != StatusAuthenticated {
			return ErrStaleSession
		}
		next := updated.Clone()
		if next.Role != current.Role {
			m.logger.Info("ignoring role change from profile update: %s -> %s", current.Role, next.Role)
			next.Role = current.Role
		}
		s.User = next
		return nil
	})
	if commitErr != nil {
		m.record(ctx, ActivityEventSessionStale, m.Snapshot(), map[string]any{"operation": "update_profile"})
		return m.fail("update profile", commitErr, msgSessionChangedDuring)
	}

	m.record(ctx, ActivityEventProfileUpdated, m.Snapshot(), nil)
	m.notifier.Success(msgProfileSuccess)
	return ok()
}

// ChangePassword changes the password on the account service. No local
// state changes on success.
func (m *Manager) ChangePassword(ctx context.Context, change PasswordChange) Result {
	if err := change.Validate(); err != nil {
		return m.fail("change password", err, msgPasswordFailed)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	token, _, gen, authenticated := m.authenticatedState()
	if !authenticated {
		return m.fail("change password", ErrNotAuthenticated, msgPasswordFailed)
	}

	m.beginOperation()
	defer m.endOperation()

	if err := m.accounts.ChangePassword(ctx, token, change); err != nil {
		m.revokeOnUnauthorized(ctx, err, gen, "change_password")
		return m.fail("change password", err, msgPasswordFailed)
	}

	m.record(ctx, ActivityEventPasswordChanged, m.Snapshot(), nil)
	m.notifier.Success(msgPasswordSuccess)
	return ok()
}

func (m *Manager) authenticatedState() (token string, user *User, gen uint64, authenticated bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot.Status != StatusAuthenticated || m.token == "" {
		return "", nil, 0, false
	}
	return m.token, m.snapshot.User.Clone(), m.snapshot.Generation, true
}

// revokeOnUnauthorized drops a session whose token the account service no
// longer accepts. A session replaced since gen is left alone.
func (m *Manager) revokeOnUnauthorized(ctx context.Context, err error, gen uint64, op string) {
	if !IsUnauthorized(err) {
		return
	}
	revoked := false
	m.commit(func(s *Snapshot) error {
		if s.Generation != gen || s.Status != StatusAuthenticated {
			return errSkipCommit
		}
		m.toAnonymous(s)
		revoked = true
		return nil
	})
	if revoked {
		m.record(ctx, ActivityEventSessionRevoked, m.Snapshot(), map[string]any{"operation": op})
	}
}

// toAnonymous clears the store even when no token is held in memory.
func (m *Manager) toAnonymous(s *Snapshot) {
	if err := m.store.Clear(); err != nil {
		m.logger.Error("failed to clear session token: %v", err)
	}
	if m.token != "" {
		s.Generation++
	}
	m.token = ""
	s.Status = StatusAnonymous
	s.User = nil
	s.HasToken = false
}

func (m *Manager) beginOperation() uint64 {
	var gen uint64
	m.commit(func(s *Snapshot) error {
		m.inflight++
		s.Busy = true
		gen = s.Generation
		return nil
	})
	return gen
}

func (m *Manager) endOperation() {
	m.commit(func(s *Snapshot) error {
		if m.inflight > 0 {
			m.inflight--
		}
		s.Busy = m.inflight > 0
		return nil
	})
}

var errSkipCommit = errors.New("skip commit")

// commit applies fn to a working copy of the snapshot and publishes the
// result. fn runs with the state lock held. A non nil error from fn drops the
// working copy; errSkipCommit is swallowed, other errors are returned.
func (m *Manager) commit(fn func(s *Snapshot) error) error {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	prevToken := m.token
	next := m.snapshot.clone()
	if err := fn(&next); err != nil {
		m.token = prevToken
		m.mu.Unlock()
		if errors.Is(err, errSkipCommit) {
			return nil
		}
		return err
	}

	if !CanTransition(m.snapshot.Status, next.Status) {
		err := invalidTransition(m.snapshot.Status, next.Status)
		m.token = prevToken
		m.mu.Unlock()
		m.logFailure("commit", err)
		return err
	}

	m.snapshot = next
	published := next.clone()
	subs := make([]func(Snapshot), 0, len(m.subscribers))
	for _, id := range m.subscriberIDs() {
		subs = append(subs, m.subscribers[id])
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(published.clone())
	}

	return nil
}

// subscriberIDs returns ids in registration order, caller holds mu
func (m *Manager) subscriberIDs() []uint64 {
	ids := make([]uint64, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Manager) fail(op string, err error, fallback string) Result {
	m.logFailure(op, err)
	result := failed(err, fallback)
	m.notifier.Error(result.Error)
	return result
}

func (m *Manager) logFailure(op string, err error) {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		m.logger.Error("%s failed: %s text_code=%s details=%s",
			op,
			richErr.Message,
			richErr.TextCode,
			print.MaybePrettyJSON(richErr.Metadata),
		)
		return
	}
	m.logger.Error("%s failed: %v", op, err)
}

func (m *Manager) record(ctx context.Context, eventType ActivityEventType, snap Snapshot, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Status:     snap.Status,
		Generation: snap.Generation,
		Metadata:   metadata,
		OccurredAt: m.now(),
	}
	if snap.User != nil {
		event.UserID = snap.User.ID
		event.Role = snap.User.Role
	}

	if err := m.activitySink.Record(ctx, event); err != nil {
		m.logger.Error("activity sink failed for %s: %v", eventType, err)
	}
}
