package portal_test

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-portal"
	"github.com/stretchr/testify/mock"
)

// MockResolver implements portal.IdentityResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, token string) (*portal.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*portal.User)
	return user, args.Error(1)
}

// MockAccounts implements portal.AccountService
type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) Login(ctx context.Context, credentials portal.Credentials) (*portal.LoginResponse, error) {
	args := m.Called(ctx, credentials)
	resp, _ := args.Get(0).(*portal.LoginResponse)
	return resp, args.Error(1)
}

func (m *MockAccounts) Register(ctx context.Context, registration portal.Registration) (*portal.User, error) {
	args := m.Called(ctx, registration)
	user, _ := args.Get(0).(*portal.User)
	return user, args.Error(1)
}

func (m *MockAccounts) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAccounts) UpdateProfile(ctx context.Context, token string, update portal.ProfileUpdate) (*portal.User, error) {
	args := m.Called(ctx, token, update)
	user, _ := args.Get(0).(*portal.User)
	return user, args.Error(1)
}

func (m *MockAccounts) ChangePassword(ctx context.Context, token string, change portal.PasswordChange) error {
	args := m.Called(ctx, token, change)
	return args.Error(0)
}

// brokenStore fails every write
type brokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *brokenStore) Read() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *brokenStore) Write(string) error {
	return errors.New("disk full")
}

func (s *brokenStore) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// notifications records Notifier calls
type notifications struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *notifications) Success(message string) {
	n.mu.Lock()
	n.successes = append(n.successes, message)
	n.mu.Unlock()
}

func (n *notifications) Error(message string) {
	n.mu.Lock()
	n.errors = append(n.errors, message)
	n.mu.Unlock()
}

func (n *notifications) Successes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.successes...)
}

func (n *notifications) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

// activityLog records activity events
type activityLog struct {
	mu     sync.Mutex
	events []portal.ActivityEvent
}

func (a *activityLog) Record(_ context.Context, event portal.ActivityEvent) error {
	a.mu.Lock()
	a.events = append(a.events, event)
	a.mu.Unlock()
	return nil
}

func (a *activityLog) Types() []portal.ActivityEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]portal.ActivityEventType, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.EventType)
	}
	return out
}

func (a *activityLog) Last() portal.ActivityEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return portal.ActivityEvent{}
	}
	return a.events[len(a.events)-1]
}

type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}
