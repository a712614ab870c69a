package portal

import (
	"fmt"
	"slices"
)

// Status is the authentication state of the session
type Status int

const (
	StatusUnresolved Status = iota
	StatusResolving
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusResolving:
		return "resolving"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsSettled reports whether bootstrap resolution is over
func (s Status) IsSettled() bool {
	return s == StatusAuthenticated || s == StatusAnonymous
}

// Snapshot is a committed, read-only view of the session. The token itself
// never leaves the Manager, HasToken reports its presence.
type Snapshot struct {
	Status     Status
	User       *User
	HasToken   bool
	Generation uint64
	// Busy is set while a mutating operation is in flight
	Busy bool
}

// Valid checks the session invariants:
// Authenticated iff a user and a token are present, Anonymous has no user.
func (s Snapshot) Valid() bool {
	authenticated := s.User != nil && s.HasToken
	if (s.Status == StatusAuthenticated) != authenticated {
		return false
	}
	if s.Status == StatusAnonymous && s.User != nil {
		return false
	}
	return true
}

// IsAuthenticated reports whether the session holds a resolved user
func (s Snapshot) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Role returns the user role, ok is false when no user is present
func (s Snapshot) Role() (Role, bool) {
	if !s.IsAuthenticated() {
		return "", false
	}
	return s.User.Role, true
}

// HasRole checks if the session user has the given role
func (s Snapshot) HasRole(role Role) bool {
	current, ok := s.Role()
	return ok && current == role
}

// HasAnyRole checks if the session user has one of the given roles
func (s Snapshot) HasAnyRole(roles ...Role) bool {
	current, ok := s.Role()
	if !ok {
		return false
	}
	return slices.Contains(roles, current)
}

func (s Snapshot) IsAdmin() bool { return s.HasRole(RoleAdmin) }

func (s Snapshot) IsFaculty() bool { return s.HasRole(RoleFaculty) }

func (s Snapshot) IsStudent() bool { return s.HasRole(RoleStudent) }

func (s Snapshot) IsParent() bool { return s.HasRole(RoleParent) }

func (s Snapshot) String() string {
	user := "<nil>"
	if s.User != nil {
		user = fmt.Sprintf("%s(%s)", s.User.ID, s.User.Role)
	}
	return fmt.Sprintf(
		"status=%s user=%s token=%t gen=%d busy=%t",
		s.Status,
		user,
		s.HasToken,
		s.Generation,
		s.Busy,
	)
}

func (s Snapshot) clone() Snapshot {
	s.User = s.User.Clone()
	return s
}
