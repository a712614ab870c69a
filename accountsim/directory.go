package accountsim

import (
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-portal"
	"github.com/goliatone/hashid"
	"github.com/google/uuid"
)

type account struct {
	user         portal.User
	passwordHash string
}

// directory is the in memory user table of the simulator
type directory struct {
	mu         sync.RWMutex
	byID       map[portal.UserID]*account
	byEmail    map[string]portal.UserID
	byUsername map[string]portal.UserID
}

func newDirectory() *directory {
	return &directory{
		byID:       make(map[portal.UserID]*account),
		byEmail:    make(map[string]portal.UserID),
		byUsername: make(map[string]portal.UserID),
	}
}

// fieldError is a per field rejection, rendered as {"field": ["message"]}
type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (d *directory) create(reg portal.Registration, passwordHash string, joined time.Time) (*portal.User, error) {
	email := normalizeEmail(reg.Email)
	username := getUsername(strings.TrimSpace(reg.Username), email)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byEmail[email]; taken {
		return nil, &fieldError{Field: "email", Message: "user with this email already exists."}
	}
	if _, taken := d.byUsername[strings.ToLower(username)]; taken {
		return nil, &fieldError{Field: "username", Message: "A user with that username already exists."}
	}

	id := newUserID(email)
	if _, taken := d.byID[id]; taken {
		id = portal.UserID(uuid.NewString())
	}

	joinedAt := joined.UTC()
	acc := &account{
		user: portal.User{
			ID:        id,
			Email:     email,
			Username:  username,
			FirstName: strings.TrimSpace(reg.FirstName),
			LastName:  strings.TrimSpace(reg.LastName),
			Role:      reg.Role,
			IsActive:  true,
			JoinedAt:  &joinedAt,
		},
		passwordHash: passwordHash,
	}

	d.byID[id] = acc
	d.byEmail[email] = id
	d.byUsername[strings.ToLower(username)] = id

	return acc.user.Clone(), nil
}

// lookup finds an account by email or username
func (d *directory) lookup(identifier string) (*account, bool) {
	identifier = strings.TrimSpace(identifier)

	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[normalizeEmail(identifier)]
	if !ok {
		id, ok = d.byUsername[strings.ToLower(identifier)]
	}
	if !ok {
		return nil, false
	}

	acc := d.byID[id]
	cp := *acc
	return &cp, true
}

func (d *directory) get(id portal.UserID) (*account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	acc, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	cp := *acc
	return &cp, true
}

func (d *directory) update(id portal.UserID, update portal.ProfileUpdate) (*portal.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.byID[id]
	if !ok {
		return nil, &fieldError{Field: "user", Message: "Profile not found"}
	}

	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if owner, taken := d.byEmail[email]; taken && owner != id {
			return nil, &fieldError{Field: "email", Message: "user with this email already exists."}
		}
		delete(d.byEmail, acc.user.Email)
		d.byEmail[email] = id
		acc.user.Email = email
	}
	if update.FirstName != nil {
		acc.user.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		acc.user.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.Phone != nil {
		acc.user.Phone = portal.NormalizePhone(*update.Phone)
	}

	return acc.user.Clone(), nil
}

func (d *directory) setPassword(id portal.UserID, passwordHash string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.byID[id]
	if !ok {
		return false
	}
	acc.passwordHash = passwordHash
	return true
}

func (d *directory) setActive(id portal.UserID, active bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.byID[id]
	if !ok {
		return false
	}
	acc.user.IsActive = active
	return true
}

func (d *directory) count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

func newUserID(email string) portal.UserID {
	if id, err := hashid.NewUUID(email); err == nil {
		return portal.UserID(id.String())
	}
	return portal.UserID(uuid.NewString())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
