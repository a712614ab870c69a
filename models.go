package portal

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// UserID identifies a user. The account service may send integer primary
// keys or string identifiers, both decode into a UserID.
type UserID string

// UnmarshalJSON accepts JSON numbers and strings.
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = UserID(n.String())
	return nil
}

// String implements fmt.Stringer
func (id UserID) String() string {
	return string(id)
}

// User is the identity resolved from a session token
type User struct {
	ID        UserID     `json:"id"`
	Email     string     `json:"email,omitempty"`
	Username  string     `json:"username,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Role      Role       `json:"role"`
	Phone     string     `json:"phone,omitempty"`
	IsActive  bool       `json:"is_active,omitempty"`
	JoinedAt  *time.Time `json:"date_joined,omitempty"`
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.JoinedAt != nil {
		t := *u.JoinedAt
		c.JoinedAt = &t
	}
	return &c
}

// FullName joins first and last name, falling back to the username
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Credentials is the login payload. Identifier is an email or username.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Registration holds the fields of a new account
type Registration struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Role            Role   `json:"role"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ProfileUpdate is a partial update of the user fields, nil fields are left
// untouched. The role can not be changed through a profile update.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// IsEmpty reports whether the update carries no field
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil
}

// PasswordChange is the change password payload
type PasswordChange struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// Result is what every Manager operation returns to view code. Error holds
// the user facing message, Err the classified error.
type Result struct {
	Success bool
	Error   string
	Err     error
}

func ok() Result {
	return Result{Success: true}
}

func failed(err error, fallback string) Result {
	return Result{
		Success: false,
		Error:   UserMessage(err, fallback),
		Err:     err,
	}
}
